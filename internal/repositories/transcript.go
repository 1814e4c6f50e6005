package repositories

import (
	"context"
	"log/slog"

	"github.com/myrjola/whodunit/internal/db"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/models"
)

// TranscriptRepository records the exchanges and verdicts of played games. The game itself
// never depends on this data, it exists for troubleshooting generated content after the fact.
type TranscriptRepository struct {
	dbs    *db.Database
	logger *slog.Logger
}

func NewTranscriptRepository(dbs *db.Database, logger *slog.Logger) *TranscriptRepository {
	return &TranscriptRepository{
		dbs:    dbs,
		logger: logger.With("source", "TranscriptRepository"),
	}
}

// AppendExchange stores one question and answer pair.
func (r *TranscriptRepository) AppendExchange(ctx context.Context, roleName, question, answer string) error {
	stmt := `INSERT INTO exchanges (role_name, question, answer) VALUES (?, ?, ?)`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, roleName, question, answer); err != nil {
		return errors.Wrap(err, "insert exchange")
	}
	return nil
}

// AppendVerdict stores the outcome of a culprit guess.
func (r *TranscriptRepository) AppendVerdict(ctx context.Context, guess, culprit string, correct bool) error {
	stmt := `INSERT INTO verdicts (guess, culprit, correct) VALUES (?, ?, ?)`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, guess, culprit, correct); err != nil {
		return errors.Wrap(err, "insert verdict")
	}
	return nil
}

// LatestExchanges returns up to n most recent exchanges, newest first.
func (r *TranscriptRepository) LatestExchanges(ctx context.Context, n int) ([]models.Exchange, error) {
	var exchanges []models.Exchange
	stmt := `SELECT id, role_name, question, answer, created_at
	FROM exchanges
	ORDER BY id DESC
	LIMIT ?`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &exchanges, stmt, n); err != nil {
		return nil, errors.Wrap(err, "select exchanges")
	}
	return exchanges, nil
}

// LatestVerdicts returns up to n most recent verdicts, newest first.
func (r *TranscriptRepository) LatestVerdicts(ctx context.Context, n int) ([]models.Verdict, error) {
	var verdicts []models.Verdict
	stmt := `SELECT id, guess, culprit, correct, created_at
	FROM verdicts
	ORDER BY id DESC
	LIMIT ?`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &verdicts, stmt, n); err != nil {
		return nil, errors.Wrap(err, "select verdicts")
	}
	return verdicts, nil
}
