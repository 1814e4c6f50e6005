package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/game"
)

// summaryCap bounds the closing summary. The prompt asks for roughly half of this, the
// cap only guards against runaway generations.
const summaryCap = 2 * game.DialogueCap

type guessRequest struct {
	Guess   string        `json:"guess"`
	Session *game.Session `json:"game_data"`
}

type guessResponse struct {
	Correct bool   `json:"correct"`
	Summary string `json:"summary"`
}

// guess judges the player's culprit guess and reveals the case summary.
func (app *application) guess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req guessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.invalidInput(w, r, errors.Wrap(err, "decode guess request"))
		return
	}
	if err := req.Session.Validate(); err != nil {
		app.invalidInput(w, r, errors.Wrap(err, "validate session"))
		return
	}

	culprit, err := req.Session.Culprit()
	if err != nil {
		app.invalidInput(w, r, errors.Wrap(err, "resolve culprit"))
		return
	}
	correct := req.Guess == culprit

	summary, err := app.aiClient.Complete(ctx, game.SummaryPrompt(req.Session, culprit))
	if err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "summary generation failed, using fallback summary",
			errors.SlogError(err))
		summary = fmt.Sprintf("兇手是%s，但總結生成失敗。", culprit)
	} else {
		summary = game.Truncate(summary, summaryCap)
	}

	if err = app.transcripts.AppendVerdict(ctx, req.Guess, culprit, correct); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelError, "record verdict", errors.SlogError(err))
	}

	app.writeJSON(w, r, http.StatusOK, guessResponse{Correct: correct, Summary: summary})
}
