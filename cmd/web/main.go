package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/db"
	"github.com/myrjola/whodunit/internal/envstruct"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/game"
	"github.com/myrjola/whodunit/internal/logging"
	"github.com/myrjola/whodunit/internal/pprofserver"
	"github.com/myrjola/whodunit/internal/repositories"
)

type application struct {
	logger      *slog.Logger
	vocab       *game.Vocabulary
	aiClient    *ai.Client
	transcripts *repositories.TranscriptRepository
}

// config is populated from the environment. The first completion endpoint is required,
// the second one is optional and joins the random selection pool when set.
type config struct {
	Addr      string `env:"WHODUNIT_ADDR" envDefault:"localhost:4000"`
	PprofPort string `env:"WHODUNIT_PPROF_PORT" envDefault:":6060"`
	SqliteURL string `env:"WHODUNIT_SQLITE_URL" envDefault:"./whodunit.sqlite"`
	VocabPath string `env:"WHODUNIT_VOCAB_PATH" envDefault:""`

	AIBaseURL1 string `env:"AI_API_URL1"`
	AIKey1     string `env:"AI_API_KEY1" envDefault:""`
	AIModel1   string `env:"AI_API_MODEL1"`
	AIBaseURL2 string `env:"AI_API_URL2" envDefault:""`
	AIKey2     string `env:"AI_API_KEY2" envDefault:""`
	AIModel2   string `env:"AI_API_MODEL2" envDefault:""`
}

// endpoints collects the configured completion endpoint pool.
func (cfg config) endpoints() []ai.Endpoint {
	endpoints := []ai.Endpoint{{BaseURL: cfg.AIBaseURL1, APIKey: cfg.AIKey1, Model: cfg.AIModel1}}
	if cfg.AIBaseURL2 != "" {
		endpoints = append(endpoints, ai.Endpoint{BaseURL: cfg.AIBaseURL2, APIKey: cfg.AIKey2, Model: cfg.AIModel2})
	}
	return endpoints
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "parse environment configuration")
	}

	if cfg.PprofPort != "" {
		// pprof listens on localhost so that it's not open to the world.
		pprofserver.Launch(cfg.PprofPort, logger)
	}

	vocab, err := game.LoadVocabulary(cfg.VocabPath)
	if err != nil {
		return errors.Wrap(err, "load vocabulary")
	}

	dbs, err := db.NewDatabase(ctx, cfg.SqliteURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer func() {
		if err = dbs.Close(); err != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close database", errors.SlogError(err))
		}
	}()

	aiClient, err := ai.NewClient(logger, cfg.endpoints()...)
	if err != nil {
		return errors.Wrap(err, "configure completion client")
	}

	app := application{
		logger:      logger,
		vocab:       vocab,
		aiClient:    aiClient,
		transcripts: repositories.NewTranscriptRepository(dbs, logger),
	}

	return app.configureAndStartServer(ctx, cfg.Addr)
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:       slog.LevelDebug,
		AddSource:   true,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)

	// A .env file is optional outside development.
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "err", err.Error())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server failed", errors.SlogError(err))
		os.Exit(1)
	}
}
