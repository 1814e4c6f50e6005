package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/game"
)

// initGame assembles a fresh case. The skeleton is sampled locally, the provider is asked
// to flesh it out, and the normalizer reconciles whatever comes back. A provider failure
// is routed into the fallback tiers, never surfaced to the player.
func (app *application) initGame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	skel, err := game.NewSkeleton(app.vocab)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "build case skeleton"))
		return
	}

	prompt := game.CaseGenerationPrompt(skel.Params, skel.RoleNames(), skel.Culprit)
	raw, err := app.aiClient.Complete(ctx, prompt)
	if err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "case generation failed, using skeleton fallback",
			errors.SlogError(err))
		raw = ""
	}

	session := game.Normalize(skel, raw, app.logger)
	app.writeJSON(w, r, http.StatusOK, session)
}
