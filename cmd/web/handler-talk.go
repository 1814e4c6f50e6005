package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/game"
)

// fallbackReply keeps the dialogue going when the provider is unreachable.
const fallbackReply = "我不知道該說什麼..."

type talkRequest struct {
	Role     string        `json:"role"`
	Question string        `json:"question"`
	Session  *game.Session `json:"game_data"`
}

type talkResponse struct {
	Response string `json:"response"`
}

// talk relays one interrogation turn to the addressed role's persona. The session comes
// from the client and is untrusted: it is re-validated before any provider call is made.
func (app *application) talk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req talkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.invalidInput(w, r, errors.Wrap(err, "decode talk request"))
		return
	}
	if err := req.Session.Validate(); err != nil {
		app.invalidInput(w, r, errors.Wrap(err, "validate session"))
		return
	}
	if _, err := req.Session.Role(req.Role); err != nil {
		app.invalidInput(w, r, errors.Wrap(err, "resolve role", slog.String("role", req.Role)))
		return
	}

	prompt := game.DialoguePrompt(req.Session, req.Role, req.Question)
	answer, err := app.aiClient.Complete(ctx, prompt)
	if err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "dialogue generation failed, using fallback reply",
			slog.String("role", req.Role), errors.SlogError(err))
		answer = fallbackReply
	} else {
		answer = game.Truncate(answer, game.DialogueCap)
	}

	// Transcripts are diagnostics, a storage failure must not break the turn.
	if err = app.transcripts.AppendExchange(ctx, req.Role, req.Question, answer); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelError, "record exchange", errors.SlogError(err))
	}

	app.writeJSON(w, r, http.StatusOK, talkResponse{Response: answer})
}
