package main

import (
	"net/http"

	"github.com/justinas/alice"
	"github.com/myrjola/whodunit/ui"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	fileServer := http.FileServer(http.FS(ui.Files))
	mux.Handle("GET /static/", cacheForeverHeaders(fileServer))

	mux.HandleFunc("GET /{$}", app.home)
	mux.HandleFunc("GET /api/healthy", app.healthy)
	mux.HandleFunc("GET /api/init", app.initGame)
	mux.HandleFunc("POST /api/talk", app.talk)
	mux.HandleFunc("POST /api/guess", app.guess)

	base := alice.New(app.recoverPanic, app.logRequest, secureHeaders)
	return base.Then(mux)
}
