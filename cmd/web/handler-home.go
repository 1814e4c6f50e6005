package main

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/ui"
)

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	t, err := template.ParseFS(ui.Files, "templates/home.gohtml")
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "parse home template"))
		return
	}

	buf := new(bytes.Buffer)
	if err = t.Execute(buf, nil); err != nil {
		app.serverError(w, r, errors.Wrap(err, "execute home template"))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
