package web

import (
	"embed"
	"fmt"
	"net/http"

	"github.com/flosch/pongo2/v6"
)

//go:embed views/*.html
var viewFiles embed.FS

type views struct {
	index   *pongo2.Template
	confirm *pongo2.Template
	created *pongo2.Template
	failure *pongo2.Template
}

func loadViews() (*views, error) {
	load := func(name string) (*pongo2.Template, error) {
		data, err := viewFiles.ReadFile("views/" + name)
		if err != nil {
			return nil, fmt.Errorf("embedded view %s: %w", name, err)
		}
		tpl, err := pongo2.FromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("compile view %s: %w", name, err)
		}
		return tpl, nil
	}

	v := &views{}
	var err error
	if v.index, err = load("templates.html"); err != nil {
		return nil, err
	}
	if v.confirm, err = load("confirm_instance_creation.html"); err != nil {
		return nil, err
	}
	if v.created, err = load("instance_created.html"); err != nil {
		return nil, err
	}
	if v.failure, err = load("error.html"); err != nil {
		return nil, err
	}
	return v, nil
}

func renderView(w http.ResponseWriter, status int, tpl *pongo2.Template, ctx pongo2.Context) {
	out, err := tpl.Execute(ctx)
	if err != nil {
		http.Error(w, "view rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(out))
}
