// Package web is the HTTP boundary: it routes the listing, confirmation and
// commit views onto the instantiation workflow and renders every workflow
// failure through the shared error view.
package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/flosch/pongo2/v6"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sciapp/notebook-templates/internal/auth"
	"github.com/sciapp/notebook-templates/internal/workflow"
	"github.com/sciapp/notebook-templates/pkg/httpx"
	"github.com/sciapp/notebook-templates/pkg/nbformat"
	"github.com/sciapp/notebook-templates/pkg/nberr"
)

type Server struct {
	wf    *workflow.Workflow
	views *views
}

// New builds the router. sessions may be nil when the gate needs no login
// routes.
func New(wf *workflow.Workflow, sessions *auth.Sessions) (http.Handler, error) {
	v, err := loadViews()
	if err != nil {
		return nil, err
	}
	s := &Server{wf: wf, views: v}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	if sessions != nil {
		r.Get("/login/", func(w http.ResponseWriter, r *http.Request) {
			sessions.LoginHandler(w, r, "")
		})
		r.Get("/login/{user}", func(w http.ResponseWriter, r *http.Request) {
			sessions.LoginHandler(w, r, chi.URLParam(r, "user"))
		})
	}
	r.Group(func(r chi.Router) {
		r.Use(gateMiddleware(wf.Gate()))
		r.Get("/api/templates", s.listTemplatesJSON)
		r.Get("/", s.index)
		r.Get("/t/*", s.useTemplate)
		r.Post("/t/*", s.useTemplate)
	})
	return r, nil
}

// gateMiddleware runs the authentication gate before every guarded route.
func gateMiddleware(gate workflow.AuthenticationGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gate != nil {
				gated, handled := gate.Intercept(w, r)
				if handled {
					return
				}
				r = gated
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	renderView(w, http.StatusOK, s.views.index, pongo2.Context{
		"templates": s.wf.Catalog().Paths(),
	})
}

func (s *Server) listTemplatesJSON(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"request_id": httpx.NewRequestID(),
		"templates":  s.wf.Catalog().Paths(),
	})
}

// useTemplate serves both phases of the creation flow on one route: a POST
// carrying the two confirmation tokens commits, everything else proposes.
func (s *Server) useTemplate(w http.ResponseWriter, r *http.Request) {
	templatePath := chi.URLParam(r, "*")

	if err := r.ParseForm(); err != nil {
		s.renderError(w, nberr.TokenRejected(err))
		return
	}

	if r.Method == http.MethodPost {
		destToken := r.PostFormValue("destination")
		paramsToken := r.PostFormValue("params")
		if destToken != "" && paramsToken != "" {
			s.commit(w, r, templatePath, destToken, paramsToken)
			return
		}
	}
	s.propose(w, r, templatePath)
}

func (s *Server) propose(w http.ResponseWriter, r *http.Request, templatePath string) {
	// Body params apply first, query params second, so the query wins on
	// conflicting keys. Malformed JSON in either source is ignored.
	prop, err := s.wf.Propose(r.Context(), templatePath,
		r.PostFormValue("params"),
		r.URL.Query().Get("params"),
	)
	if err != nil {
		s.renderError(w, err)
		return
	}
	renderView(w, http.StatusOK, s.views.confirm, pongo2.Context{
		"path":              prop.TemplatePath,
		"destination":       prop.Destination.RelativePath(),
		"destination_token": prop.DestinationToken,
		"params_token":      prop.ParamsToken,
	})
}

func (s *Server) commit(w http.ResponseWriter, r *http.Request, templatePath, destToken, paramsToken string) {
	out, err := s.wf.Commit(r.Context(), templatePath, destToken, paramsToken)
	if err != nil {
		s.renderError(w, err)
		return
	}
	switch {
	case out.RedirectURL != "":
		http.Redirect(w, r, out.RedirectURL, http.StatusFound)
	case out.Download != nil:
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Download.Filename))
		w.Header().Set("Content-Type", nbformat.MediaType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out.Download.Data)
	default:
		renderView(w, http.StatusOK, s.views.created, pongo2.Context{})
	}
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	var e *nberr.Error
	if !errors.As(err, &e) {
		e = &nberr.Error{
			Code:    nberr.CodeUnknown,
			Status:  http.StatusInternalServerError,
			Message: "An unknown error occurred",
			Err:     err,
		}
	}
	renderView(w, e.Status, s.views.failure, pongo2.Context{
		"error_message": e.Message,
		"error_code":    e.Code,
	})
}
