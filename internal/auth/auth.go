// Package auth provides the built-in authentication gates. Open skips
// authentication entirely; Sessions implements a minimal signed-cookie login
// against a configured user list, enough to pair destinations and hub URLs
// with a user. Hosts with a real user system supply their own gate.
package auth

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/sciapp/notebook-templates/pkg/token"
)

const (
	sessionCookie = "notebook_templates_session"
	sessionSalt   = "login_session"
)

type contextKey struct{}

// UserFromContext returns the authenticated user a gate stored on the
// request context, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(contextKey{}).(string)
	return user, ok && user != ""
}

func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// Open performs no authentication.
type Open struct{}

func (Open) Intercept(_ http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	return r, false
}

// Sessions authenticates against a fixed user list with a signed session
// cookie. It reuses the token codec, under its own purpose salt so session
// cookies and confirmation tokens can never stand in for each other.
type Sessions struct {
	Codec  *token.Codec
	Users  []string
	MaxAge time.Duration
}

type sessionPayload struct {
	User string `json:"user"`
}

func (s *Sessions) maxAge() time.Duration {
	if s.MaxAge > 0 {
		return s.MaxAge
	}
	return 24 * time.Hour
}

func (s *Sessions) knownUser(name string) bool {
	for _, u := range s.Users {
		if u == name {
			return true
		}
	}
	return false
}

// Intercept lets authenticated requests through with the user on the
// context, and redirects everything else to the login view.
func (s *Sessions) Intercept(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	if user, ok := s.authenticate(r); ok {
		return r.WithContext(WithUser(r.Context(), user)), false
	}
	http.Redirect(w, r, "/login/?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
	return r, true
}

func (s *Sessions) authenticate(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}
	var payload sessionPayload
	if err := s.Codec.Decode(cookie.Value, sessionSalt, s.maxAge(), &payload); err != nil {
		return "", false
	}
	if !s.knownUser(payload.User) {
		return "", false
	}
	return payload.User, true
}

// LoginHandler implements the mock login view: GET /login/ lists the users,
// GET /login/{user} starts a session. This is development scaffolding, not a
// production login.
func (s *Sessions) LoginHandler(w http.ResponseWriter, r *http.Request, user string) {
	next := r.URL.Query().Get("next")
	if next == "" || next[0] != '/' {
		next = "/"
	}
	if user == "" {
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		for _, u := range s.Users {
			_, _ = w.Write([]byte(`<a href="/login/` + url.PathEscape(u) + `?next=` + url.QueryEscape(next) + `">login/` + u + `</a><br/>` + "\n"))
		}
		return
	}
	if !s.knownUser(user) {
		http.Error(w, "No such user exists.", http.StatusNotFound)
		return
	}
	tok, err := s.Codec.Encode(sessionPayload{User: user}, sessionSalt)
	if err != nil {
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(s.maxAge() / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, next, http.StatusFound)
}
