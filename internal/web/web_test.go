package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/sciapp/notebook-templates/internal/auth"
	"github.com/sciapp/notebook-templates/internal/catalog"
	"github.com/sciapp/notebook-templates/internal/hub"
	"github.com/sciapp/notebook-templates/internal/sink"
	"github.com/sciapp/notebook-templates/internal/workflow"
	"github.com/sciapp/notebook-templates/pkg/token"
)

const templateContent = `{
 "cells": [
  {"cell_type": "markdown", "metadata": {}, "source": ["# T\n"]},
  {"cell_type": "code", "execution_count": null, "metadata": {}, "outputs": [], "source": []}
 ],
 "metadata": {"kernelspec": {"display_name": "Python 3", "language": "python", "name": "python3"}},
 "nbformat": 4,
 "nbformat_minor": 5
}`

var (
	destTokenRe   = regexp.MustCompile(`name="destination" value="([^"]+)"`)
	paramsTokenRe = regexp.MustCompile(`name="params" value="([^"]+)"`)
)

func newTestServer(t *testing.T, sessions *auth.Sessions, paths ...string) http.Handler {
	t.Helper()
	root := t.TempDir()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(templateContent), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	cat, err := catalog.Discover(root)
	if err != nil {
		t.Fatalf("Discover error: %v", err)
	}
	var inline sink.Inline
	collab := workflow.Collaborators{
		Destinations: inline,
		Sink:         inline,
		HubURLs:      hub.None{},
	}
	if sessions != nil {
		collab.Gate = sessions
	}
	wf := workflow.New(cat, token.NewCodec([]byte("secret")), collab, token.DefaultMaxAge)
	h, err := New(wf, sessions)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return h
}

func TestIndexListsTemplates(t *testing.T) {
	h := newTestServer(t, nil, "a/b.ipynb")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != 200 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `href="/t/a/b.ipynb"`) {
		t.Fatalf("listing missing template link:\n%s", rec.Body.String())
	}
}

func TestTemplatesJSONEndpoint(t *testing.T) {
	h := newTestServer(t, nil, "a/b.ipynb")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/templates", nil))
	if rec.Code != 200 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"a/b.ipynb"`) {
		t.Fatalf("JSON listing missing template:\n%s", rec.Body.String())
	}
}

func TestProposeThenCommitDownload(t *testing.T) {
	h := newTestServer(t, nil, "a/b.ipynb")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/t/a/b.ipynb?params="+url.QueryEscape(`{"x": 1}`), nil))
	if rec.Code != 200 {
		t.Fatalf("propose status: %d\n%s", rec.Code, rec.Body.String())
	}
	destMatch := destTokenRe.FindStringSubmatch(rec.Body.String())
	paramsMatch := paramsTokenRe.FindStringSubmatch(rec.Body.String())
	if destMatch == nil || paramsMatch == nil {
		t.Fatalf("confirmation page missing tokens:\n%s", rec.Body.String())
	}

	form := url.Values{"destination": {destMatch[1]}, "params": {paramsMatch[1]}}
	req := httptest.NewRequest("POST", "/t/a/b.ipynb", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("commit status: %d\n%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.jupyter" {
		t.Fatalf("unexpected content type: %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="b.ipynb"`) {
		t.Fatalf("unexpected disposition: %s", cd)
	}
	if !strings.Contains(rec.Body.String(), `"x = 1\n"`) {
		t.Fatalf("download missing injected parameter cell:\n%s", rec.Body.String())
	}
}

func TestUnknownTemplateRendersErrorView(t *testing.T) {
	h := newTestServer(t, nil, "a/b.ipynb")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/t/nope.ipynb", nil))
	if rec.Code != 404 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Error 13") {
		t.Fatalf("expected error code 13 in view:\n%s", rec.Body.String())
	}
}

func TestMalformedParamsJSONIsIgnored(t *testing.T) {
	h := newTestServer(t, nil, "a/b.ipynb")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/t/a/b.ipynb?params="+url.QueryEscape(`{"x": `), nil))
	if rec.Code != 200 {
		t.Fatalf("malformed optional params must not fail the request: %d\n%s", rec.Code, rec.Body.String())
	}
}

func TestMissingParameterRendersNamedError(t *testing.T) {
	h := newTestServer(t, nil, "report_{month}.ipynb")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/t/report_{month}.ipynb", nil))
	if rec.Code != 400 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "month") || !strings.Contains(body, "Error 15") {
		t.Fatalf("expected named missing parameter with code 15:\n%s", body)
	}
}

func TestTamperedTokenRendersRetryError(t *testing.T) {
	h := newTestServer(t, nil, "a.ipynb")
	form := url.Values{"destination": {"bogus.token.value"}, "params": {"bogus.token.value"}}
	req := httptest.NewRequest("POST", "/t/a.ipynb", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 400 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Error 2") {
		t.Fatalf("expected error code 2:\n%s", rec.Body.String())
	}
}

func TestSessionGateRedirectsAndLoginWorks(t *testing.T) {
	codec := token.NewCodec([]byte("secret"))
	sessions := &auth.Sessions{Codec: codec, Users: []string{"alice"}}
	h := newTestServer(t, sessions, "a.ipynb")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != 302 || !strings.HasPrefix(rec.Header().Get("Location"), "/login/") {
		t.Fatalf("expected redirect to login, got %d %s", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/login/alice?next=/", nil))
	if rec.Code != 302 {
		t.Fatalf("login status: %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected session cookie")
	}

	req := httptest.NewRequest("GET", "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("authenticated request status: %d", rec.Code)
	}
}
