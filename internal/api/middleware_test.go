package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func TestRequestIDResponse(t *testing.T) {
	env := newTestEnv(t)
	w := env.get(t, "/health")
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("X-Request-ID header missing from response")
	}
}

func TestContentTypeJSON(t *testing.T) {
	env := newTestEnv(t)
	w := env.get(t, "/conformance")
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type: %q", ct)
	}
}

func TestRecovery(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Recovery(discardLogger()))
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["code"] != "ServerError" {
		t.Errorf("unexpected error code: %v", body["code"])
	}
}

func TestNotFoundRoute(t *testing.T) {
	env := newTestEnv(t)
	w := env.get(t, "/does-not-exist")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["code"] != "NotFound" {
		t.Errorf("unexpected error code: %v", body["code"])
	}
}
