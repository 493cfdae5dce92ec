package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runSecured(t *testing.T, method, path string, handler echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, SecurityHeaders()(handler)(c)
}

func TestSecurityHeaders_AppliesFullSet(t *testing.T) {
	rec, err := runSecured(t, http.MethodGet, "/api/v1/admissions", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("admission responses must not be cacheable")
	}
	for name, want := range hardenedHeaders {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("header %s: got %q, want %q", name, got, want)
		}
	}
}

func TestSecurityHeaders_HandlerRunsNormally(t *testing.T) {
	called := false
	_, err := runSecured(t, http.MethodPost, "/api/v1/facilities", func(c echo.Context) error {
		called = true
		return c.String(http.StatusCreated, "created")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
}

func TestSecurityHeaders_SetEvenWhenHandlerFails(t *testing.T) {
	rec, err := runSecured(t, http.MethodGet, "/api/v1/admissions/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "admission not found")
	})

	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", httpErr.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("headers must be present on error responses too")
	}
}
