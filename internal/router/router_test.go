package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"growthgate/internal/handlers"
	"growthgate/internal/middleware"
)

// testRouter builds a router with empty handler groups. Routes that hit
// the database are not exercised here; handler behavior is covered by
// the handlers package integration tests.
func testRouter(t *testing.T) http.Handler {
	t.Helper()

	limiter := middleware.NewRateLimiter(10, time.Minute)
	t.Cleanup(limiter.Stop)

	public := handlers.NewPublic(nil, nil, nil, nil, nil, nil, nil, "Growth4U")
	api := handlers.NewAPI(nil, nil, nil, nil, nil)
	operator := handlers.NewOperator(nil, nil, nil, nil)

	return New(public, api, operator, limiter, false)
}

func TestHealthRoute(t *testing.T) {
	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body: %s", rec.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
}

func TestDeviceCookieIssued(t *testing.T) {
	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.DeviceCookieName {
			if len(c.Value) != 32 {
				t.Errorf("device cookie length: got %d, want 32", len(c.Value))
			}
			return
		}
	}
	t.Error("no device cookie issued")
}

func TestSecurityHeadersApplied(t *testing.T) {
	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
}
