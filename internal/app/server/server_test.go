package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"thodemy/internal/domain/audit"
	"thodemy/internal/domain/auth"
	"thodemy/internal/domain/evaluation"
	"thodemy/internal/platform/config"
	"thodemy/internal/platform/metrics"
)

func testRouter(ready func(context.Context) error) http.Handler {
	cfg := config.Config{
		JWTSecret:          "test-secret",
		Environment:        "development",
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 60,
		MetricsEnabled:     true,
		CORSOrigins:        []string{"https://admin.example.com"},
	}
	return NewRouter(Deps{
		Config:      cfg,
		Ready:       ready,
		Auth:        auth.NewService(nil, cfg.JWTSecret, time.Hour),
		Evaluations: evaluation.NewService(nil, nil),
		Audit:       audit.New(nil),
		Metrics:     metrics.New(),
	})
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndReadiness(t *testing.T) {
	router := testRouter(func(context.Context) error { return nil })
	if rec := get(router, "/healthz"); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(router, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", rec.Code)
	}

	down := testRouter(func(context.Context) error { return errors.New("db down") })
	if rec := get(down, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestAdminRoutesRequireAuthentication(t *testing.T) {
	router := testRouter(nil)
	rec := get(router, "/api/admin/evaluations")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" || rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("expected request id and security headers, got %v", rec.Header())
	}
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	router := testRouter(nil)
	get(router, "/healthz")
	rec := get(router, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"requestsTotal":1`) {
		t.Fatalf("expected one counted request before the metrics call, got %s", rec.Body.String())
	}
}
