package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubChecker struct {
	err error
}

func (s *stubChecker) HealthCheck(_ context.Context) error { return s.err }

func TestHealth(t *testing.T) {
	h := NewHealthHandlers(HealthHandlersConfig{})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", body["status"])
	}
	if body["timestamp"] == nil {
		t.Error("expected timestamp in response")
	}
}

func TestReadyWithoutCheckers(t *testing.T) {
	h := NewHealthHandlers(HealthHandlersConfig{})

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest("GET", "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if decodeBody(t, rec)["status"] != "healthy" {
		t.Error("expected healthy status with no configured dependencies")
	}
}

func TestReadyAllHealthy(t *testing.T) {
	h := NewHealthHandlers(HealthHandlersConfig{
		DBChecker:    &stubChecker{},
		RedisChecker: &stubChecker{},
	})

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest("GET", "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	checks, _ := decodeBody(t, rec)["checks"].(map[string]any)
	if checks["database"] != "ok" || checks["redis"] != "ok" {
		t.Errorf("expected all checks ok, got %v", checks)
	}
}

func TestReadyDatabaseDown(t *testing.T) {
	h := NewHealthHandlers(HealthHandlersConfig{
		DBChecker:    &stubChecker{err: errors.New("connection refused")},
		RedisChecker: &stubChecker{},
	})

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest("GET", "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "unhealthy" {
		t.Errorf("expected unhealthy status, got %v", body["status"])
	}
	checks, _ := body["checks"].(map[string]any)
	if checks["database"] != "error" {
		t.Errorf("expected database check error, got %v", checks)
	}
	if checks["redis"] != "ok" {
		t.Errorf("redis check should still be ok, got %v", checks)
	}
}

func TestHealthRejectsPost(t *testing.T) {
	h := NewHealthHandlers(HealthHandlersConfig{})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest("POST", "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest("POST", "/ready", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
