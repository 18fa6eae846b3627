package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andikurnia/fotoprint-backend/pkg/config"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func healthTestConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}

func TestHealthLive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()
	HealthLive(healthTestConfig())(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
	if w.Header().Get("X-FotoPrint-Env") != "test" {
		t.Fatal("env header missing")
	}
}

func TestHealthReadyAllHealthy(t *testing.T) {
	probes := map[string]Pinger{
		"db":    stubPinger{},
		"redis": stubPinger{},
	}

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	w := httptest.NewRecorder()
	HealthReady(healthTestConfig(), nil, probes)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
}

func TestHealthReadyReportsFailures(t *testing.T) {
	probes := map[string]Pinger{
		"db":    stubPinger{},
		"redis": stubPinger{err: errors.New("connection refused")},
	}

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	w := httptest.NewRecorder()
	HealthReady(healthTestConfig(), nil, probes)(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 but got %d", w.Code)
	}
}
