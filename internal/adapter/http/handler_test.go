package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func serveProbe(t *testing.T, h *Handler, probe func(*Handler, echo.Context) error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if err := probe(h, c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
		t.Fatalf("content-type=%q", ct)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v; raw=%s", err, rec.Body.String())
	}
	return rec, body
}

func TestHealth_ReportsUTCTime(t *testing.T) {
	start := time.Now().UTC()
	rec, body := serveProbe(t, NewHandler(), (*Handler).Health)

	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("code=%d body=%v", rec.Code, body)
	}
	ts, _ := body["time"].(string)
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		t.Fatalf("time %q not RFC3339Nano: %v", ts, err)
	}
	if !strings.HasSuffix(ts, "Z") {
		t.Fatalf("time not UTC: %q", ts)
	}
	if parsed.Before(start.Add(-2*time.Second)) || parsed.After(time.Now().Add(2*time.Second)) {
		t.Fatalf("time outside window: %v", parsed)
	}
}

func TestReady(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp 10.0.0.7:6379: connection refused") }

	tests := []struct {
		name   string
		checks map[string]Check
		code   int
		status string
	}{
		{"no checks", nil, http.StatusOK, "ok"},
		{"all up", map[string]Check{"mysql": up, "redis": up}, http.StatusOK, "ok"},
		{"redis down", map[string]Check{"mysql": up, "redis": down}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler()
			for name, fn := range tc.checks {
				h.WithCheck(name, fn)
			}
			rec, body := serveProbe(t, h, (*Handler).Ready)
			if rec.Code != tc.code || body["status"] != tc.status {
				t.Fatalf("code=%d body=%v", rec.Code, body)
			}
			deps, _ := body["dependencies"].(map[string]any)
			if len(deps) != len(tc.checks) {
				t.Fatalf("dependencies=%v", deps)
			}
			if tc.code != http.StatusOK {
				if deps["redis"] != "unavailable" || deps["mysql"] != "ok" {
					t.Fatalf("dependencies=%v", deps)
				}
				if strings.Contains(rec.Body.String(), "10.0.0.7") {
					t.Fatalf("readiness leaked error text: %s", rec.Body.String())
				}
			}
		})
	}
}
