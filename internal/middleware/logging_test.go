package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type statusCounter struct {
	codes []int
}

func (s *statusCounter) RecordHTTPStatus(code int) { s.codes = append(s.codes, code) }

func parseLog(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	return entry
}

func TestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	counter := &statusCounter{}

	handler := NewLoggingMiddleware(logger, counter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/ilanlar", nil)
	req = req.WithContext(ContextWithAccountID(req.Context(), "acc-1"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entry := parseLog(t, &buf)
	if entry["method"] != "GET" || entry["path"] != "/api/ilanlar" {
		t.Errorf("entry = %v", entry)
	}
	if entry["status"] != float64(200) {
		t.Errorf("status = %v, want 200", entry["status"])
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("duration_ms missing")
	}
	if entry["account_id"] != "acc-1" {
		t.Errorf("account_id = %v", entry["account_id"])
	}
	if len(counter.codes) != 1 || counter.codes[0] != 200 {
		t.Errorf("recorded = %v", counter.codes)
	}
}

func TestLoggingMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusCreated, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		handler := NewLoggingMiddleware(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/auth/login", nil))

		entry := parseLog(t, &buf)
		if entry["level"] != tt.level {
			t.Errorf("status %d: level = %v, want %s", tt.status, entry["level"], tt.level)
		}
		if _, ok := entry["account_id"]; ok {
			t.Error("account_id must be omitted for anonymous requests")
		}
	}
}

func TestLoggingMiddleware_RoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(NewLoggingMiddleware(logger, nil))
	r.Get("/api/ilanlar/{slug}", func(w http.ResponseWriter, r *http.Request) {})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/ilanlar/garson-izmir", nil))

	entry := parseLog(t, &buf)
	if entry["route"] != "/api/ilanlar/{slug}" {
		t.Errorf("route = %v, want /api/ilanlar/{slug}", entry["route"])
	}
	if entry["path"] != "/api/ilanlar/garson-izmir" {
		t.Errorf("path = %v", entry["path"])
	}
}

func TestLoggingMiddleware_HealthAndMetricsAtDebug(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantLog bool
	}{
		{"成功は出力しない", http.StatusOK, false},
		{"失敗は出力する", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			counter := &statusCounter{}
			handler := NewLoggingMiddleware(logger, counter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("logged = %v, want %v (%s)", got, tt.wantLog, buf.String())
			}
			if len(counter.codes) != 1 {
				t.Errorf("status should always be recorded, got %v", counter.codes)
			}
		})
	}
}
