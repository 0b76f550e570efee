package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type mockSessionDeleter struct {
	mu      sync.Mutex
	calls   int
	gotNow  time.Time
	deleted int64
	err     error
}

func (m *mockSessionDeleter) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.gotNow = now
	return m.deleted, m.err
}

func (m *mockSessionDeleter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockRecorder struct {
	total int64
}

func (r *mockRecorder) RecordSessionsCleaned(n int64) { r.total += n }

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func TestCleanupJob_Run_DeletesExpiredSessions(t *testing.T) {
	var buf bytes.Buffer
	sessions := &mockSessionDeleter{deleted: 4}
	recorder := &mockRecorder{}
	job := NewCleanupJob(sessions, recorder, newTestLogger(&buf))
	fixed := time.Date(2026, 5, 1, 3, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return fixed }

	n, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 || recorder.total != 4 {
		t.Errorf("deleted = %d, recorded = %d, want 4", n, recorder.total)
	}
	if !sessions.gotNow.Equal(fixed) {
		t.Errorf("now = %v, want %v", sessions.gotNow, fixed)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid log: %v", err)
	}
	if entry["deleted_count"] != float64(4) {
		t.Errorf("deleted_count = %v", entry["deleted_count"])
	}
}

func TestCleanupJob_Run_Error(t *testing.T) {
	var buf bytes.Buffer
	recorder := &mockRecorder{}
	job := NewCleanupJob(&mockSessionDeleter{err: errors.New("connection reset")}, recorder, newTestLogger(&buf))

	if _, err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if recorder.total != 0 {
		t.Error("nothing should be recorded on failure")
	}
	if !strings.Contains(buf.String(), "connection reset") {
		t.Errorf("error not logged: %s", buf.String())
	}
}

func TestCleanupJob_Run_NilRecorder(t *testing.T) {
	job := NewCleanupJob(&mockSessionDeleter{}, nil, nil)
	if _, err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScheduler_RunsOnStart(t *testing.T) {
	var buf bytes.Buffer
	sessions := &mockSessionDeleter{}
	s := NewScheduler(NewCleanupJob(sessions, nil, newTestLogger(&buf)), "")
	if s.spec != DefaultSchedule {
		t.Errorf("spec = %q, want default", s.spec)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for sessions.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s.Stop()

	if sessions.callCount() == 0 {
		t.Error("job should run once at start")
	}
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler(NewCleanupJob(&mockSessionDeleter{}, nil, nil), "her zaman")
	if err := s.Start(context.Background()); err == nil {
		t.Error("expected error for invalid schedule")
	}
}
