package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLimiter(t *testing.T, generalBurst, authBurst int) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     0.001,
		GeneralBurst:    generalBurst,
		AuthRate:        0.001,
		AuthBurst:       authBurst,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)
	return rl
}

func doRequest(h http.Handler, remoteAddr, accountID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/ilanlar", nil)
	req.RemoteAddr = remoteAddr
	if accountID != "" {
		req = req.WithContext(ContextWithAccountID(req.Context(), accountID))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGeneralMiddleware_LimitsPerAccount(t *testing.T) {
	rl := testLimiter(t, 2, 1)
	h := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		if w := doRequest(h, "10.0.0.1:5000", "acc-1"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}
	w := doRequest(h, "10.0.0.1:5000", "acc-1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if body := decodeError(t, w); body.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %q", body.Code)
	}

	// 同じIPでも別アカウントは独立
	if w := doRequest(h, "10.0.0.1:5000", "acc-2"); w.Code != http.StatusOK {
		t.Errorf("other account status = %d, want 200", w.Code)
	}
	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("limiters = %d, want 2", rl.GeneralLimiterCount())
	}
}

func TestGeneralMiddleware_AnonymousKeyedByIP(t *testing.T) {
	rl := testLimiter(t, 1, 1)
	h := rl.GeneralMiddleware()(okHandler())

	doRequest(h, "10.0.0.1:5000", "")
	if w := doRequest(h, "10.0.0.1:6000", ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("same IP different port: status = %d, want 429", w.Code)
	}
	if w := doRequest(h, "10.0.0.2:5000", ""); w.Code != http.StatusOK {
		t.Errorf("other IP: status = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_IndependentFromGeneral(t *testing.T) {
	rl := testLimiter(t, 5, 1)
	auth := rl.AuthMiddleware()(okHandler())
	general := rl.GeneralMiddleware()(okHandler())

	if w := doRequest(auth, "10.0.0.9:1", ""); w.Code != http.StatusOK {
		t.Fatalf("first login: %d", w.Code)
	}
	if w := doRequest(auth, "10.0.0.9:1", ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("second login: status = %d, want 429", w.Code)
	}
	if w := doRequest(general, "10.0.0.9:1", ""); w.Code != http.StatusOK {
		t.Errorf("general route must not share the auth budget: %d", w.Code)
	}
	if rl.AuthLimiterCount() != 1 {
		t.Errorf("auth limiters = %d", rl.AuthLimiterCount())
	}
}

func TestRateLimiter_CleanupRemovesStaleEntries(t *testing.T) {
	rl := testLimiter(t, 5, 5)
	h := rl.GeneralMiddleware()(okHandler())
	doRequest(h, "10.0.0.1:1", "acc-1")

	rl.cleanup(time.Now().Add(3 * time.Hour))
	if rl.GeneralLimiterCount() != 0 {
		t.Errorf("limiters = %d, want 0 after cleanup", rl.GeneralLimiterCount())
	}
}

func TestNewRateLimiterConfig(t *testing.T) {
	cfg := NewRateLimiterConfig(120, 10)
	if cfg.GeneralRate != 2 || cfg.GeneralBurst != 120 {
		t.Errorf("general = %v/%d", cfg.GeneralRate, cfg.GeneralBurst)
	}
	if cfg.AuthBurst != 10 {
		t.Errorf("AuthBurst = %d, want 10", cfg.AuthBurst)
	}
	if DefaultRateLimiterConfig() != cfg {
		t.Error("default config should be 120/10")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	if got := ClientIP(req); got != "2001:db8::1" {
		t.Errorf("ClientIP = %q", got)
	}
	req.RemoteAddr = "ciplak"
	if got := ClientIP(req); got != "ciplak" {
		t.Errorf("ClientIP = %q", got)
	}
}
