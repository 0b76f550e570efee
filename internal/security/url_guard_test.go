package security

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/istihdam/internal/model"
)

func errorCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	return apiErr.Code
}

func TestNewSafeClient_Timeout(t *testing.T) {
	client := NewURLGuard().NewSafeClient(3 * time.Second)
	if client.Timeout != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", client.Timeout)
	}
	if client.Transport == nil || client.Transport == http.DefaultTransport {
		t.Error("expected a custom transport")
	}
}

// httptestサーバーは127.0.0.1で待ち受けるため接続は拒否される
func TestNewSafeClient_BlocksLoopback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewURLGuard().NewSafeClient(2 * time.Second)
	if _, err := client.Get(ts.URL); err == nil {
		t.Fatal("expected loopback request to fail")
	}
}

func TestValidateURL_Public(t *testing.T) {
	guard := NewURLGuard()

	for _, u := range []string{
		"https://www.ornek.com.tr",
		"http://firma.example.org/hakkimizda",
		"https://93.184.216.34/",
	} {
		t.Run(u, func(t *testing.T) {
			if err := guard.ValidateURL("website", u); err != nil {
				t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
			}
		})
	}
}

func TestValidateURL_Rejected(t *testing.T) {
	guard := NewURLGuard()

	tests := []struct {
		url  string
		code string
	}{
		{"", model.ErrCodeInvalidURL},
		{"ftp://ornek.com", model.ErrCodeInvalidURL},
		{"javascript:alert(1)", model.ErrCodeInvalidURL},
		{"https://", model.ErrCodeInvalidURL},
		{"http://127.0.0.1/", model.ErrCodeSSRFBlocked},
		{"http://10.1.2.3/", model.ErrCodeSSRFBlocked},
		{"http://192.168.1.1/", model.ErrCodeSSRFBlocked},
		{"http://169.254.169.254/latest/meta-data", model.ErrCodeSSRFBlocked},
		{"http://[::1]/", model.ErrCodeSSRFBlocked},
		{"http://[::ffff:127.0.0.1]/", model.ErrCodeSSRFBlocked},
		{"http://localhost:8080/", model.ErrCodeSSRFBlocked},
		{"http://LOCALHOST./", model.ErrCodeSSRFBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := guard.ValidateURL("website", tt.url)
			if err == nil {
				t.Fatalf("ValidateURL(%q) = nil, want %s", tt.url, tt.code)
			}
			if got := errorCode(t, err); got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestValidateURL_CarriesField(t *testing.T) {
	err := NewURLGuard().ValidateURL("linkedin_url", "ftp://x")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Field != "linkedin_url" {
		t.Fatalf("expected field linkedin_url, got %v", err)
	}
}

func TestValidateOptionalURLs_SkipsEmpty(t *testing.T) {
	guard := NewURLGuard()

	err := ValidateOptionalURLs(guard, map[string]string{
		"website":      "",
		"linkedin_url": "https://linkedin.com/company/ornek",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = ValidateOptionalURLs(guard, map[string]string{"twitter_url": "http://localhost/"})
	if got := errorCode(t, err); got != model.ErrCodeSSRFBlocked {
		t.Errorf("code = %s, want SSRF_BLOCKED", got)
	}
}
