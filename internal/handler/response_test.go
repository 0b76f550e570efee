package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/istihdam/internal/middleware"
	"github.com/hitoshi/istihdam/internal/model"
)

// --- テストヘルパー ---

// withAccount はセッションミドルウェア通過後と同じコンテキストを持つリクエストを返す。
func withAccount(r *http.Request, accountID string) *http.Request {
	return r.WithContext(middleware.ContextWithAccountID(r.Context(), accountID))
}

// withURLParams はchiのURLパラメータを設定したリクエストを返す。
func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response: %v (body=%s)", err, w.Body.String())
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	decodeBody(t, w, &body)
	return body
}

// --- テスト ---

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *model.APIError
		want int
	}{
		{model.NewNotFoundError("求人", "x"), http.StatusNotFound},
		{model.NewValidationError("name", "x"), http.StatusBadRequest},
		{model.NewOutOfRangeError("score", 1, 10, 11), http.StatusBadRequest},
		{model.NewUniqueViolationError("x"), http.StatusConflict},
		{model.NewInvalidTransitionError("taslak", "sonlandi"), http.StatusConflict},
		{model.NewApplicationClosedError("x"), http.StatusConflict},
		{model.NewAccountTypeMismatchError(model.AccountTypeCitizen), http.StatusForbidden},
		{model.NewSSRFBlockedError(), http.StatusForbidden},
		{model.NewInvalidCredentialsError(), http.StatusUnauthorized},
		{model.NewFetchFailedError("x"), http.StatusBadGateway},
		{&model.APIError{Code: "UNKNOWN"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if got := mapAPIErrorToHTTPStatus(tt.err); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHandleServiceError_WrappedAPIError(t *testing.T) {
	w := httptest.NewRecorder()
	handleServiceError(w, errors.Join(errors.New("context"), model.NewNotFoundError("企業", "abc")))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHandleServiceError_InternalErrorHidesDetail(t *testing.T) {
	w := httptest.NewRecorder()
	handleServiceError(w, errors.New("pq: connection refused"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	body := decodeError(t, w)
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %s", body.Code)
	}
}

func TestPageParams(t *testing.T) {
	tests := []struct {
		query      string
		max        int
		wantLimit  uint64
		wantOffset uint64
	}{
		{"", 100, defaultPageSize, 0},
		{"limit=5&offset=10", 100, 5, 10},
		{"limit=500", 100, 100, 0},
		{"limit=abc&offset=-1", 100, defaultPageSize, 0},
		{"limit=0", 0, defaultPageSize, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			limit, offset := pageParams(r, tt.max)
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("got (%d, %d), want (%d, %d)", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestBoolParam(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?a=true&b=false&c=belki", nil)
	if v := boolParam(r, "a"); v == nil || !*v {
		t.Errorf("a = %v", v)
	}
	if v := boolParam(r, "b"); v == nil || *v {
		t.Errorf("b = %v", v)
	}
	if v := boolParam(r, "c"); v != nil {
		t.Errorf("c = %v, want nil", *v)
	}
	if v := boolParam(r, "d"); v != nil {
		t.Errorf("d = %v, want nil", *v)
	}
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("birth_date", "1990-04-23")
	if err != nil || d == nil || formatDate(d) != "1990-04-23" {
		t.Fatalf("parseDate = %v, %v", d, err)
	}
	if d, err := parseDate("birth_date", ""); d != nil || err != nil {
		t.Errorf("empty date = %v, %v", d, err)
	}
	_, err = parseDate("birth_date", "23.04.1990")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Field != "birth_date" {
		t.Errorf("expected birth_date validation error, got %v", err)
	}
	if formatDate(nil) != "" {
		t.Error("formatDate(nil) must be empty")
	}
}

func TestRequireAccountID(t *testing.T) {
	w := httptest.NewRecorder()
	if _, ok := requireAccountID(w, httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Fatal("expected missing account")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	id, ok := requireAccountID(w, withAccount(httptest.NewRequest(http.MethodGet, "/", nil), "acc-9"))
	if !ok || id != "acc-9" {
		t.Errorf("got %q, %v", id, ok)
	}
}
