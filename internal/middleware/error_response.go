package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/istihdam/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 検証エラーでは対象フィールドも返す。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
	Field    string `json:"field,omitempty"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
		Field:    apiErr.Field,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録する。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// RouteNotFoundHandler は未定義のパスに統一フォーマットの404を返す。
func RouteNotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteErrorResponse(w, http.StatusNotFound, &model.APIError{
		Code:     model.ErrCodeNotFound,
		Message:  "パスが見つかりません: " + r.URL.Path,
		Category: "request",
		Action:   "URLを確認してください。",
	})
}

// MethodNotAllowedHandler は許可されていないメソッドに統一フォーマットの405を返す。
func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	WriteErrorResponse(w, http.StatusMethodNotAllowed, &model.APIError{
		Code:     "METHOD_NOT_ALLOWED",
		Message:  r.Method + " はこのパスでは使用できません。",
		Category: "request",
		Action:   "HTTPメソッドを確認してください。",
	})
}
