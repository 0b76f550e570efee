// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/istihdam/internal/middleware"
	"github.com/hitoshi/istihdam/internal/model"
)

// dateLayout はリクエスト・レスポンスで使う日付形式。
const dateLayout = "2006-01-02"

// defaultPageSize は一覧の既定件数。
const defaultPageSize = 20

var validate = newValidator()

// newValidator はJSONタグ名でエラーフィールドを報告するvalidatorを生成する。
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// listResponse は一覧APIの共通レスポンス。
type listResponse[T any] struct {
	Items  []T    `json:"items"`
	Total  int    `json:"total"`
	Limit  uint64 `json:"limit"`
	Offset uint64 `json:"offset"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeValidation, model.ErrCodeOutOfRange, model.ErrCodeInvalidURL, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeUniqueViolation:
		return http.StatusConflict
	case model.ErrCodeInvalidTransition, model.ErrCodeApplicationClosed:
		return http.StatusConflict
	case model.ErrCodeAccountTypeMismatch, model.ErrCodeForbidden, model.ErrCodeSSRFBlocked:
		return http.StatusForbidden
	case model.ErrCodeInvalidCredentials, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeAndValidate はリクエストボディをデコードし、validateタグで検証する。
// 失敗時はエラーレスポンスを書き込んでfalseを返す。
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, validationToAPIError(err))
		return false
	}
	return true
}

// validationToAPIError はvalidatorのエラーを最初のフィールドのVALIDATION_FAILEDに変換する。
func validationToAPIError(err error) *model.APIError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return model.NewInvalidRequestError()
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return model.NewValidationError(field, "必須項目です")
	case "max":
		return model.NewValidationError(field, fmt.Sprintf("%s文字以内で入力してください", fe.Param()))
	case "min":
		return model.NewValidationError(field, fmt.Sprintf("%s以上で入力してください", fe.Param()))
	case "email":
		return model.NewValidationError(field, "メールアドレスの形式が正しくありません")
	case "oneof":
		return model.NewValidationError(field, fmt.Sprintf("次のいずれかを指定してください: %s", fe.Param()))
	case "datetime":
		return model.NewValidationError(field, "日付はYYYY-MM-DD形式で指定してください")
	case "eqfield":
		return model.NewValidationError(field, "確認用の値が一致しません")
	default:
		return model.NewValidationError(field, "入力値が不正です")
	}
}

// parseDate はYYYY-MM-DD形式の日付を解析する。空文字はnil。
func parseDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, model.NewValidationError(field, "日付はYYYY-MM-DD形式で指定してください")
	}
	return &t, nil
}

// formatDate は日付をYYYY-MM-DD形式にする。nilは空文字。
func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

// pageParams はlimit・offsetクエリを解析する。limitはmaxで頭打ちにする。
func pageParams(r *http.Request, max int) (uint64, uint64) {
	limit := uint64(defaultPageSize)
	if v, err := strconv.ParseUint(r.URL.Query().Get("limit"), 10, 64); err == nil && v > 0 {
		limit = v
	}
	if max > 0 && limit > uint64(max) {
		limit = uint64(max)
	}
	var offset uint64
	if v, err := strconv.ParseUint(r.URL.Query().Get("offset"), 10, 64); err == nil {
		offset = v
	}
	return limit, offset
}

// boolParam は"true"/"false"のクエリを*boolとして解析する。その他はnil。
func boolParam(r *http.Request, key string) *bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	if err != nil {
		return nil
	}
	return &v
}

// optionalString は空文字をnilに変換する。
func optionalString(s string) *string {
	return model.StringPtr(strings.TrimSpace(s))
}

// requireAccountID はセッションのアカウントIDを返す。ない場合は401を書き込む。
func requireAccountID(w http.ResponseWriter, r *http.Request) (string, bool) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return "", false
	}
	return accountID, true
}
