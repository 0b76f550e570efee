// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, conflict, domain, system
	Action   string // ユーザー向け対処方法
	Field    string // 検証エラーの対象フィールド（フィールド単位のエラーのみ）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeValidation          = "VALIDATION_FAILED"
	ErrCodeOutOfRange          = "OUT_OF_RANGE"
	ErrCodeUniqueViolation     = "UNIQUE_VIOLATION"
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodeAccountTypeMismatch = "ACCOUNT_TYPE_MISMATCH"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInvalidURL          = "INVALID_URL"
	ErrCodeSSRFBlocked         = "SSRF_BLOCKED"
	ErrCodeFetchFailed         = "FETCH_FAILED"
	ErrCodeApplicationClosed   = "APPLICATION_CLOSED"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
)

// NewNotFoundError は対象エンティティ未検出エラーを生成する。
func NewNotFoundError(entity, id string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("%sが見つかりません: %s", entity, id),
		Category: "domain",
		Action:   "IDまたはslugを確認してください。",
	}
}

// NewValidationError はフィールド単位の検証エラーを生成する。
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  reason,
		Category: "validation",
		Action:   "入力内容を確認してください。",
		Field:    field,
	}
}

// NewOutOfRangeError は数値範囲外エラーを生成する。
// 対象フィールドと許容範囲をメッセージに含める。
func NewOutOfRangeError(field string, min, max, got int) *APIError {
	return &APIError{
		Code:     ErrCodeOutOfRange,
		Message:  fmt.Sprintf("%d は許容範囲外です（%d〜%d）", got, min, max),
		Category: "validation",
		Action:   fmt.Sprintf("%d から %d の範囲で指定してください。", min, max),
		Field:    field,
	}
}

// NewUniqueViolationError は一意制約違反エラーを生成する。
// constraintにはストレージ層の制約名を渡す。
func NewUniqueViolationError(constraint string) *APIError {
	return &APIError{
		Code:     ErrCodeUniqueViolation,
		Message:  fmt.Sprintf("同じ値のレコードが既に存在します（%s）", constraint),
		Category: "conflict",
		Action:   "名前またはslugを変更してから再度登録してください。",
		Field:    constraint,
	}
}

// NewInvalidTransitionError は許可されていない状態遷移のエラーを生成する。
func NewInvalidTransitionError(from, to string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTransition,
		Message:  fmt.Sprintf("ステータスを %s から %s に変更できません。", from, to),
		Category: "domain",
		Action:   "許可された遷移先を指定してください。",
		Field:    "status",
	}
}

// NewAccountTypeMismatchError はアカウント種別が操作と一致しない場合のエラーを生成する。
func NewAccountTypeMismatchError(want AccountType) *APIError {
	return &APIError{
		Code:     ErrCodeAccountTypeMismatch,
		Message:  fmt.Sprintf("この操作には %s 種別のアカウントが必要です。", want),
		Category: "auth",
		Action:   "適切な種別のアカウントでログインしてください。",
		Field:    "account_type",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者アカウントでログインしてください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(field, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
		Field:    field,
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを入力してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}

// NewFetchFailedError は外部取得失敗エラーを生成する。
func NewFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("URLの取得に失敗しました: %s", reason),
		Category: "domain",
		Action:   "URLが正しいか確認し、しばらく待ってから再度お試しください。",
	}
}

// NewApplicationClosedError は応募受付外の求人への応募エラーを生成する。
func NewApplicationClosedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeApplicationClosed,
		Message:  fmt.Sprintf("この求人は現在応募を受け付けていません: %s", reason),
		Category: "domain",
		Action:   "公開中かつ応募期間内の求人を選択してください。",
	}
}

// NewInvalidRequestError はリクエストボディ解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}
