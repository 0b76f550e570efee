// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/istihdam/internal/model"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "sessionid"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var accountIDContextKey = contextKey("account_id")

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// AccountFinder はアカウントの検索に必要なインターフェース。
type AccountFinder interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
}

// NewSessionMiddleware はCookieからセッションを読み取り、
// 有効なセッションのアカウントIDをリクエストコンテキストに注入する。
// 未認証リクエストには401を返す。
func NewSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID, ok := resolveSession(r, sessionFinder)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithAccountID(r.Context(), accountID)))
		})
	}
}

// NewOptionalSessionMiddleware は有効なセッションがあればアカウントIDを注入し、
// なければそのまま通過させる。公開ルートのログとレート制限に使う。
func NewOptionalSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if accountID, ok := resolveSession(r, sessionFinder); ok {
				r = r.WithContext(ContextWithAccountID(r.Context(), accountID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveSession(r *http.Request, sessionFinder SessionFinder) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	session, err := sessionFinder.FindByID(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to find session", slog.String("error", err.Error()))
		return "", false
	}
	if session == nil {
		return "", false
	}
	return session.AccountID, true
}

// NewRequireStaffMiddleware はスタッフ権限を持つ有効なアカウントのみを通過させる。
// SessionMiddlewareの後に配置する。
func NewRequireStaffMiddleware(accounts AccountFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID, err := AccountIDFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			account, err := accounts.FindByID(r.Context(), accountID)
			if err != nil {
				slog.Error("failed to find account", slog.String("error", err.Error()))
				WriteInternalServerError(w)
				return
			}
			if account == nil || !account.IsActive || !account.IsStaff {
				slog.Warn("staff route denied",
					slog.String("account_id", accountID),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AccountIDFromContext はリクエストコンテキストからアカウントIDを取得する。
func AccountIDFromContext(ctx context.Context) (string, error) {
	accountID, ok := ctx.Value(accountIDContextKey).(string)
	if !ok || accountID == "" {
		return "", fmt.Errorf("account ID not found in context")
	}
	return accountID, nil
}

// ContextWithAccountID はコンテキストにアカウントIDを注入する。
func ContextWithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDContextKey, accountID)
}
