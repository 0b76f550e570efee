package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/istihdam/internal/account"
	"github.com/hitoshi/istihdam/internal/middleware"
	"github.com/hitoshi/istihdam/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in account.RegisterInput) (*model.Account, error)
	Login(ctx context.Context, username, password string) (*model.Session, *model.Account, error)
	Logout(ctx context.Context, sessionID string) error
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	UpdateProfile(ctx context.Context, id string, in account.ProfileInput) (*model.Account, error)
	Delete(ctx context.Context, id string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler は会員登録・ログイン関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

type registerRequest struct {
	Username        string `json:"username" validate:"required,max=150"`
	Password        string `json:"password" validate:"required,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
	Email           string `json:"email" validate:"omitempty,email,max=254"`
	FirstName       string `json:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" validate:"max=150"`
	AccountType     string `json:"account_type" validate:"omitempty,oneof=firma vatandas belediye"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type accountUpdateRequest struct {
	FirstName   string `json:"first_name" validate:"max=150"`
	LastName    string `json:"last_name" validate:"max=150"`
	Email       string `json:"email" validate:"omitempty,email,max=254"`
	AccountType string `json:"account_type"`
}

// Register は会員登録を行う。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	acc, err := h.service.Register(r.Context(), account.RegisterInput{
		Username:        req.Username,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		AccountType:     req.AccountType,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(acc))
}

// Login はユーザー名とパスワードで認証し、セッションCookieを発行する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, acc, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID, h.config.SessionMaxAge)
	writeJSON(w, http.StatusOK, toAccountResponse(acc))
}

// Logout はセッションを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			// ログアウト失敗してもCookieはクリアする
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
		}
	}

	h.setSessionCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインアカウント情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountID(w, r)
	if !ok {
		return
	}

	acc, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(acc))
}

// UpdateAccount はログイン中のアカウントの姓名とメールアドレスを更新する。
// PUT /api/me/account
func (h *AuthHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountID(w, r)
	if !ok {
		return
	}

	var req accountUpdateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	acc, err := h.service.UpdateProfile(r.Context(), accountID, account.ProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		AccountType: req.AccountType,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(acc))
}

// DeleteAccount はログイン中のアカウントを削除し、セッションCookieをクリアする。
// DELETE /api/me/account
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), accountID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// setSessionCookie はセッションCookieを設定する。maxAgeが負の場合は削除する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
