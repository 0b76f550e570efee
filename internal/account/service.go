// Package account はアカウント登録・ログイン・セッション管理を提供する。
package account

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/istihdam/internal/model"
	"github.com/hitoshi/istihdam/internal/repository"
)

const (
	// MinPasswordLength はパスワードの最小文字数。
	MinPasswordLength = 8
	// MaxPasswordBytes はbcryptが扱えるパスワードの最大バイト数。
	MaxPasswordBytes = 72
)

// ServiceConfig はアカウントサービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
	BcryptCost    int // 0の場合はbcrypt.DefaultCost
}

// RegisterInput は会員登録の入力。
type RegisterInput struct {
	Username        string
	Password        string
	PasswordConfirm string
	Email           string
	FirstName       string
	LastName        string
	AccountType     string
}

// ProfileInput はプロフィール更新の入力。
// AccountTypeが指定され現在の種別と異なる場合は拒否する。
type ProfileInput struct {
	FirstName   string
	LastName    string
	Email       string
	AccountType string
}

// Service はアカウントに関するビジネスロジックを提供する。
type Service struct {
	accountRepo repository.AccountRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	accountRepo repository.AccountRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		accountRepo: accountRepo,
		sessionRepo: sessionRepo,
		config:      config,
		now:         time.Now,
	}
}

func validatePassword(password, confirm string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return model.NewValidationError("password", fmt.Sprintf("パスワードは%d文字以上で入力してください", MinPasswordLength))
	}
	// 文字数ではなくバイト数で判定する（トルコ語の文字は2バイトになる）
	if len(password) > MaxPasswordBytes {
		return model.NewValidationError("password", fmt.Sprintf("パスワードは%dバイト以内で入力してください", MaxPasswordBytes))
	}
	if password != confirm {
		return model.NewValidationError("password_confirm", "パスワードが一致しません")
	}
	return nil
}

// Register はアカウントを作成する。
// アカウント種別の省略時は市民として登録する。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.Account, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, model.NewValidationError("username", "ユーザー名は必須です")
	}
	if err := validatePassword(in.Password, in.PasswordConfirm); err != nil {
		return nil, err
	}
	accountType, ok := model.ParseAccountType(in.AccountType)
	if !ok {
		return nil, model.NewValidationError("account_type", "アカウント種別が不正です")
	}

	return s.create(ctx, &model.Account{
		Username:    username,
		Email:       model.NormalizeEmail(in.Email),
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		AccountType: accountType,
		IsActive:    true,
	}, in.Password)
}

// CreateAdmin はスタッフ権限を持つ管理者アカウントを作成する。
func (s *Service) CreateAdmin(ctx context.Context, username, password string) (*model.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, model.NewValidationError("username", "ユーザー名は必須です")
	}
	if err := validatePassword(password, password); err != nil {
		return nil, err
	}

	return s.create(ctx, &model.Account{
		Username:    username,
		AccountType: model.AccountTypeCitizen,
		IsStaff:     true,
		IsSuperuser: true,
		IsActive:    true,
	}, password)
}

func (s *Service) create(ctx context.Context, account *model.Account, password string) (*model.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	account.ID = uuid.New().String()
	account.PasswordHash = string(hash)
	account.CreatedAt = now
	account.UpdatedAt = now

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("account created",
		slog.String("account_id", account.ID),
		slog.String("account_type", string(account.AccountType)),
		slog.Bool("is_staff", account.IsStaff),
	)
	return account, nil
}

// Login はユーザー名とパスワードを検証し、セッションを発行する。
// ユーザー名の存在有無は応答から判別できないようにする。
func (s *Service) Login(ctx context.Context, username, password string) (*model.Session, *model.Account, error) {
	account, err := s.accountRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil || !account.IsActive {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	err = bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return nil, nil, model.NewInvalidCredentialsError()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to verify password: %w", err)
	}

	session, err := s.createSession(ctx, account.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	now := s.now()
	if err := s.accountRepo.UpdateLastLogin(ctx, account.ID, now); err != nil {
		// ログイン自体は成立しているため警告に留める
		slog.Warn("failed to record last login",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	} else {
		account.LastLoginAt = &now
	}

	slog.Info("account logged in", slog.String("account_id", account.ID))
	return session, account, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}
	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// GetAccount は指定IDのアカウントを取得する。
func (s *Service) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, model.NewNotFoundError("アカウント", id)
	}
	return account, nil
}

// UpdateProfile は姓名とメールアドレスを更新する。
// アカウント種別は作成後に変更できない。
func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*model.Account, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.AccountType != "" && model.AccountType(in.AccountType) != account.AccountType {
		return nil, model.NewValidationError("account_type", "アカウント種別は変更できません")
	}

	account.FirstName = strings.TrimSpace(in.FirstName)
	account.LastName = strings.TrimSpace(in.LastName)
	account.Email = model.NormalizeEmail(in.Email)
	account.UpdatedAt = s.now()

	if err := s.accountRepo.UpdateProfile(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return account, nil
}

// Delete はアカウントを削除する。
// セッションを先に破棄し、市民プロフィールはCASCADE削除、所有企業は所有者なしで残る。
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.GetAccount(ctx, id); err != nil {
		return err
	}
	if err := s.sessionRepo.DeleteByAccountID(ctx, id); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}
	if err := s.accountRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("アカウントの削除に失敗しました: %w", err)
	}
	slog.Info("account deleted", slog.String("account_id", id))
	return nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, accountID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	session := &model.Session{
		ID:        sessionID,
		AccountID: accountID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
