package account

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/istihdam/internal/model"
)

// --- モック定義 ---

type mockAccountRepo struct {
	createFn          func(ctx context.Context, a *model.Account) error
	findByIDFn        func(ctx context.Context, id string) (*model.Account, error)
	findByUsernameFn  func(ctx context.Context, username string) (*model.Account, error)
	updateProfileFn   func(ctx context.Context, a *model.Account) error
	updateLastLoginFn func(ctx context.Context, id string, at time.Time) error
	deleteByIDFn      func(ctx context.Context, id string) error
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockAccountRepo) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockAccountRepo) Create(ctx context.Context, a *model.Account) error {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	return nil
}

func (m *mockAccountRepo) UpdateProfile(ctx context.Context, a *model.Account) error {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, a)
	}
	return nil
}

func (m *mockAccountRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if m.updateLastLoginFn != nil {
		return m.updateLastLoginFn(ctx, id, at)
	}
	return nil
}

func (m *mockAccountRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockSessionRepo struct {
	createFn            func(ctx context.Context, s *model.Session) error
	deleteByIDFn        func(ctx context.Context, id string) error
	deleteByAccountIDFn func(ctx context.Context, accountID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, s *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(_ context.Context, _ string) (*model.Session, error) {
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) DeleteByAccountID(ctx context.Context, accountID string) error {
	if m.deleteByAccountIDFn != nil {
		return m.deleteByAccountIDFn(ctx, accountID)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func newTestService(accounts *mockAccountRepo, sessions *mockSessionRepo) *Service {
	return NewService(accounts, sessions, ServiceConfig{SessionMaxAge: 3600, BcryptCost: bcrypt.MinCost})
}

func assertValidationField(t *testing.T, err error, field string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeValidation || apiErr.Field != field {
		t.Errorf("got code=%s field=%s, want VALIDATION_FAILED field=%s", apiErr.Code, apiErr.Field, field)
	}
}

// --- テスト ---

func TestRegister_DefaultsToCitizenAndHashesPassword(t *testing.T) {
	var saved *model.Account
	accounts := &mockAccountRepo{
		createFn: func(_ context.Context, a *model.Account) error {
			saved = a
			return nil
		},
	}
	svc := newTestService(accounts, &mockSessionRepo{})

	acc, err := svc.Register(context.Background(), RegisterInput{
		Username:        "mehmet",
		Password:        "gizli-sifre",
		PasswordConfirm: "gizli-sifre",
		Email:           "Mehmet@Ornek.COM.TR",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved == nil {
		t.Fatal("Create was not called")
	}
	if acc.AccountType != model.AccountTypeCitizen {
		t.Errorf("AccountType = %q, want %q", acc.AccountType, model.AccountTypeCitizen)
	}
	if acc.Email != "Mehmet@ornek.com.tr" {
		t.Errorf("Email = %q, want Mehmet@ornek.com.tr", acc.Email)
	}
	if acc.PasswordHash == "gizli-sifre" {
		t.Error("パスワードが平文で保存されている")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte("gizli-sifre")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(&mockAccountRepo{}, &mockSessionRepo{})

	tests := []struct {
		name  string
		input RegisterInput
		field string
	}{
		{"missing username", RegisterInput{Password: "12345678", PasswordConfirm: "12345678"}, "username"},
		{"short password", RegisterInput{Username: "a", Password: "1234567", PasswordConfirm: "1234567"}, "password"},
		{"confirm mismatch", RegisterInput{Username: "a", Password: "12345678", PasswordConfirm: "12345679"}, "password_confirm"},
		{"unknown type", RegisterInput{Username: "a", Password: "12345678", PasswordConfirm: "12345678", AccountType: "admin"}, "account_type"},
		{"password over bcrypt limit", RegisterInput{Username: "a", Password: strings.Repeat("a", 73), PasswordConfirm: strings.Repeat("a", 73)}, "password"},
		{"multibyte password over bcrypt limit", RegisterInput{Username: "a", Password: strings.Repeat("ş", 37), PasswordConfirm: strings.Repeat("ş", 37)}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			assertValidationField(t, err, tt.field)
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	accounts := &mockAccountRepo{
		createFn: func(_ context.Context, _ *model.Account) error {
			return model.NewUniqueViolationError("accounts_username_key")
		},
	}
	svc := newTestService(accounts, &mockSessionRepo{})

	_, err := svc.Register(context.Background(), RegisterInput{Username: "ali", Password: "12345678", PasswordConfirm: "12345678"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUniqueViolation {
		t.Fatalf("expected UNIQUE_VIOLATION, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("dogru-sifre"), bcrypt.MinCost)
	var stampedID string
	accounts := &mockAccountRepo{
		findByUsernameFn: func(_ context.Context, username string) (*model.Account, error) {
			return &model.Account{ID: "acc-1", Username: username, PasswordHash: string(hash), IsActive: true}, nil
		},
		updateLastLoginFn: func(_ context.Context, id string, _ time.Time) error {
			stampedID = id
			return nil
		},
	}
	var created *model.Session
	sessions := &mockSessionRepo{
		createFn: func(_ context.Context, s *model.Session) error {
			created = s
			return nil
		},
	}
	svc := newTestService(accounts, sessions)

	session, acc, err := svc.Login(context.Background(), "ayse", "dogru-sifre")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil || session.ID != created.ID {
		t.Fatal("session was not persisted")
	}
	if len(session.ID) != 64 {
		t.Errorf("session ID length = %d, want 64", len(session.ID))
	}
	if session.AccountID != "acc-1" {
		t.Errorf("AccountID = %q", session.AccountID)
	}
	if d := session.ExpiresAt.Sub(session.CreatedAt); d != time.Hour {
		t.Errorf("expiry = %v, want 1h", d)
	}
	if stampedID != "acc-1" || acc.LastLoginAt == nil {
		t.Error("last login was not recorded")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("dogru-sifre"), bcrypt.MinCost)

	tests := []struct {
		name    string
		account *model.Account
	}{
		{"unknown user", nil},
		{"wrong password", &model.Account{ID: "a", PasswordHash: string(hash), IsActive: true}},
		{"inactive", &model.Account{ID: "a", PasswordHash: "", IsActive: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := &mockAccountRepo{
				findByUsernameFn: func(_ context.Context, _ string) (*model.Account, error) {
					return tt.account, nil
				},
			}
			svc := newTestService(accounts, &mockSessionRepo{})

			_, _, err := svc.Login(context.Background(), "ayse", "yanlis-sifre")
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
				t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
			}
		})
	}
}

func TestUpdateProfile_RejectsAccountTypeChange(t *testing.T) {
	updated := false
	accounts := &mockAccountRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Account, error) {
			return &model.Account{ID: id, AccountType: model.AccountTypeCitizen}, nil
		},
		updateProfileFn: func(_ context.Context, _ *model.Account) error {
			updated = true
			return nil
		},
	}
	svc := newTestService(accounts, &mockSessionRepo{})

	_, err := svc.UpdateProfile(context.Background(), "acc-1", ProfileInput{FirstName: "Ali", AccountType: "firma"})
	assertValidationField(t, err, "account_type")
	if updated {
		t.Error("種別変更を含む更新が保存された")
	}

	acc, err := svc.UpdateProfile(context.Background(), "acc-1", ProfileInput{FirstName: " Ali ", AccountType: "vatandas"})
	if err != nil {
		t.Fatalf("同じ種別の指定は許可すべき: %v", err)
	}
	if acc.FirstName != "Ali" || !updated {
		t.Errorf("profile not updated: %+v", acc)
	}
}

func TestCreateAdmin_SetsStaffFlags(t *testing.T) {
	svc := newTestService(&mockAccountRepo{}, &mockSessionRepo{})

	acc, err := svc.CreateAdmin(context.Background(), "admin", "yonetici123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acc.IsStaff || !acc.IsSuperuser || !acc.IsActive {
		t.Errorf("flags = staff:%v super:%v active:%v", acc.IsStaff, acc.IsSuperuser, acc.IsActive)
	}
}

func TestRegister_PasswordAtBcryptLimit(t *testing.T) {
	svc := newTestService(&mockAccountRepo{}, &mockSessionRepo{})

	pw := strings.Repeat("a", MaxPasswordBytes)
	acc, err := svc.Register(context.Background(), RegisterInput{Username: "sinir", Password: pw, PasswordConfirm: pw})
	if err != nil {
		t.Fatalf("72バイトのパスワードは受け付けるべき: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(pw)); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
}

func TestCreateAdmin_RejectsPasswordOverBcryptLimit(t *testing.T) {
	svc := newTestService(&mockAccountRepo{}, &mockSessionRepo{})

	_, err := svc.CreateAdmin(context.Background(), "admin", strings.Repeat("y", 73))
	assertValidationField(t, err, "password")
}

func TestDelete_RemovesSessionsBeforeAccount(t *testing.T) {
	var order []string
	accounts := &mockAccountRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Account, error) {
			return &model.Account{ID: id}, nil
		},
		deleteByIDFn: func(_ context.Context, _ string) error {
			order = append(order, "account")
			return nil
		},
	}
	sessions := &mockSessionRepo{
		deleteByAccountIDFn: func(_ context.Context, _ string) error {
			order = append(order, "sessions")
			return nil
		},
	}
	svc := newTestService(accounts, sessions)

	if err := svc.Delete(context.Background(), "acc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "sessions" || order[1] != "account" {
		t.Errorf("delete order = %v", order)
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc := newTestService(&mockAccountRepo{}, &mockSessionRepo{})

	err := svc.Delete(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
