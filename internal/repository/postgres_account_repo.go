package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/istihdam/internal/model"
)

const accountColumns = `id, username, password_hash, email, first_name, last_name, account_type,
	is_staff, is_superuser, is_active, last_login_at, created_at, updated_at`

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

func scanAccount(row rowScanner) (*model.Account, error) {
	a := &model.Account{}
	var lastLogin sql.NullTime
	err := row.Scan(
		&a.ID, &a.Username, &a.PasswordHash, &a.Email, &a.FirstName, &a.LastName, &a.AccountType,
		&a.IsStaff, &a.IsSuperuser, &a.IsActive, &lastLogin, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.LastLoginAt = nullTimePtr(lastLogin)
	return a, nil
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by ID: %w", mapPQError(err))
	}
	return a, nil
}

// FindByUsername はユーザー名でアカウントを検索する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by username: %w", mapPQError(err))
	}
	return a, nil
}

// Create はアカウントを作成する。
func (r *PostgresAccountRepo) Create(ctx context.Context, a *model.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, username, password_hash, email, first_name, last_name, account_type,
			is_staff, is_superuser, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.Username, a.PasswordHash, a.Email, a.FirstName, a.LastName, a.AccountType,
		a.IsStaff, a.IsSuperuser, a.IsActive, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", mapPQError(err))
	}
	return nil
}

// UpdateProfile は姓名・メールアドレス・有効フラグを更新する。
func (r *PostgresAccountRepo) UpdateProfile(ctx context.Context, a *model.Account) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET email = $2, first_name = $3, last_name = $4, is_active = $5, updated_at = $6
		 WHERE id = $1`,
		a.ID, a.Email, a.FirstName, a.LastName, a.IsActive, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", mapPQError(err))
	}
	return requireAffected(result, "アカウント", a.ID)
}

// UpdateLastLogin は最終ログイン日時を記録する。
func (r *PostgresAccountRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", mapPQError(err))
	}
	return nil
}

// DeleteByID は指定IDのアカウントを削除する。
// 市民プロフィール・セッションはCASCADE削除され、所有企業のowner_idはNULLになる。
func (r *PostgresAccountRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", mapPQError(err))
	}
	return requireAffected(result, "アカウント", id)
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
