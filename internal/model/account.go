package model

import (
	"strings"
	"time"
)

// AccountType はアカウント種別を表す。作成後は変更できない。
type AccountType string

const (
	// AccountTypeCompany は企業アカウント。
	AccountTypeCompany AccountType = "firma"
	// AccountTypeCitizen は市民アカウント（デフォルト）。
	AccountTypeCitizen AccountType = "vatandas"
	// AccountTypeMunicipality は自治体アカウント。
	AccountTypeMunicipality AccountType = "belediye"
)

// IsValid はアカウント種別が定義済みの値かを判定する。
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeCompany, AccountTypeCitizen, AccountTypeMunicipality:
		return true
	}
	return false
}

// ParseAccountType は文字列をアカウント種別に変換する。
// 空文字列の場合はAccountTypeCitizenを返す。
func ParseAccountType(s string) (AccountType, bool) {
	if s == "" {
		return AccountTypeCitizen, true
	}
	t := AccountType(s)
	return t, t.IsValid()
}

// Account はログイン可能な利用者アカウントを表す。
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	Email        string
	FirstName    string
	LastName     string
	AccountType  AccountType
	IsStaff      bool
	IsSuperuser  bool
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName は姓名を空白区切りで返す。
func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Session はアカウントのログインセッションを表す。
type Session struct {
	ID        string
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NormalizeEmail はメールアドレスのドメイン部を小文字化する。
// ローカル部はそのまま保持する。
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}
