// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/istihdam/internal/model"
)

// GeographyRepository は県・郡・地区の永続化インターフェース。
// Find系は見つからない場合にnilを返す。
type GeographyRepository interface {
	CreateProvince(ctx context.Context, p *model.Province) error
	FindProvinceByID(ctx context.Context, id string) (*model.Province, error)
	FindProvinceBySlug(ctx context.Context, slug string) (*model.Province, error)
	ListProvinces(ctx context.Context) ([]*model.Province, error)
	// UpdateProvince は名前とslugを書き込む。slugの凍結はサービス層の責務。
	UpdateProvince(ctx context.Context, p *model.Province) error
	// DeleteProvince は県を削除する。郡・地区はCASCADE削除され、
	// 市民・企業・求人の参照はNULLになる。
	DeleteProvince(ctx context.Context, id string) error

	CreateDistrict(ctx context.Context, d *model.District) error
	FindDistrictByID(ctx context.Context, id string) (*model.District, error)
	FindDistrictBySlug(ctx context.Context, provinceID, slug string) (*model.District, error)
	ListDistricts(ctx context.Context, provinceID string) ([]*model.District, error)
	UpdateDistrict(ctx context.Context, d *model.District) error
	DeleteDistrict(ctx context.Context, id string) error

	CreateNeighborhood(ctx context.Context, n *model.Neighborhood) error
	FindNeighborhoodByID(ctx context.Context, id string) (*model.Neighborhood, error)
	ListNeighborhoods(ctx context.Context, districtID string) ([]*model.Neighborhood, error)
	UpdateNeighborhood(ctx context.Context, n *model.Neighborhood) error
	DeleteNeighborhood(ctx context.Context, id string) error
}

// TaxonomyRepository は業種・職業の永続化インターフェース。
type TaxonomyRepository interface {
	CreateSector(ctx context.Context, s *model.Sector) error
	FindSectorByID(ctx context.Context, id string) (*model.Sector, error)
	FindSectorBySlug(ctx context.Context, slug string) (*model.Sector, error)
	ListSectors(ctx context.Context) ([]*model.Sector, error)
	UpdateSector(ctx context.Context, s *model.Sector) error
	DeleteSector(ctx context.Context, id string) error

	CreateOccupation(ctx context.Context, o *model.Occupation) error
	FindOccupationByID(ctx context.Context, id string) (*model.Occupation, error)
	FindOccupationBySlug(ctx context.Context, slug string) (*model.Occupation, error)
	ListOccupations(ctx context.Context) ([]*model.Occupation, error)
	UpdateOccupation(ctx context.Context, o *model.Occupation) error
	DeleteOccupation(ctx context.Context, id string) error
}

// AccountRepository はアカウントの永続化インターフェース。
type AccountRepository interface {
	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)
	// FindByUsername はユーザー名でアカウントを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.Account, error)
	// Create はアカウントを作成する。ユーザー名の重複はUNIQUE_VIOLATIONになる。
	Create(ctx context.Context, account *model.Account) error
	// UpdateProfile は姓名・メールアドレス・有効フラグを更新する。
	// アカウント種別は更新対象に含まない。
	UpdateProfile(ctx context.Context, account *model.Account) error
	// UpdateLastLogin は最終ログイン日時を記録する。
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	// DeleteByID は指定IDのアカウントを削除する。
	// 市民プロフィールとセッションはCASCADE削除され、所有企業の所有者はNULLになる。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByAccountID は指定アカウントの全セッションを削除する。
	DeleteByAccountID(ctx context.Context, accountID string) error
	// DeleteExpired は期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// CitizenRepository は市民プロフィールとその子コレクションの永続化インターフェース。
type CitizenRepository interface {
	FindByID(ctx context.Context, id string) (*model.Citizen, error)
	FindByAccountID(ctx context.Context, accountID string) (*model.Citizen, error)
	Create(ctx context.Context, c *model.Citizen) error
	Update(ctx context.Context, c *model.Citizen) error
	Delete(ctx context.Context, id string) error
	// List は絞り込み条件に合う市民を姓名・居住地名付きで返す。新しい順。
	List(ctx context.Context, filter model.CitizenFilter) ([]*model.CitizenSummary, error)
	// Count は絞り込み条件に合う市民の件数を返す。
	Count(ctx context.Context, filter model.CitizenFilter) (int, error)

	ListEducations(ctx context.Context, citizenID string) ([]*model.Education, error)
	CreateEducation(ctx context.Context, e *model.Education) error
	UpdateEducation(ctx context.Context, e *model.Education) error
	DeleteEducation(ctx context.Context, citizenID, id string) error

	ListWorkExperiences(ctx context.Context, citizenID string) ([]*model.WorkExperience, error)
	CreateWorkExperience(ctx context.Context, w *model.WorkExperience) error
	UpdateWorkExperience(ctx context.Context, w *model.WorkExperience) error
	DeleteWorkExperience(ctx context.Context, citizenID, id string) error

	ListSkills(ctx context.Context, citizenID string) ([]*model.Skill, error)
	CreateSkill(ctx context.Context, s *model.Skill) error
	UpdateSkill(ctx context.Context, s *model.Skill) error
	DeleteSkill(ctx context.Context, citizenID, id string) error

	ListCertificates(ctx context.Context, citizenID string) ([]*model.Certificate, error)
	CreateCertificate(ctx context.Context, c *model.Certificate) error
	UpdateCertificate(ctx context.Context, c *model.Certificate) error
	DeleteCertificate(ctx context.Context, citizenID, id string) error

	ListCraftSpecialties(ctx context.Context, citizenID string) ([]*model.CraftSpecialty, error)
	CreateCraftSpecialty(ctx context.Context, s *model.CraftSpecialty) error
	UpdateCraftSpecialty(ctx context.Context, s *model.CraftSpecialty) error
	DeleteCraftSpecialty(ctx context.Context, citizenID, id string) error

	ListWorkingHours(ctx context.Context, citizenID string) ([]*model.WorkingHours, error)
	// UpsertWorkingHours は(市民, 曜日)の組で稼働時間を作成または上書きする。
	UpsertWorkingHours(ctx context.Context, h *model.WorkingHours) error
	DeleteWorkingHours(ctx context.Context, citizenID, id string) error
}

// CompanyRepository は企業の永続化インターフェース。
type CompanyRepository interface {
	FindByID(ctx context.Context, id string) (*model.Company, error)
	FindBySlug(ctx context.Context, slug string) (*model.Company, error)
	// List は絞り込み条件に合う企業を新しい順に返す。業種IDも読み込む。
	List(ctx context.Context, filter model.CompanyFilter) ([]*model.Company, error)
	Count(ctx context.Context, filter model.CompanyFilter) (int, error)
	// Create は企業と業種の紐付けを同一トランザクションで作成する。
	Create(ctx context.Context, c *model.Company) error
	// Update は企業を更新し、業種の紐付けを置き換える。slugも書き込む。
	Update(ctx context.Context, c *model.Company) error
	UpdateLogo(ctx context.Context, id, logoPath string) error
	Delete(ctx context.Context, id string) error
}

// PostingRepository は求人とその子コレクションの永続化インターフェース。
type PostingRepository interface {
	FindByID(ctx context.Context, id string) (*model.Posting, error)
	FindBySlug(ctx context.Context, slug string) (*model.Posting, error)
	// List は絞り込み条件に合う求人を返す。公開中の絞り込みでは公開日時の新しい順。
	List(ctx context.Context, filter model.PostingFilter) ([]*model.Posting, error)
	Count(ctx context.Context, filter model.PostingFilter) (int, error)
	Create(ctx context.Context, p *model.Posting) error
	// Update は求人の全フィールドを書き込む（状態と公開日時を含む）。
	Update(ctx context.Context, p *model.Posting) error
	// UpdateStatus は状態と公開日時のみを書き込む。
	UpdateStatus(ctx context.Context, id string, status model.PostingStatus, publishedAt *time.Time) error
	IncrementViewCount(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error

	ListKeywords(ctx context.Context, postingID string) ([]*model.Keyword, error)
	CreateKeyword(ctx context.Context, k *model.Keyword) error
	DeleteKeyword(ctx context.Context, postingID, id string) error

	ListLanguages(ctx context.Context, postingID string) ([]*model.LanguageRequirement, error)
	CreateLanguage(ctx context.Context, l *model.LanguageRequirement) error
	UpdateLanguage(ctx context.Context, l *model.LanguageRequirement) error
	DeleteLanguage(ctx context.Context, postingID, id string) error

	// ListQuestions は求人のスクリーニング質問を表示順で返す。
	ListQuestions(ctx context.Context, postingID string) ([]*model.ScreeningQuestion, error)
	CreateQuestion(ctx context.Context, q *model.ScreeningQuestion) error
	UpdateQuestion(ctx context.Context, q *model.ScreeningQuestion) error
	DeleteQuestion(ctx context.Context, postingID, id string) error
}

// ApplicationRepository は応募の永続化インターフェース。
type ApplicationRepository interface {
	FindByID(ctx context.Context, id string) (*model.Application, error)
	FindByPostingAndCitizen(ctx context.Context, postingID, citizenID string) (*model.Application, error)
	List(ctx context.Context, filter model.ApplicationFilter) ([]*model.Application, error)
	// Create は応募と回答を作成し、求人の応募数を同一トランザクションで加算する。
	// (求人, 市民)の重複はUNIQUE_VIOLATIONになる。
	Create(ctx context.Context, app *model.Application, answers []*model.Answer) error
	// UpdateReview は選考状態・評価・スコア・既読・お気に入り・最終処理日時を更新する。
	UpdateReview(ctx context.Context, app *model.Application) error
	// Delete は応募を削除し、求人の応募数を同一トランザクションで減算する。
	Delete(ctx context.Context, id string) error
	ListAnswers(ctx context.Context, applicationID string) ([]*model.Answer, error)
}

// OutcomeRepository は求人の採用結果の永続化インターフェース。
type OutcomeRepository interface {
	FindByID(ctx context.Context, id string) (*model.Outcome, error)
	FindByPostingID(ctx context.Context, postingID string) (*model.Outcome, error)
	List(ctx context.Context, limit, offset uint64) ([]*model.Outcome, error)
	// Save は採用結果を1つのトランザクションで保存する。
	// 応募総数を実際の応募件数から再計算し、採用者が同じ求人の応募であることを検証する。
	// closePostingがtrueの場合は求人の状態を終了に書き換える。
	Save(ctx context.Context, o *model.Outcome, closePosting bool) error
	Delete(ctx context.Context, id string) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
