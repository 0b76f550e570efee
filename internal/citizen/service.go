// Package citizen は市民プロフィール（Kişi）と職人情報のドメインロジックを提供する。
package citizen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/istihdam/internal/model"
	"github.com/hitoshi/istihdam/internal/repository"
)

// ProfileInput は市民プロフィールの作成・更新の入力。
type ProfileInput struct {
	BirthDate            *time.Time
	Gender               model.Gender
	PhotoPath            string
	Phone                string
	ProvinceID           *string
	DistrictID           *string
	Address              string
	About                string
	ResumePath           string
	IsCraftsman          bool
	IsJobSeeker          bool
	CraftsmanTitle       string
	CraftsmanDescription string
	LinkedInURL          string
	TwitterURL           string
	InstagramURL         string
	FacebookURL          string
	WebsiteURL           string
}

// Profile は市民プロフィールと子コレクションをまとめた表示用の集約。
type Profile struct {
	Citizen          *model.Citizen
	Age              *int
	Educations       []*model.Education
	WorkExperiences  []*model.WorkExperience
	Skills           []*model.Skill
	Certificates     []*model.Certificate
	CraftSpecialties []*model.CraftSpecialty
	WorkingHours     []*model.WorkingHours
}

// ListQuery は管理画面の市民一覧の検索条件。
// AgeBucketは基準日時点の生年月日範囲に変換して絞り込む。
type ListQuery struct {
	AgeBucket      model.AgeBucket
	Gender         model.Gender
	ProvinceID     string
	Degree         model.EducationDegree
	HasCertificate *bool
	OccupationID   string
	IsCraftsman    *bool
	IsJobSeeker    *bool
	Query          string
	Limit          uint64
	Offset         uint64
}

// URLValidator はプロフィールのリンクを検証するインターフェース。
type URLValidator interface {
	ValidateURL(field, rawURL string) error
}

// Service は市民プロフィールのサービス層。
type Service struct {
	repo        repository.CitizenRepository
	accountRepo repository.AccountRepository
	geoRepo     repository.GeographyRepository
	urls        URLValidator
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.CitizenRepository,
	accountRepo repository.AccountRepository,
	geoRepo repository.GeographyRepository,
	urls URLValidator,
) *Service {
	return &Service{
		repo:        repo,
		accountRepo: accountRepo,
		geoRepo:     geoRepo,
		urls:        urls,
		now:         time.Now,
	}
}

func (s *Service) validateProfile(ctx context.Context, in *ProfileInput) error {
	if in.Gender != "" && !in.Gender.IsValid() {
		return model.NewValidationError("gender", "性別は E または K で指定してください")
	}
	if in.BirthDate != nil && in.BirthDate.After(s.now()) {
		return model.NewValidationError("birth_date", "生年月日に未来の日付は指定できません")
	}
	in.CraftsmanTitle = strings.TrimSpace(in.CraftsmanTitle)

	if s.urls != nil {
		links := []struct{ field, value string }{
			{"linkedin_url", in.LinkedInURL},
			{"twitter_url", in.TwitterURL},
			{"instagram_url", in.InstagramURL},
			{"facebook_url", in.FacebookURL},
			{"website_url", in.WebsiteURL},
		}
		for _, l := range links {
			if l.value == "" {
				continue
			}
			if err := s.urls.ValidateURL(l.field, l.value); err != nil {
				return err
			}
		}
	}

	if in.DistrictID != nil {
		d, err := s.geoRepo.FindDistrictByID(ctx, *in.DistrictID)
		if err != nil {
			return fmt.Errorf("郡の取得に失敗しました: %w", err)
		}
		if d == nil {
			return model.NewValidationError("district_id", "郡が存在しません")
		}
		if in.ProvinceID != nil && d.ProvinceID != *in.ProvinceID {
			return model.NewValidationError("district_id", "郡が指定された県に属していません")
		}
	}
	return nil
}

func applyProfile(c *model.Citizen, in ProfileInput) {
	c.BirthDate = in.BirthDate
	c.Gender = in.Gender
	c.PhotoPath = in.PhotoPath
	c.Phone = in.Phone
	c.ProvinceID = in.ProvinceID
	c.DistrictID = in.DistrictID
	c.Address = in.Address
	c.About = in.About
	c.ResumePath = in.ResumePath
	c.IsCraftsman = in.IsCraftsman
	c.IsJobSeeker = in.IsJobSeeker
	c.CraftsmanTitle = in.CraftsmanTitle
	c.CraftsmanDescription = in.CraftsmanDescription
	c.LinkedInURL = in.LinkedInURL
	c.TwitterURL = in.TwitterURL
	c.InstagramURL = in.InstagramURL
	c.FacebookURL = in.FacebookURL
	c.WebsiteURL = in.WebsiteURL
}

// Create は市民アカウントにプロフィールを作成する。
// アカウント種別が市民でない場合は拒否する。
func (s *Service) Create(ctx context.Context, accountID string, in ProfileInput) (*model.Citizen, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewNotFoundError("アカウント", accountID)
	}
	if account.AccountType != model.AccountTypeCitizen {
		return nil, model.NewAccountTypeMismatchError(model.AccountTypeCitizen)
	}
	if err := s.validateProfile(ctx, &in); err != nil {
		return nil, err
	}

	now := s.now()
	c := &model.Citizen{
		ID:         uuid.New().String(),
		ExternalID: uuid.New().String(),
		AccountID:  accountID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	applyProfile(c, in)

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("市民プロフィールの作成に失敗しました: %w", err)
	}

	slog.Info("citizen profile created",
		slog.String("citizen_id", c.ID),
		slog.String("account_id", accountID),
	)
	return c, nil
}

// Update は市民プロフィールを更新する。
func (s *Service) Update(ctx context.Context, id string, in ProfileInput) (*model.Citizen, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateProfile(ctx, &in); err != nil {
		return nil, err
	}
	applyProfile(c, in)
	c.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("市民プロフィールの更新に失敗しました: %w", err)
	}
	return c, nil
}

// SaveOwn はログイン中のアカウント自身のプロフィールを作成または更新する。
func (s *Service) SaveOwn(ctx context.Context, accountID string, in ProfileInput) (*model.Citizen, error) {
	existing, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("市民プロフィールの取得に失敗しました: %w", err)
	}
	if existing == nil {
		return s.Create(ctx, accountID, in)
	}
	return s.Update(ctx, existing.ID, in)
}

// Get は市民プロフィールを取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Citizen, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("市民プロフィールの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewNotFoundError("市民", id)
	}
	return c, nil
}

// GetByAccount はアカウントに紐づく市民プロフィールを取得する。
func (s *Service) GetByAccount(ctx context.Context, accountID string) (*model.Citizen, error) {
	c, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("市民プロフィールの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewNotFoundError("市民", accountID)
	}
	return c, nil
}

// LoadProfile はプロフィールと全ての子コレクションを並行して読み込む。
func (s *Service) LoadProfile(ctx context.Context, c *model.Citizen) (*Profile, error) {
	p := &Profile{Citizen: c}
	if c.BirthDate != nil {
		age := model.Age(*c.BirthDate, s.now())
		p.Age = &age
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		p.Educations, err = s.repo.ListEducations(gctx, c.ID)
		return err
	})
	g.Go(func() (err error) {
		p.WorkExperiences, err = s.repo.ListWorkExperiences(gctx, c.ID)
		return err
	})
	g.Go(func() (err error) {
		p.Skills, err = s.repo.ListSkills(gctx, c.ID)
		return err
	})
	g.Go(func() (err error) {
		p.Certificates, err = s.repo.ListCertificates(gctx, c.ID)
		return err
	})
	g.Go(func() (err error) {
		p.CraftSpecialties, err = s.repo.ListCraftSpecialties(gctx, c.ID)
		return err
	})
	g.Go(func() (err error) {
		p.WorkingHours, err = s.repo.ListWorkingHours(gctx, c.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("市民プロフィールの読み込みに失敗しました: %w", err)
	}
	return p, nil
}

// Delete は市民プロフィールを削除する。子コレクションと応募も削除される。
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("市民プロフィールの削除に失敗しました: %w", err)
	}
	slog.Info("citizen profile deleted", slog.String("citizen_id", id))
	return nil
}

// toFilter は検索条件をリポジトリの絞り込み条件に変換する。
func (s *Service) toFilter(q ListQuery) (model.CitizenFilter, error) {
	f := model.CitizenFilter{
		Gender:         q.Gender,
		ProvinceID:     q.ProvinceID,
		Degree:         q.Degree,
		HasCertificate: q.HasCertificate,
		OccupationID:   q.OccupationID,
		IsCraftsman:    q.IsCraftsman,
		IsJobSeeker:    q.IsJobSeeker,
		Query:          strings.TrimSpace(q.Query),
		Limit:          q.Limit,
		Offset:         q.Offset,
	}
	if q.AgeBucket != "" {
		from, to, ok := q.AgeBucket.BirthDateRange(s.now())
		if !ok {
			return f, model.NewValidationError("age", "年齢層の指定が不正です")
		}
		f.BirthDateFrom, f.BirthDateTo = from, to
	}
	if q.Gender != "" && !q.Gender.IsValid() {
		return f, model.NewValidationError("gender", "性別は E または K で指定してください")
	}
	if q.Degree != "" && !q.Degree.IsValid() {
		return f, model.NewValidationError("degree", "学位区分が不正です")
	}
	return f, nil
}

// List は絞り込み条件に合う市民と総件数を返す。
func (s *Service) List(ctx context.Context, q ListQuery) ([]*model.CitizenSummary, int, error) {
	filter, err := s.toFilter(q)
	if err != nil {
		return nil, 0, err
	}

	var (
		list  []*model.CitizenSummary
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		list, err = s.repo.List(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		total, err = s.repo.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("市民一覧の取得に失敗しました: %w", err)
	}
	return list, total, nil
}

// ListCraftsmen は公開ページ向けに職人の一覧を返す。
func (s *Service) ListCraftsmen(ctx context.Context, occupationID, provinceID, query string, limit, offset uint64) ([]*model.CitizenSummary, int, error) {
	craftsman := true
	return s.List(ctx, ListQuery{
		IsCraftsman:  &craftsman,
		OccupationID: occupationID,
		ProvinceID:   provinceID,
		Query:        query,
		Limit:        limit,
		Offset:       offset,
	})
}
