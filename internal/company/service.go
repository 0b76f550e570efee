// Package company は企業（Firma）のドメインロジックを提供する。
package company

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/istihdam/internal/media"
	"github.com/hitoshi/istihdam/internal/metrics"
	"github.com/hitoshi/istihdam/internal/model"
	"github.com/hitoshi/istihdam/internal/repository"
	"github.com/hitoshi/istihdam/internal/security"
	"github.com/hitoshi/istihdam/internal/slug"
)

// LogoFetcher はWebサイトからロゴ画像を取得するインターフェース。
type LogoFetcher interface {
	FetchLogo(ctx context.Context, siteURL string) (*media.Image, error)
}

// FileStore はメディアファイルの保存インターフェース。
type FileStore interface {
	Save(dir, name string, data []byte) (string, error)
}

// Input は企業の作成・更新の入力。
type Input struct {
	OwnerID       *string
	Name          string
	Slug          *string
	Description   string
	Email         string
	Phone         string
	Fax           string
	Website       string
	ProvinceID    *string
	DistrictID    *string
	Address       string
	PostalCode    string
	SectorIDs     []string
	FoundedYear   *int
	EmployeeCount *int
	TaxOffice     string
	TaxNumber     string
	LinkedInURL   string
	TwitterURL    string
	InstagramURL  string
	FacebookURL   string
	Active        bool
}

// Service は企業のサービス層。
type Service struct {
	repo        repository.CompanyRepository
	geoRepo     repository.GeographyRepository
	accountRepo repository.AccountRepository
	sanitizer   security.RichTextSanitizer
	urlGuard    security.URLGuard
	logos       LogoFetcher
	files       FileStore
	metrics     metrics.MetricsCollector
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.CompanyRepository,
	geoRepo repository.GeographyRepository,
	accountRepo repository.AccountRepository,
	sanitizer security.RichTextSanitizer,
	urlGuard security.URLGuard,
	logos LogoFetcher,
	files FileStore,
	m metrics.MetricsCollector,
) *Service {
	if m == nil {
		m = metrics.Nop{}
	}
	return &Service{
		repo:        repo,
		geoRepo:     geoRepo,
		accountRepo: accountRepo,
		sanitizer:   sanitizer,
		urlGuard:    urlGuard,
		logos:       logos,
		files:       files,
		metrics:     m,
		now:         time.Now,
	}
}

// validate は入力値の検証と正規化を行う。
func (s *Service) validate(ctx context.Context, in *Input) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return model.NewValidationError("name", "企業名は必須です")
	}
	if in.FoundedYear != nil && (*in.FoundedYear < 1800 || *in.FoundedYear > s.now().Year()) {
		return model.NewOutOfRangeError("founded_year", 1800, s.now().Year(), *in.FoundedYear)
	}
	if in.EmployeeCount != nil && *in.EmployeeCount < 0 {
		return model.NewValidationError("employee_count", "従業員数は0以上で指定してください")
	}

	if s.urlGuard != nil {
		err := security.ValidateOptionalURLs(s.urlGuard, map[string]string{
			"website":       in.Website,
			"linkedin_url":  in.LinkedInURL,
			"twitter_url":   in.TwitterURL,
			"instagram_url": in.InstagramURL,
			"facebook_url":  in.FacebookURL,
		})
		if err != nil {
			return err
		}
	}

	if in.OwnerID != nil {
		owner, err := s.accountRepo.FindByID(ctx, *in.OwnerID)
		if err != nil {
			return fmt.Errorf("所有者の取得に失敗しました: %w", err)
		}
		if owner == nil {
			return model.NewNotFoundError("アカウント", *in.OwnerID)
		}
		if owner.AccountType != model.AccountTypeCompany {
			return model.NewAccountTypeMismatchError(model.AccountTypeCompany)
		}
	}

	if s.sanitizer != nil {
		in.Description = s.sanitizer.Sanitize(in.Description)
	}
	in.Email = model.NormalizeEmail(in.Email)
	return nil
}

// resolveLocation は所在地の存在を検証し、slug導出用のLocationを返す。
func (s *Service) resolveLocation(ctx context.Context, provinceID, districtID *string) (*slug.Location, *slug.Location, error) {
	var province, district *slug.Location

	if provinceID != nil {
		p, err := s.geoRepo.FindProvinceByID(ctx, *provinceID)
		if err != nil {
			return nil, nil, fmt.Errorf("県の取得に失敗しました: %w", err)
		}
		if p == nil {
			return nil, nil, model.NewValidationError("province_id", "県が存在しません")
		}
		province = &slug.Location{ID: p.ID, Name: p.Name, Slug: p.Slug}
	}

	if districtID != nil {
		d, err := s.geoRepo.FindDistrictByID(ctx, *districtID)
		if err != nil {
			return nil, nil, fmt.Errorf("郡の取得に失敗しました: %w", err)
		}
		if d == nil {
			return nil, nil, model.NewValidationError("district_id", "郡が存在しません")
		}
		if province != nil && d.ProvinceID != province.ID {
			// 所在地の矛盾はエラーにせず、slugの郡セグメントを省略する
			slog.Debug("company district belongs to another province",
				slog.String("province_id", province.ID),
				slog.String("district_id", d.ID),
			)
		}
		district = &slug.Location{ID: d.ID, Name: d.Name, Slug: d.Slug, ProvinceID: d.ProvinceID}
	}

	return province, district, nil
}

func applyInput(c *model.Company, in Input) {
	c.OwnerID = in.OwnerID
	c.Name = in.Name
	c.Description = in.Description
	c.Email = in.Email
	c.Phone = in.Phone
	c.Fax = in.Fax
	c.Website = in.Website
	c.ProvinceID = in.ProvinceID
	c.DistrictID = in.DistrictID
	c.Address = in.Address
	c.PostalCode = in.PostalCode
	c.SectorIDs = dedupe(in.SectorIDs)
	c.FoundedYear = in.FoundedYear
	c.EmployeeCount = in.EmployeeCount
	c.TaxOffice = in.TaxOffice
	c.TaxNumber = in.TaxNumber
	c.LinkedInURL = in.LinkedInURL
	c.TwitterURL = in.TwitterURL
	c.InstagramURL = in.InstagramURL
	c.FacebookURL = in.FacebookURL
	c.Active = in.Active
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Create は企業を作成する。slugは作成時に所在地と名前から1度だけ導出する。
func (s *Service) Create(ctx context.Context, in Input) (*model.Company, error) {
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	province, district, err := s.resolveLocation(ctx, in.ProvinceID, in.DistrictID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &model.Company{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	applyInput(c, in)

	// 明示指定が空に正規化された場合も名前からの導出に戻す
	c.Slug = slug.Explicit(in.Slug)
	if c.Slug == nil {
		c.Slug = slug.Company(c.Name, province, district)
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("企業の作成に失敗しました: %w", err)
	}

	slog.Info("company created",
		slog.String("company_id", c.ID),
		slog.String("slug", model.StringValue(c.Slug)),
	)
	return c, nil
}

// Update は企業を更新する。slugは明示指定時のみ変更し、再導出しない。
func (s *Service) Update(ctx context.Context, id string, in Input) (*model.Company, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	if _, _, err := s.resolveLocation(ctx, in.ProvinceID, in.DistrictID); err != nil {
		return nil, err
	}

	applyInput(c, in)
	if explicit := slug.Explicit(in.Slug); explicit != nil {
		c.Slug = explicit
	}
	c.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("企業の更新に失敗しました: %w", err)
	}
	return c, nil
}

// Get は企業を取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Company, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("企業の取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewNotFoundError("企業", id)
	}
	return c, nil
}

// GetPublicBySlug は公開中の企業をslugで取得する。非公開の企業は見つからない扱い。
func (s *Service) GetPublicBySlug(ctx context.Context, value string) (*model.Company, error) {
	c, err := s.repo.FindBySlug(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("企業の取得に失敗しました: %w", err)
	}
	if c == nil || !c.Active {
		return nil, model.NewNotFoundError("企業", value)
	}
	return c, nil
}

// List は絞り込み条件に合う企業と総件数を返す。
func (s *Service) List(ctx context.Context, filter model.CompanyFilter) ([]*model.Company, int, error) {
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("企業一覧の取得に失敗しました: %w", err)
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("企業件数の取得に失敗しました: %w", err)
	}
	return list, total, nil
}

// ListPublic は公開中の企業一覧を返す。
func (s *Service) ListPublic(ctx context.Context, filter model.CompanyFilter) ([]*model.Company, int, error) {
	filter.ActiveOnly = true
	return s.List(ctx, filter)
}

// Delete は企業を削除する。求人は一緒に削除される。
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("企業の削除に失敗しました: %w", err)
	}
	slog.Info("company deleted", slog.String("company_id", id))
	return nil
}

// ImportLogo は企業のWebサイトからロゴを取得してMEDIA_ROOT配下に保存する。
func (s *Service) ImportLogo(ctx context.Context, id string) (*model.Company, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Website == "" {
		return nil, model.NewValidationError("website", "Webサイトが登録されていません")
	}

	start := s.now()
	img, err := s.logos.FetchLogo(ctx, c.Website)
	s.metrics.RecordLogoFetch(err == nil, s.now().Sub(start))
	if err != nil {
		slog.Warn("company logo fetch failed",
			slog.String("company_id", c.ID),
			slog.String("website", c.Website),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	logoPath, err := s.files.Save(media.LogoDir, media.LogoFileName(c.ID, img.MimeType), img.Data)
	if err != nil {
		return nil, fmt.Errorf("ロゴの保存に失敗しました: %w", err)
	}
	if err := s.repo.UpdateLogo(ctx, c.ID, logoPath); err != nil {
		return nil, fmt.Errorf("ロゴの更新に失敗しました: %w", err)
	}

	slog.Info("company logo imported",
		slog.String("company_id", c.ID),
		slog.String("source", img.SourceURL),
		slog.String("path", logoPath),
	)
	c.LogoPath = logoPath
	return c, nil
}
