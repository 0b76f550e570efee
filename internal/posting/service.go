// Package posting は求人（İş İlanı）のライフサイクルと公開のドメインロジックを提供する。
package posting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/istihdam/internal/metrics"
	"github.com/hitoshi/istihdam/internal/model"
	"github.com/hitoshi/istihdam/internal/repository"
	"github.com/hitoshi/istihdam/internal/security"
	"github.com/hitoshi/istihdam/internal/slug"
)

// Input は求人の作成・更新の入力。
// SalaryHiddenの省略時は給与を非公開とする。
type Input struct {
	Title                   string
	Slug                    *string
	CompanyID               string
	Position                string
	Description             string
	SectorID                *string
	Department              string
	WorkModel               model.WorkModel
	Workplace               model.Workplace
	ProvinceID              *string
	DistrictID              *string
	Address                 string
	RequiredQualifications  string
	PreferredQualifications string
	EducationLevel          model.EducationRequirement
	ExperienceLevel         model.ExperienceLevel
	SalaryInfo              string
	SalaryHidden            *bool
	Benefits                string
	ApplicationStart        *time.Time
	ApplicationEnd          *time.Time
	ExpectedApplications    int
	Headcount               int
	Status                  model.PostingStatus
	Featured                bool
}

// Detail は求人と子コレクションをまとめた表示用の集約。
type Detail struct {
	Posting   *model.Posting
	Keywords  []*model.Keyword
	Languages []*model.LanguageRequirement
	Questions []*model.ScreeningQuestion
}

// Service は求人のサービス層。
type Service struct {
	repo        repository.PostingRepository
	companyRepo repository.CompanyRepository
	sanitizer   security.RichTextSanitizer
	metrics     metrics.MetricsCollector
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.PostingRepository,
	companyRepo repository.CompanyRepository,
	sanitizer security.RichTextSanitizer,
	m metrics.MetricsCollector,
) *Service {
	if m == nil {
		m = metrics.Nop{}
	}
	return &Service{
		repo:        repo,
		companyRepo: companyRepo,
		sanitizer:   sanitizer,
		metrics:     m,
		now:         time.Now,
	}
}

// validate は入力値の検証、既定値の補完、HTMLの無害化を行う。
func (s *Service) validate(ctx context.Context, in *Input) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return model.NewValidationError("title", "求人タイトルは必須です")
	}
	in.Position = strings.TrimSpace(in.Position)
	if in.Position == "" {
		return model.NewValidationError("position", "職種は必須です")
	}
	if in.CompanyID == "" {
		return model.NewValidationError("company_id", "企業は必須です")
	}
	company, err := s.companyRepo.FindByID(ctx, in.CompanyID)
	if err != nil {
		return fmt.Errorf("企業の取得に失敗しました: %w", err)
	}
	if company == nil {
		return model.NewValidationError("company_id", "企業が存在しません")
	}

	if in.WorkModel == "" {
		in.WorkModel = model.WorkFullTime
	}
	if !in.WorkModel.IsValid() {
		return model.NewValidationError("work_model", "雇用形態が不正です")
	}
	if in.Workplace == "" {
		in.Workplace = model.WorkplaceOffice
	}
	if !in.Workplace.IsValid() {
		return model.NewValidationError("workplace", "勤務場所が不正です")
	}
	if in.EducationLevel == "" {
		in.EducationLevel = model.EduAny
	}
	if !in.EducationLevel.IsValid() {
		return model.NewValidationError("education_level", "学歴要件が不正です")
	}
	if in.ExperienceLevel == "" {
		in.ExperienceLevel = model.ExpAny
	}
	if !in.ExperienceLevel.IsValid() {
		return model.NewValidationError("experience_level", "経験レベルが不正です")
	}
	if in.Status == "" {
		in.Status = model.PostingDraft
	}
	if !in.Status.IsValid() {
		return model.NewValidationError("status", "求人の状態が不正です")
	}

	if in.ApplicationStart != nil && in.ApplicationEnd != nil && in.ApplicationEnd.Before(*in.ApplicationStart) {
		return model.NewValidationError("application_end", "応募終了日は開始日以降で指定してください")
	}
	if in.Headcount == 0 {
		in.Headcount = 1
	}
	if in.Headcount < 1 {
		return model.NewValidationError("headcount", "募集人数は1以上で指定してください")
	}
	if in.ExpectedApplications < 0 {
		return model.NewValidationError("expected_applications", "想定応募数は0以上で指定してください")
	}
	if in.SalaryHidden == nil {
		hidden := true
		in.SalaryHidden = &hidden
	}

	if s.sanitizer != nil {
		security.SanitizeAll(s.sanitizer,
			&in.Description,
			&in.RequiredQualifications,
			&in.PreferredQualifications,
			&in.Benefits,
		)
	}
	return nil
}

func applyInput(p *model.Posting, in Input) {
	p.Title = in.Title
	p.CompanyID = in.CompanyID
	p.Position = in.Position
	p.Description = in.Description
	p.SectorID = in.SectorID
	p.Department = in.Department
	p.WorkModel = in.WorkModel
	p.Workplace = in.Workplace
	p.ProvinceID = in.ProvinceID
	p.DistrictID = in.DistrictID
	p.Address = in.Address
	p.RequiredQualifications = in.RequiredQualifications
	p.PreferredQualifications = in.PreferredQualifications
	p.EducationLevel = in.EducationLevel
	p.ExperienceLevel = in.ExperienceLevel
	p.SalaryInfo = in.SalaryInfo
	p.SalaryHidden = *in.SalaryHidden
	p.Benefits = in.Benefits
	p.ApplicationStart = in.ApplicationStart
	p.ApplicationEnd = in.ApplicationEnd
	p.ExpectedApplications = in.ExpectedApplications
	p.Headcount = in.Headcount
	p.Featured = in.Featured
}

// Create は求人を作成する。slugはタイトルから1度だけ導出する。
func (s *Service) Create(ctx context.Context, in Input) (*model.Posting, error) {
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	now := s.now()
	p := &model.Posting{
		ID:         uuid.New().String(),
		ExternalID: uuid.New().String(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	applyInput(p, in)
	p.SetStatus(in.Status, now)

	p.Slug = slug.Explicit(in.Slug)
	if p.Slug == nil {
		p.Slug = slug.Posting(p.Title)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("求人の作成に失敗しました: %w", err)
	}

	slog.Info("posting created",
		slog.String("posting_id", p.ID),
		slog.String("company_id", p.CompanyID),
		slog.String("status", string(p.Status)),
	)
	return p, nil
}

// Update は管理画面からの書き込みとして求人を更新する。
// 状態は遷移規則を経由せず任意の値に書き換えられるが、公開日時は1度だけ記録する。
func (s *Service) Update(ctx context.Context, id string, in Input) (*model.Posting, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	now := s.now()
	applyInput(p, in)
	p.SetStatus(in.Status, now)
	if explicit := slug.Explicit(in.Slug); explicit != nil {
		p.Slug = explicit
	}
	p.UpdatedAt = now

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("求人の更新に失敗しました: %w", err)
	}
	return p, nil
}

// Transition は状態遷移規則に従って求人の状態を変更する。
// 終端状態からの遷移や定義されていない遷移はINVALID_TRANSITIONとなる。
func (s *Service) Transition(ctx context.Context, id string, to model.PostingStatus) (*model.Posting, error) {
	if !to.IsValid() {
		return nil, model.NewValidationError("status", "求人の状態が不正です")
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := p.Status
	if !from.CanTransitionTo(to) {
		return nil, model.NewInvalidTransitionError(string(from), string(to))
	}

	p.SetStatus(to, s.now())
	if err := s.repo.UpdateStatus(ctx, p.ID, p.Status, p.PublishedAt); err != nil {
		return nil, fmt.Errorf("求人の状態更新に失敗しました: %w", err)
	}

	s.metrics.RecordPostingTransition(string(from), string(to))
	slog.Info("posting status changed",
		slog.String("posting_id", p.ID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
	return p, nil
}

// Get は求人を取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Posting, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewNotFoundError("求人", id)
	}
	return p, nil
}

// GetBySlug は状態に関わらず求人をslugで取得する。閲覧数は加算しない。
func (s *Service) GetBySlug(ctx context.Context, value string) (*model.Posting, error) {
	p, err := s.repo.FindBySlug(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewNotFoundError("求人", value)
	}
	return p, nil
}

// GetPublicBySlug は公開中の求人をslugで取得し、閲覧数を加算する。
// 公開中でない求人は見つからない扱い。
func (s *Service) GetPublicBySlug(ctx context.Context, value string) (*model.Posting, error) {
	p, err := s.repo.FindBySlug(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if p == nil || p.Status != model.PostingPublished {
		return nil, model.NewNotFoundError("求人", value)
	}

	if err := s.repo.IncrementViewCount(ctx, p.ID); err != nil {
		// 閲覧数の加算失敗で表示は妨げない
		slog.Warn("failed to increment view count",
			slog.String("posting_id", p.ID),
			slog.String("error", err.Error()),
		)
	} else {
		p.ViewCount++
	}
	return p, nil
}

// LoadDetail は求人の子コレクションを並行して読み込む。
func (s *Service) LoadDetail(ctx context.Context, p *model.Posting) (*Detail, error) {
	d := &Detail{Posting: p}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Keywords, err = s.repo.ListKeywords(gctx, p.ID)
		return err
	})
	g.Go(func() (err error) {
		d.Languages, err = s.repo.ListLanguages(gctx, p.ID)
		return err
	})
	g.Go(func() (err error) {
		d.Questions, err = s.repo.ListQuestions(gctx, p.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("求人詳細の読み込みに失敗しました: %w", err)
	}
	return d, nil
}

// List は絞り込み条件に合う求人と総件数を返す。
func (s *Service) List(ctx context.Context, filter model.PostingFilter) ([]*model.Posting, int, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("求人一覧の取得に失敗しました: %w", err)
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("求人件数の取得に失敗しました: %w", err)
	}
	return list, total, nil
}

// ListPublic は公開中の求人一覧を公開日時の新しい順に返す。
func (s *Service) ListPublic(ctx context.Context, filter model.PostingFilter) ([]*model.Posting, int, error) {
	filter.Status = model.PostingPublished
	return s.List(ctx, filter)
}

// Delete は求人を削除する。応募・子コレクション・採用結果も削除される。
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("求人の削除に失敗しました: %w", err)
	}
	slog.Info("posting deleted", slog.String("posting_id", id))
	return nil
}
