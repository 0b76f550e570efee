// Package taxonomy は業種・職業の分類データのドメインロジックを提供する。
package taxonomy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/istihdam/internal/model"
	"github.com/hitoshi/istihdam/internal/repository"
	"github.com/hitoshi/istihdam/internal/slug"
)

// TermInput は業種・職業の作成・更新の入力。
// Slugは明示指定時のみ書き込まれる。
type TermInput struct {
	Name        string
	Description string
	Slug        *string
}

func (in TermInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return model.NewValidationError("name", "名前は必須です")
	}
	return nil
}

// explicitSlug は明示指定されたslugを正規化する。空に正規化される場合はnil。
func (in TermInput) explicitSlug() *string {
	return slug.Explicit(in.Slug)
}

// Service は業種・職業のサービス層。
type Service struct {
	repo repository.TaxonomyRepository
	now  func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.TaxonomyRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateSector は業種を作成する。slugは名前から導出する。
func (s *Service) CreateSector(ctx context.Context, in TermInput) (*model.Sector, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	sec := &model.Sector{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Slug:        in.explicitSlug(),
		Description: in.Description,
		CreatedAt:   s.now(),
	}
	if sec.Slug == nil {
		sec.Slug = slug.Sector(sec.Name)
	}
	if err := s.repo.CreateSector(ctx, sec); err != nil {
		return nil, fmt.Errorf("業種の作成に失敗しました: %w", err)
	}
	return sec, nil
}

// GetSector は業種を取得する。
func (s *Service) GetSector(ctx context.Context, id string) (*model.Sector, error) {
	sec, err := s.repo.FindSectorByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("業種の取得に失敗しました: %w", err)
	}
	if sec == nil {
		return nil, model.NewNotFoundError("業種", id)
	}
	return sec, nil
}

// GetSectorBySlug はslugで業種を取得する。
func (s *Service) GetSectorBySlug(ctx context.Context, value string) (*model.Sector, error) {
	sec, err := s.repo.FindSectorBySlug(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("業種の取得に失敗しました: %w", err)
	}
	if sec == nil {
		return nil, model.NewNotFoundError("業種", value)
	}
	return sec, nil
}

// ListSectors は業種を名前順で返す。
func (s *Service) ListSectors(ctx context.Context) ([]*model.Sector, error) {
	list, err := s.repo.ListSectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("業種一覧の取得に失敗しました: %w", err)
	}
	return list, nil
}

// UpdateSector は業種の名前と説明を更新する。slugは明示指定時のみ変更する。
func (s *Service) UpdateSector(ctx context.Context, id string, in TermInput) (*model.Sector, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	sec, err := s.GetSector(ctx, id)
	if err != nil {
		return nil, err
	}
	sec.Name = strings.TrimSpace(in.Name)
	sec.Description = in.Description
	if explicit := in.explicitSlug(); explicit != nil {
		sec.Slug = explicit
	}
	if err := s.repo.UpdateSector(ctx, sec); err != nil {
		return nil, fmt.Errorf("業種の更新に失敗しました: %w", err)
	}
	return sec, nil
}

// DeleteSector は業種を削除する。求人・企業からの参照は解除される。
func (s *Service) DeleteSector(ctx context.Context, id string) error {
	if err := s.repo.DeleteSector(ctx, id); err != nil {
		return fmt.Errorf("業種の削除に失敗しました: %w", err)
	}
	return nil
}

// CreateOccupation は職業を作成する。slugは名前から導出する。
func (s *Service) CreateOccupation(ctx context.Context, in TermInput) (*model.Occupation, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	occ := &model.Occupation{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Slug:        in.explicitSlug(),
		Description: in.Description,
		CreatedAt:   s.now(),
	}
	if occ.Slug == nil {
		occ.Slug = slug.Occupation(occ.Name)
	}
	if err := s.repo.CreateOccupation(ctx, occ); err != nil {
		return nil, fmt.Errorf("職業の作成に失敗しました: %w", err)
	}
	return occ, nil
}

// GetOccupation は職業を取得する。
func (s *Service) GetOccupation(ctx context.Context, id string) (*model.Occupation, error) {
	occ, err := s.repo.FindOccupationByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("職業の取得に失敗しました: %w", err)
	}
	if occ == nil {
		return nil, model.NewNotFoundError("職業", id)
	}
	return occ, nil
}

// GetOccupationBySlug はslugで職業を取得する。
func (s *Service) GetOccupationBySlug(ctx context.Context, value string) (*model.Occupation, error) {
	occ, err := s.repo.FindOccupationBySlug(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("職業の取得に失敗しました: %w", err)
	}
	if occ == nil {
		return nil, model.NewNotFoundError("職業", value)
	}
	return occ, nil
}

// ListOccupations は職業を名前順で返す。
func (s *Service) ListOccupations(ctx context.Context) ([]*model.Occupation, error) {
	list, err := s.repo.ListOccupations(ctx)
	if err != nil {
		return nil, fmt.Errorf("職業一覧の取得に失敗しました: %w", err)
	}
	return list, nil
}

// UpdateOccupation は職業の名前と説明を更新する。slugは明示指定時のみ変更する。
func (s *Service) UpdateOccupation(ctx context.Context, id string, in TermInput) (*model.Occupation, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	occ, err := s.GetOccupation(ctx, id)
	if err != nil {
		return nil, err
	}
	occ.Name = strings.TrimSpace(in.Name)
	occ.Description = in.Description
	if explicit := in.explicitSlug(); explicit != nil {
		occ.Slug = explicit
	}
	if err := s.repo.UpdateOccupation(ctx, occ); err != nil {
		return nil, fmt.Errorf("職業の更新に失敗しました: %w", err)
	}
	return occ, nil
}

// DeleteOccupation は職業を削除する。職人の専門分野は一緒に削除される。
func (s *Service) DeleteOccupation(ctx context.Context, id string) error {
	if err := s.repo.DeleteOccupation(ctx, id); err != nil {
		return fmt.Errorf("職業の削除に失敗しました: %w", err)
	}
	return nil
}
