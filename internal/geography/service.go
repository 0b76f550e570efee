// Package geography は県・郡・地区の階層データのドメインロジックを提供する。
package geography

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/istihdam/internal/model"
	"github.com/hitoshi/istihdam/internal/repository"
	"github.com/hitoshi/istihdam/internal/slug"
)

// Service は地理階層のサービス層。
// slugは作成直前に導出され、名前変更では再計算しない。
type Service struct {
	repo repository.GeographyRepository
	now  func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.GeographyRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", model.NewValidationError("name", "名前は必須です")
	}
	return name, nil
}

// CreateProvince は県を作成する。slugが指定されていない場合は名前から導出する。
func (s *Service) CreateProvince(ctx context.Context, name string, explicitSlug *string) (*model.Province, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}

	p := &model.Province{
		ID:        uuid.New().String(),
		Name:      name,
		Slug:      explicitSlug,
		CreatedAt: s.now(),
	}
	if p.Slug == nil {
		p.Slug = slug.Province(name)
	}

	if err := s.repo.CreateProvince(ctx, p); err != nil {
		return nil, fmt.Errorf("県の作成に失敗しました: %w", err)
	}

	slog.Info("province created",
		slog.String("province_id", p.ID),
		slog.String("slug", model.StringValue(p.Slug)),
	)
	return p, nil
}

// CreateDistrict は郡を作成する。
// 県のslugが未確定の場合、郡のslugはnilのまま保存される。
func (s *Service) CreateDistrict(ctx context.Context, provinceID, name string, explicitSlug *string) (*model.District, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}

	province, err := s.repo.FindProvinceByID(ctx, provinceID)
	if err != nil {
		return nil, fmt.Errorf("県の取得に失敗しました: %w", err)
	}
	if province == nil {
		return nil, model.NewNotFoundError("県", provinceID)
	}

	d := &model.District{
		ID:         uuid.New().String(),
		ProvinceID: province.ID,
		Name:       name,
		Slug:       explicitSlug,
		CreatedAt:  s.now(),
	}
	if d.Slug == nil {
		d.Slug = slug.District(province.Slug, name)
	}

	if err := s.repo.CreateDistrict(ctx, d); err != nil {
		return nil, fmt.Errorf("郡の作成に失敗しました: %w", err)
	}
	return d, nil
}

// CreateNeighborhood は地区を作成する。
// slugは県slug・郡名・地区名から導出し、県のslugが未確定ならnilのまま保存される。
func (s *Service) CreateNeighborhood(ctx context.Context, districtID, name string, explicitSlug *string) (*model.Neighborhood, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}

	district, err := s.repo.FindDistrictByID(ctx, districtID)
	if err != nil {
		return nil, fmt.Errorf("郡の取得に失敗しました: %w", err)
	}
	if district == nil {
		return nil, model.NewNotFoundError("郡", districtID)
	}

	n := &model.Neighborhood{
		ID:         uuid.New().String(),
		DistrictID: district.ID,
		Name:       name,
		Slug:       explicitSlug,
		CreatedAt:  s.now(),
	}
	if n.Slug == nil {
		province, err := s.repo.FindProvinceByID(ctx, district.ProvinceID)
		if err != nil {
			return nil, fmt.Errorf("県の取得に失敗しました: %w", err)
		}
		if province != nil {
			n.Slug = slug.Neighborhood(province.Slug, district.Name, name)
		}
	}

	if err := s.repo.CreateNeighborhood(ctx, n); err != nil {
		return nil, fmt.Errorf("地区の作成に失敗しました: %w", err)
	}
	return n, nil
}

// GetProvince は県を取得する。
func (s *Service) GetProvince(ctx context.Context, id string) (*model.Province, error) {
	p, err := s.repo.FindProvinceByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("県の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewNotFoundError("県", id)
	}
	return p, nil
}

// GetProvinceBySlug はslugで県を取得する。
func (s *Service) GetProvinceBySlug(ctx context.Context, provinceSlug string) (*model.Province, error) {
	p, err := s.repo.FindProvinceBySlug(ctx, provinceSlug)
	if err != nil {
		return nil, fmt.Errorf("県の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewNotFoundError("県", provinceSlug)
	}
	return p, nil
}

// GetDistrict は郡を取得する。
func (s *Service) GetDistrict(ctx context.Context, id string) (*model.District, error) {
	d, err := s.repo.FindDistrictByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("郡の取得に失敗しました: %w", err)
	}
	if d == nil {
		return nil, model.NewNotFoundError("郡", id)
	}
	return d, nil
}

// GetNeighborhood は地区を取得する。
func (s *Service) GetNeighborhood(ctx context.Context, id string) (*model.Neighborhood, error) {
	n, err := s.repo.FindNeighborhoodByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("地区の取得に失敗しました: %w", err)
	}
	if n == nil {
		return nil, model.NewNotFoundError("地区", id)
	}
	return n, nil
}

// ListProvinces は県を名前順で返す。
func (s *Service) ListProvinces(ctx context.Context) ([]*model.Province, error) {
	list, err := s.repo.ListProvinces(ctx)
	if err != nil {
		return nil, fmt.Errorf("県一覧の取得に失敗しました: %w", err)
	}
	return list, nil
}

// ListDistricts は県に属する郡を返す。
func (s *Service) ListDistricts(ctx context.Context, provinceID string) ([]*model.District, error) {
	if _, err := s.GetProvince(ctx, provinceID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListDistricts(ctx, provinceID)
	if err != nil {
		return nil, fmt.Errorf("郡一覧の取得に失敗しました: %w", err)
	}
	return list, nil
}

// ListNeighborhoods は郡に属する地区を返す。
func (s *Service) ListNeighborhoods(ctx context.Context, districtID string) ([]*model.Neighborhood, error) {
	if _, err := s.GetDistrict(ctx, districtID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListNeighborhoods(ctx, districtID)
	if err != nil {
		return nil, fmt.Errorf("地区一覧の取得に失敗しました: %w", err)
	}
	return list, nil
}

// RenameProvince は県の名前のみを変更する。保存済みのslugは変更しない。
func (s *Service) RenameProvince(ctx context.Context, id, name string) (*model.Province, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	p, err := s.GetProvince(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = name
	if err := s.repo.UpdateProvince(ctx, p); err != nil {
		return nil, fmt.Errorf("県の更新に失敗しました: %w", err)
	}
	return p, nil
}

// RenameDistrict は郡の名前のみを変更する。保存済みのslugは変更しない。
func (s *Service) RenameDistrict(ctx context.Context, id, name string) (*model.District, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	d, err := s.GetDistrict(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Name = name
	if err := s.repo.UpdateDistrict(ctx, d); err != nil {
		return nil, fmt.Errorf("郡の更新に失敗しました: %w", err)
	}
	return d, nil
}

// RenameNeighborhood は地区の名前のみを変更する。保存済みのslugは変更しない。
func (s *Service) RenameNeighborhood(ctx context.Context, id, name string) (*model.Neighborhood, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	n, err := s.GetNeighborhood(ctx, id)
	if err != nil {
		return nil, err
	}
	n.Name = name
	if err := s.repo.UpdateNeighborhood(ctx, n); err != nil {
		return nil, fmt.Errorf("地区の更新に失敗しました: %w", err)
	}
	return n, nil
}

// normalizeExplicitSlug は明示指定されたslugを正規化する。空になる場合はnil。
func normalizeExplicitSlug(value string) *string {
	v := slug.Normalize(value)
	if v == "" {
		return nil
	}
	return &v
}

// SetProvinceSlug は県のslugを明示的に書き込む。
// 未確定のslugを運用者が手動で解消するために使用する。
func (s *Service) SetProvinceSlug(ctx context.Context, id, value string) (*model.Province, error) {
	p, err := s.GetProvince(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Slug = normalizeExplicitSlug(value)
	if err := s.repo.UpdateProvince(ctx, p); err != nil {
		return nil, fmt.Errorf("県の更新に失敗しました: %w", err)
	}
	return p, nil
}

// SetDistrictSlug は郡のslugを明示的に書き込む。
func (s *Service) SetDistrictSlug(ctx context.Context, id, value string) (*model.District, error) {
	d, err := s.GetDistrict(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Slug = normalizeExplicitSlug(value)
	if err := s.repo.UpdateDistrict(ctx, d); err != nil {
		return nil, fmt.Errorf("郡の更新に失敗しました: %w", err)
	}
	return d, nil
}

// SetNeighborhoodSlug は地区のslugを明示的に書き込む。
func (s *Service) SetNeighborhoodSlug(ctx context.Context, id, value string) (*model.Neighborhood, error) {
	n, err := s.GetNeighborhood(ctx, id)
	if err != nil {
		return nil, err
	}
	n.Slug = normalizeExplicitSlug(value)
	if err := s.repo.UpdateNeighborhood(ctx, n); err != nil {
		return nil, fmt.Errorf("地区の更新に失敗しました: %w", err)
	}
	return n, nil
}

// DeleteProvince は県を削除する。郡・地区も削除され、
// 市民・企業・求人の所在地参照は解除される。
func (s *Service) DeleteProvince(ctx context.Context, id string) error {
	if err := s.repo.DeleteProvince(ctx, id); err != nil {
		return fmt.Errorf("県の削除に失敗しました: %w", err)
	}
	slog.Info("province deleted", slog.String("province_id", id))
	return nil
}

// DeleteDistrict は郡を削除する。
func (s *Service) DeleteDistrict(ctx context.Context, id string) error {
	if err := s.repo.DeleteDistrict(ctx, id); err != nil {
		return fmt.Errorf("郡の削除に失敗しました: %w", err)
	}
	return nil
}

// DeleteNeighborhood は地区を削除する。
func (s *Service) DeleteNeighborhood(ctx context.Context, id string) error {
	if err := s.repo.DeleteNeighborhood(ctx, id); err != nil {
		return fmt.Errorf("地区の削除に失敗しました: %w", err)
	}
	return nil
}
