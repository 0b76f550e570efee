package geography

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/istihdam/internal/model"
)

// --- モック ---

type mockGeoRepo struct {
	provinces     map[string]*model.Province
	districts     map[string]*model.District
	neighborhoods map[string]*model.Neighborhood

	createProvinceFn func(ctx context.Context, p *model.Province) error
}

func newMockGeoRepo() *mockGeoRepo {
	return &mockGeoRepo{
		provinces:     map[string]*model.Province{},
		districts:     map[string]*model.District{},
		neighborhoods: map[string]*model.Neighborhood{},
	}
}

func (m *mockGeoRepo) CreateProvince(ctx context.Context, p *model.Province) error {
	if m.createProvinceFn != nil {
		return m.createProvinceFn(ctx, p)
	}
	m.provinces[p.ID] = p
	return nil
}
func (m *mockGeoRepo) FindProvinceByID(_ context.Context, id string) (*model.Province, error) {
	return m.provinces[id], nil
}
func (m *mockGeoRepo) FindProvinceBySlug(_ context.Context, s string) (*model.Province, error) {
	for _, p := range m.provinces {
		if p.Slug != nil && *p.Slug == s {
			return p, nil
		}
	}
	return nil, nil
}
func (m *mockGeoRepo) ListProvinces(_ context.Context) ([]*model.Province, error) { return nil, nil }
func (m *mockGeoRepo) UpdateProvince(_ context.Context, p *model.Province) error {
	m.provinces[p.ID] = p
	return nil
}
func (m *mockGeoRepo) DeleteProvince(_ context.Context, id string) error {
	delete(m.provinces, id)
	return nil
}
func (m *mockGeoRepo) CreateDistrict(_ context.Context, d *model.District) error {
	m.districts[d.ID] = d
	return nil
}
func (m *mockGeoRepo) FindDistrictByID(_ context.Context, id string) (*model.District, error) {
	return m.districts[id], nil
}
func (m *mockGeoRepo) FindDistrictBySlug(_ context.Context, _, _ string) (*model.District, error) {
	return nil, nil
}
func (m *mockGeoRepo) ListDistricts(_ context.Context, _ string) ([]*model.District, error) {
	return nil, nil
}
func (m *mockGeoRepo) UpdateDistrict(_ context.Context, d *model.District) error {
	m.districts[d.ID] = d
	return nil
}
func (m *mockGeoRepo) DeleteDistrict(_ context.Context, _ string) error { return nil }
func (m *mockGeoRepo) CreateNeighborhood(_ context.Context, n *model.Neighborhood) error {
	m.neighborhoods[n.ID] = n
	return nil
}
func (m *mockGeoRepo) FindNeighborhoodByID(_ context.Context, id string) (*model.Neighborhood, error) {
	return m.neighborhoods[id], nil
}
func (m *mockGeoRepo) ListNeighborhoods(_ context.Context, _ string) ([]*model.Neighborhood, error) {
	return nil, nil
}
func (m *mockGeoRepo) UpdateNeighborhood(_ context.Context, n *model.Neighborhood) error {
	m.neighborhoods[n.ID] = n
	return nil
}
func (m *mockGeoRepo) DeleteNeighborhood(_ context.Context, _ string) error { return nil }

// --- テスト ---

func TestCreateProvince_DerivesSlug(t *testing.T) {
	svc := NewService(newMockGeoRepo())

	p, err := svc.CreateProvince(context.Background(), "İstanbul", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.StringValue(p.Slug) != "istanbul" {
		t.Errorf("slug = %q, want istanbul", model.StringValue(p.Slug))
	}
}

func TestCreateProvince_KeepsExplicitSlug(t *testing.T) {
	svc := NewService(newMockGeoRepo())

	p, err := svc.CreateProvince(context.Background(), "Ankara", model.StringPtr("baskent"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.StringValue(p.Slug) != "baskent" {
		t.Errorf("明示したslugが上書きされた: %q", model.StringValue(p.Slug))
	}
}

func TestCreateProvince_EmptyName(t *testing.T) {
	svc := NewService(newMockGeoRepo())

	_, err := svc.CreateProvince(context.Background(), "  ", nil)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Field != "name" {
		t.Fatalf("expected validation error on name, got %v", err)
	}
}

func TestCreateProvince_UniqueViolationPropagates(t *testing.T) {
	repo := newMockGeoRepo()
	repo.createProvinceFn = func(_ context.Context, _ *model.Province) error {
		return model.NewUniqueViolationError("provinces_slug_key")
	}
	svc := NewService(repo)

	_, err := svc.CreateProvince(context.Background(), "Ankara", nil)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUniqueViolation {
		t.Fatalf("expected UNIQUE_VIOLATION, got %v", err)
	}
}

func TestCreateDistrict_PrefixesProvinceSlug(t *testing.T) {
	repo := newMockGeoRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p, _ := svc.CreateProvince(ctx, "Ankara", nil)
	d, err := svc.CreateDistrict(ctx, p.ID, "Çankaya", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.StringValue(d.Slug) != "ankara-cankaya" {
		t.Errorf("slug = %q, want ankara-cankaya", model.StringValue(d.Slug))
	}
}

func TestCreateDistrict_NullProvinceSlugIsNotAnError(t *testing.T) {
	repo := newMockGeoRepo()
	repo.provinces["p1"] = &model.Province{ID: "p1", Name: "???"}
	svc := NewService(repo)

	d, err := svc.CreateDistrict(context.Background(), "p1", "Merkez", nil)
	if err != nil {
		t.Fatalf("県slug未確定はエラーにしない: %v", err)
	}
	if d.Slug != nil {
		t.Errorf("slug = %q, want nil", *d.Slug)
	}
}

func TestCreateDistrict_UnknownProvince(t *testing.T) {
	svc := NewService(newMockGeoRepo())

	_, err := svc.CreateDistrict(context.Background(), "missing", "Merkez", nil)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCreateNeighborhood_UsesDistrictName(t *testing.T) {
	repo := newMockGeoRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p, _ := svc.CreateProvince(ctx, "İzmir", nil)
	d, _ := svc.CreateDistrict(ctx, p.ID, "Karşıyaka", nil)
	// 郡のslugが手動で書き換えられても地区slugは郡名から導出される
	d.Slug = model.StringPtr("ozel")

	n, err := svc.CreateNeighborhood(ctx, d.ID, "Bostanlı", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := model.StringValue(n.Slug); got != "izmir-karsiyaka-bostanli" {
		t.Errorf("slug = %q, want izmir-karsiyaka-bostanli", got)
	}
}

func TestRenameProvince_SlugFrozen(t *testing.T) {
	repo := newMockGeoRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p, _ := svc.CreateProvince(ctx, "Ankara", nil)
	renamed, err := svc.RenameProvince(ctx, p.ID, "Başkent Ankara")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if renamed.Name != "Başkent Ankara" {
		t.Errorf("name = %q", renamed.Name)
	}
	if model.StringValue(renamed.Slug) != "ankara" {
		t.Errorf("名前変更でslugが変わった: %q", model.StringValue(renamed.Slug))
	}
}

func TestSetDistrictSlug_Normalizes(t *testing.T) {
	repo := newMockGeoRepo()
	repo.districts["d1"] = &model.District{ID: "d1", ProvinceID: "p1", Name: "Merkez"}
	svc := NewService(repo)

	d, err := svc.SetDistrictSlug(context.Background(), "d1", "Kırşehir Merkez")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.StringValue(d.Slug) != "kirsehir-merkez" {
		t.Errorf("slug = %q, want kirsehir-merkez", model.StringValue(d.Slug))
	}
}
