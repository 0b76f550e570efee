package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/istihdam/internal/model"
)

// PostgresGeographyRepo はPostgreSQLを使用した県・郡・地区リポジトリ。
type PostgresGeographyRepo struct {
	db *sql.DB
}

// NewPostgresGeographyRepo はPostgresGeographyRepoを生成する。
func NewPostgresGeographyRepo(db *sql.DB) *PostgresGeographyRepo {
	return &PostgresGeographyRepo{db: db}
}

func scanProvince(row rowScanner) (*model.Province, error) {
	p := &model.Province{}
	var slug sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &slug, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Slug = nullStringPtr(slug)
	return p, nil
}

func scanDistrict(row rowScanner) (*model.District, error) {
	d := &model.District{}
	var slug sql.NullString
	if err := row.Scan(&d.ID, &d.ProvinceID, &d.Name, &slug, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.Slug = nullStringPtr(slug)
	return d, nil
}

func scanNeighborhood(row rowScanner) (*model.Neighborhood, error) {
	n := &model.Neighborhood{}
	var slug sql.NullString
	if err := row.Scan(&n.ID, &n.DistrictID, &n.Name, &slug, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Slug = nullStringPtr(slug)
	return n, nil
}

// CreateProvince は県を作成する。
func (r *PostgresGeographyRepo) CreateProvince(ctx context.Context, p *model.Province) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO provinces (id, name, slug, created_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.Slug, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert province: %w", mapPQError(err))
	}
	return nil
}

// FindProvinceByID は指定IDの県を取得する。見つからない場合はnilを返す。
func (r *PostgresGeographyRepo) FindProvinceByID(ctx context.Context, id string) (*model.Province, error) {
	p, err := scanProvince(r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, created_at FROM provinces WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find province: %w", mapPQError(err))
	}
	return p, nil
}

// FindProvinceBySlug はslugで県を検索する。見つからない場合はnilを返す。
func (r *PostgresGeographyRepo) FindProvinceBySlug(ctx context.Context, slug string) (*model.Province, error) {
	p, err := scanProvince(r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, created_at FROM provinces WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find province by slug: %w", mapPQError(err))
	}
	return p, nil
}

// ListProvinces は県を名前順で返す。
func (r *PostgresGeographyRepo) ListProvinces(ctx context.Context) ([]*model.Province, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, slug, created_at FROM provinces ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list provinces: %w", mapPQError(err))
	}
	defer rows.Close()

	var provinces []*model.Province
	for rows.Next() {
		p, err := scanProvince(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan province: %w", mapPQError(err))
		}
		provinces = append(provinces, p)
	}
	return provinces, rows.Err()
}

// UpdateProvince は県の名前とslugを更新する。
func (r *PostgresGeographyRepo) UpdateProvince(ctx context.Context, p *model.Province) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE provinces SET name = $2, slug = $3 WHERE id = $1`,
		p.ID, p.Name, p.Slug,
	)
	if err != nil {
		return fmt.Errorf("failed to update province: %w", mapPQError(err))
	}
	return requireAffected(result, "県", p.ID)
}

// DeleteProvince は県を削除する。
func (r *PostgresGeographyRepo) DeleteProvince(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM provinces WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete province: %w", mapPQError(err))
	}
	return requireAffected(result, "県", id)
}

// CreateDistrict は郡を作成する。
func (r *PostgresGeographyRepo) CreateDistrict(ctx context.Context, d *model.District) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO districts (id, province_id, name, slug, created_at) VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.ProvinceID, d.Name, d.Slug, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert district: %w", mapPQError(err))
	}
	return nil
}

// FindDistrictByID は指定IDの郡を取得する。見つからない場合はnilを返す。
func (r *PostgresGeographyRepo) FindDistrictByID(ctx context.Context, id string) (*model.District, error) {
	d, err := scanDistrict(r.db.QueryRowContext(ctx,
		`SELECT id, province_id, name, slug, created_at FROM districts WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find district: %w", mapPQError(err))
	}
	return d, nil
}

// FindDistrictBySlug は県内のslugで郡を検索する。見つからない場合はnilを返す。
func (r *PostgresGeographyRepo) FindDistrictBySlug(ctx context.Context, provinceID, slug string) (*model.District, error) {
	d, err := scanDistrict(r.db.QueryRowContext(ctx,
		`SELECT id, province_id, name, slug, created_at FROM districts WHERE province_id = $1 AND slug = $2`,
		provinceID, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find district by slug: %w", mapPQError(err))
	}
	return d, nil
}

// ListDistricts は県に属する郡を名前順で返す。
func (r *PostgresGeographyRepo) ListDistricts(ctx context.Context, provinceID string) ([]*model.District, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, province_id, name, slug, created_at FROM districts WHERE province_id = $1 ORDER BY name ASC`,
		provinceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list districts: %w", mapPQError(err))
	}
	defer rows.Close()

	var districts []*model.District
	for rows.Next() {
		d, err := scanDistrict(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan district: %w", mapPQError(err))
		}
		districts = append(districts, d)
	}
	return districts, rows.Err()
}

// UpdateDistrict は郡の名前とslugを更新する。所属する県は変更しない。
func (r *PostgresGeographyRepo) UpdateDistrict(ctx context.Context, d *model.District) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE districts SET name = $2, slug = $3 WHERE id = $1`,
		d.ID, d.Name, d.Slug,
	)
	if err != nil {
		return fmt.Errorf("failed to update district: %w", mapPQError(err))
	}
	return requireAffected(result, "郡", d.ID)
}

// DeleteDistrict は郡を削除する。
func (r *PostgresGeographyRepo) DeleteDistrict(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM districts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete district: %w", mapPQError(err))
	}
	return requireAffected(result, "郡", id)
}

// CreateNeighborhood は地区を作成する。
func (r *PostgresGeographyRepo) CreateNeighborhood(ctx context.Context, n *model.Neighborhood) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO neighborhoods (id, district_id, name, slug, created_at) VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.DistrictID, n.Name, n.Slug, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert neighborhood: %w", mapPQError(err))
	}
	return nil
}

// FindNeighborhoodByID は指定IDの地区を取得する。見つからない場合はnilを返す。
func (r *PostgresGeographyRepo) FindNeighborhoodByID(ctx context.Context, id string) (*model.Neighborhood, error) {
	n, err := scanNeighborhood(r.db.QueryRowContext(ctx,
		`SELECT id, district_id, name, slug, created_at FROM neighborhoods WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find neighborhood: %w", mapPQError(err))
	}
	return n, nil
}

// ListNeighborhoods は郡に属する地区を名前順で返す。
func (r *PostgresGeographyRepo) ListNeighborhoods(ctx context.Context, districtID string) ([]*model.Neighborhood, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, district_id, name, slug, created_at FROM neighborhoods WHERE district_id = $1 ORDER BY name ASC`,
		districtID)
	if err != nil {
		return nil, fmt.Errorf("failed to list neighborhoods: %w", mapPQError(err))
	}
	defer rows.Close()

	var neighborhoods []*model.Neighborhood
	for rows.Next() {
		n, err := scanNeighborhood(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan neighborhood: %w", mapPQError(err))
		}
		neighborhoods = append(neighborhoods, n)
	}
	return neighborhoods, rows.Err()
}

// UpdateNeighborhood は地区の名前とslugを更新する。
func (r *PostgresGeographyRepo) UpdateNeighborhood(ctx context.Context, n *model.Neighborhood) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE neighborhoods SET name = $2, slug = $3 WHERE id = $1`,
		n.ID, n.Name, n.Slug,
	)
	if err != nil {
		return fmt.Errorf("failed to update neighborhood: %w", mapPQError(err))
	}
	return requireAffected(result, "地区", n.ID)
}

// DeleteNeighborhood は地区を削除する。
func (r *PostgresGeographyRepo) DeleteNeighborhood(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM neighborhoods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete neighborhood: %w", mapPQError(err))
	}
	return requireAffected(result, "地区", id)
}

// compile-time interface check
var _ GeographyRepository = (*PostgresGeographyRepo)(nil)
