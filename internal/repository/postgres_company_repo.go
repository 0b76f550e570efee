package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/hitoshi/istihdam/internal/model"
)

var companyColumns = []string{
	"id", "owner_id", "name", "slug", "logo_path", "description", "email", "phone", "fax", "website",
	"province_id", "district_id", "address", "postal_code", "founded_year", "employee_count",
	"tax_office", "tax_number", "linkedin_url", "twitter_url", "instagram_url", "facebook_url",
	"active", "created_at", "updated_at",
}

// PostgresCompanyRepo はPostgreSQLを使用した企業リポジトリ。
type PostgresCompanyRepo struct {
	db *sql.DB
}

// NewPostgresCompanyRepo はPostgresCompanyRepoを生成する。
func NewPostgresCompanyRepo(db *sql.DB) *PostgresCompanyRepo {
	return &PostgresCompanyRepo{db: db}
}

func scanCompany(row rowScanner) (*model.Company, error) {
	c := &model.Company{}
	var ownerID, slug, provinceID, districtID sql.NullString
	var foundedYear, employeeCount sql.NullInt64
	err := row.Scan(
		&c.ID, &ownerID, &c.Name, &slug, &c.LogoPath, &c.Description, &c.Email, &c.Phone, &c.Fax, &c.Website,
		&provinceID, &districtID, &c.Address, &c.PostalCode, &foundedYear, &employeeCount,
		&c.TaxOffice, &c.TaxNumber, &c.LinkedInURL, &c.TwitterURL, &c.InstagramURL, &c.FacebookURL,
		&c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.OwnerID = nullStringPtr(ownerID)
	c.Slug = nullStringPtr(slug)
	c.ProvinceID = nullStringPtr(provinceID)
	c.DistrictID = nullStringPtr(districtID)
	c.FoundedYear = nullIntPtr(foundedYear)
	c.EmployeeCount = nullIntPtr(employeeCount)
	return c, nil
}

func (r *PostgresCompanyRepo) findOne(ctx context.Context, where squirrel.Eq) (*model.Company, error) {
	query, args, err := builder().Select(companyColumns...).From("companies").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build company query: %w", mapPQError(err))
	}
	c, err := scanCompany(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find company: %w", mapPQError(err))
	}
	if err := r.loadSectors(ctx, []*model.Company{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// FindByID は指定IDの企業を取得する。見つからない場合はnilを返す。
func (r *PostgresCompanyRepo) FindByID(ctx context.Context, id string) (*model.Company, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

// FindBySlug はslugで企業を検索する。見つからない場合はnilを返す。
func (r *PostgresCompanyRepo) FindBySlug(ctx context.Context, slug string) (*model.Company, error) {
	return r.findOne(ctx, squirrel.Eq{"slug": slug})
}

// loadSectors は企業の業種IDをまとめて読み込む。
func (r *PostgresCompanyRepo) loadSectors(ctx context.Context, companies []*model.Company) error {
	if len(companies) == 0 {
		return nil
	}
	byID := make(map[string]*model.Company, len(companies))
	ids := make([]string, 0, len(companies))
	for _, c := range companies {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT company_id, sector_id FROM company_sectors WHERE company_id = ANY($1) ORDER BY sector_id`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load company sectors: %w", mapPQError(err))
	}
	defer rows.Close()

	for rows.Next() {
		var companyID, sectorID string
		if err := rows.Scan(&companyID, &sectorID); err != nil {
			return fmt.Errorf("failed to scan company sector: %w", mapPQError(err))
		}
		if c, ok := byID[companyID]; ok {
			c.SectorIDs = append(c.SectorIDs, sectorID)
		}
	}
	return rows.Err()
}

// applyCompanyFilter は絞り込み条件をWHERE句に変換する。
func applyCompanyFilter(q squirrel.SelectBuilder, f model.CompanyFilter) squirrel.SelectBuilder {
	if f.ActiveOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}
	if f.ProvinceID != "" {
		q = q.Where(squirrel.Eq{"province_id": f.ProvinceID})
	}
	if f.DistrictID != "" {
		q = q.Where(squirrel.Eq{"district_id": f.DistrictID})
	}
	if f.SectorID != "" {
		q = q.Where("EXISTS (SELECT 1 FROM company_sectors cs WHERE cs.company_id = companies.id AND cs.sector_id = ?)", f.SectorID)
	}
	if f.Query != "" {
		q = q.Where(squirrel.ILike{"name": "%" + f.Query + "%"})
	}
	return q
}

func companyListQuery(f model.CompanyFilter) squirrel.SelectBuilder {
	q := applyCompanyFilter(builder().Select(companyColumns...).From("companies"), f).
		OrderBy("created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	return q
}

// List は絞り込み条件に合う企業を新しい順に返す。
func (r *PostgresCompanyRepo) List(ctx context.Context, filter model.CompanyFilter) ([]*model.Company, error) {
	query, args, err := companyListQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build company list query: %w", mapPQError(err))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", mapPQError(err))
	}
	defer rows.Close()

	var companies []*model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", mapPQError(err))
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate companies: %w", mapPQError(err))
	}
	rows.Close()

	if err := r.loadSectors(ctx, companies); err != nil {
		return nil, err
	}
	return companies, nil
}

// Count は絞り込み条件に合う企業の件数を返す。
func (r *PostgresCompanyRepo) Count(ctx context.Context, filter model.CompanyFilter) (int, error) {
	query, args, err := applyCompanyFilter(builder().Select("COUNT(*)").From("companies"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build company count query: %w", mapPQError(err))
	}
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count companies: %w", mapPQError(err))
	}
	return count, nil
}

// replaceSectors は企業の業種紐付けを置き換える。
func replaceSectors(ctx context.Context, tx *sql.Tx, companyID string, sectorIDs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM company_sectors WHERE company_id = $1`, companyID); err != nil {
		return fmt.Errorf("failed to clear company sectors: %w", mapPQError(err))
	}
	if len(sectorIDs) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO company_sectors (company_id, sector_id)
		 SELECT $1, unnest($2::uuid[]) ON CONFLICT DO NOTHING`,
		companyID, pq.Array(sectorIDs))
	if err != nil {
		return fmt.Errorf("failed to insert company sectors: %w", mapPQError(err))
	}
	return nil
}

// Create は企業と業種の紐付けを同一トランザクションで作成する。
func (r *PostgresCompanyRepo) Create(ctx context.Context, c *model.Company) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapPQError(err))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO companies (id, owner_id, name, slug, logo_path, description, email, phone, fax, website,
			province_id, district_id, address, postal_code, founded_year, employee_count,
			tax_office, tax_number, linkedin_url, twitter_url, instagram_url, facebook_url,
			active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		c.ID, c.OwnerID, c.Name, c.Slug, c.LogoPath, c.Description, c.Email, c.Phone, c.Fax, c.Website,
		c.ProvinceID, c.DistrictID, c.Address, c.PostalCode, c.FoundedYear, c.EmployeeCount,
		c.TaxOffice, c.TaxNumber, c.LinkedInURL, c.TwitterURL, c.InstagramURL, c.FacebookURL,
		c.Active, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert company: %w", mapPQError(err))
	}

	if err := replaceSectors(ctx, tx, c.ID, c.SectorIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapPQError(err))
	}
	return nil
}

// Update は企業を更新し、業種の紐付けを置き換える。
func (r *PostgresCompanyRepo) Update(ctx context.Context, c *model.Company) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapPQError(err))
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE companies SET owner_id = $2, name = $3, slug = $4, logo_path = $5, description = $6,
			email = $7, phone = $8, fax = $9, website = $10, province_id = $11, district_id = $12,
			address = $13, postal_code = $14, founded_year = $15, employee_count = $16,
			tax_office = $17, tax_number = $18, linkedin_url = $19, twitter_url = $20,
			instagram_url = $21, facebook_url = $22, active = $23, updated_at = $24
		 WHERE id = $1`,
		c.ID, c.OwnerID, c.Name, c.Slug, c.LogoPath, c.Description,
		c.Email, c.Phone, c.Fax, c.Website, c.ProvinceID, c.DistrictID,
		c.Address, c.PostalCode, c.FoundedYear, c.EmployeeCount,
		c.TaxOffice, c.TaxNumber, c.LinkedInURL, c.TwitterURL,
		c.InstagramURL, c.FacebookURL, c.Active, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", mapPQError(err))
	}
	if err := requireAffected(result, "企業", c.ID); err != nil {
		return err
	}

	if err := replaceSectors(ctx, tx, c.ID, c.SectorIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapPQError(err))
	}
	return nil
}

// UpdateLogo は企業ロゴの保存パスを更新する。
func (r *PostgresCompanyRepo) UpdateLogo(ctx context.Context, id, logoPath string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE companies SET logo_path = $2, updated_at = now() WHERE id = $1`, id, logoPath)
	if err != nil {
		return fmt.Errorf("failed to update company logo: %w", mapPQError(err))
	}
	return requireAffected(result, "企業", id)
}

// Delete は企業を削除する。求人はCASCADE削除される。
func (r *PostgresCompanyRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", mapPQError(err))
	}
	return requireAffected(result, "企業", id)
}

// compile-time interface check
var _ CompanyRepository = (*PostgresCompanyRepo)(nil)
