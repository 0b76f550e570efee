package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/hitoshi/istihdam/internal/model"
)

var citizenColumns = []string{
	"c.id", "c.external_id", "c.account_id", "c.birth_date", "c.gender", "c.photo_path", "c.phone",
	"c.province_id", "c.district_id", "c.address", "c.about", "c.resume_path",
	"c.is_craftsman", "c.is_job_seeker", "c.craftsman_title", "c.craftsman_description",
	"c.linkedin_url", "c.twitter_url", "c.instagram_url", "c.facebook_url", "c.website_url",
	"c.created_at", "c.updated_at",
}

// PostgresCitizenRepo はPostgreSQLを使用した市民リポジトリ。
type PostgresCitizenRepo struct {
	db *sql.DB
}

// NewPostgresCitizenRepo はPostgresCitizenRepoを生成する。
func NewPostgresCitizenRepo(db *sql.DB) *PostgresCitizenRepo {
	return &PostgresCitizenRepo{db: db}
}

// citizenDest は市民カラムのScan先を返す。NULL許容カラムは呼び出し後にfinishで反映する。
func citizenDest(c *model.Citizen) (dest []any, finish func()) {
	var birth sql.NullTime
	var provinceID, districtID sql.NullString
	dest = []any{
		&c.ID, &c.ExternalID, &c.AccountID, &birth, &c.Gender, &c.PhotoPath, &c.Phone,
		&provinceID, &districtID, &c.Address, &c.About, &c.ResumePath,
		&c.IsCraftsman, &c.IsJobSeeker, &c.CraftsmanTitle, &c.CraftsmanDescription,
		&c.LinkedInURL, &c.TwitterURL, &c.InstagramURL, &c.FacebookURL, &c.WebsiteURL,
		&c.CreatedAt, &c.UpdatedAt,
	}
	finish = func() {
		c.BirthDate = nullTimePtr(birth)
		c.ProvinceID = nullStringPtr(provinceID)
		c.DistrictID = nullStringPtr(districtID)
	}
	return dest, finish
}

func (r *PostgresCitizenRepo) findOne(ctx context.Context, where squirrel.Sqlizer) (*model.Citizen, error) {
	query, args, err := builder().Select(citizenColumns...).From("citizens c").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build citizen query: %w", mapPQError(err))
	}

	c := &model.Citizen{}
	dest, finish := citizenDest(c)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(dest...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find citizen: %w", mapPQError(err))
	}
	finish()
	return c, nil
}

// FindByID は指定IDの市民を取得する。見つからない場合はnilを返す。
func (r *PostgresCitizenRepo) FindByID(ctx context.Context, id string) (*model.Citizen, error) {
	return r.findOne(ctx, squirrel.Eq{"c.id": id})
}

// FindByAccountID はアカウントIDで市民を検索する。見つからない場合はnilを返す。
func (r *PostgresCitizenRepo) FindByAccountID(ctx context.Context, accountID string) (*model.Citizen, error) {
	return r.findOne(ctx, squirrel.Eq{"c.account_id": accountID})
}

// Create は市民プロフィールを作成する。
func (r *PostgresCitizenRepo) Create(ctx context.Context, c *model.Citizen) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO citizens (id, external_id, account_id, birth_date, gender, photo_path, phone,
			province_id, district_id, address, about, resume_path, is_craftsman, is_job_seeker,
			craftsman_title, craftsman_description, linkedin_url, twitter_url, instagram_url,
			facebook_url, website_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		c.ID, c.ExternalID, c.AccountID, dateOnly(c.BirthDate), c.Gender, c.PhotoPath, c.Phone,
		c.ProvinceID, c.DistrictID, c.Address, c.About, c.ResumePath, c.IsCraftsman, c.IsJobSeeker,
		c.CraftsmanTitle, c.CraftsmanDescription, c.LinkedInURL, c.TwitterURL, c.InstagramURL,
		c.FacebookURL, c.WebsiteURL, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert citizen: %w", mapPQError(err))
	}
	return nil
}

// Update は市民プロフィールを更新する。アカウントと外部IDは変更しない。
func (r *PostgresCitizenRepo) Update(ctx context.Context, c *model.Citizen) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE citizens SET birth_date = $2, gender = $3, photo_path = $4, phone = $5,
			province_id = $6, district_id = $7, address = $8, about = $9, resume_path = $10,
			is_craftsman = $11, is_job_seeker = $12, craftsman_title = $13, craftsman_description = $14,
			linkedin_url = $15, twitter_url = $16, instagram_url = $17, facebook_url = $18,
			website_url = $19, updated_at = $20
		 WHERE id = $1`,
		c.ID, dateOnly(c.BirthDate), c.Gender, c.PhotoPath, c.Phone,
		c.ProvinceID, c.DistrictID, c.Address, c.About, c.ResumePath,
		c.IsCraftsman, c.IsJobSeeker, c.CraftsmanTitle, c.CraftsmanDescription,
		c.LinkedInURL, c.TwitterURL, c.InstagramURL, c.FacebookURL,
		c.WebsiteURL, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update citizen: %w", mapPQError(err))
	}
	return requireAffected(result, "市民", c.ID)
}

// Delete は市民プロフィールを削除する。子コレクションと応募はCASCADE削除される。
func (r *PostgresCitizenRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM citizens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete citizen: %w", mapPQError(err))
	}
	return requireAffected(result, "市民", id)
}

// applyCitizenFilter は絞り込み条件をWHERE句に変換する。
func applyCitizenFilter(q squirrel.SelectBuilder, f model.CitizenFilter) squirrel.SelectBuilder {
	if f.BirthDateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"c.birth_date": *f.BirthDateFrom})
	}
	if f.BirthDateTo != nil {
		q = q.Where(squirrel.LtOrEq{"c.birth_date": *f.BirthDateTo})
	}
	if f.Gender != "" {
		q = q.Where(squirrel.Eq{"c.gender": f.Gender})
	}
	if f.ProvinceID != "" {
		q = q.Where(squirrel.Eq{"c.province_id": f.ProvinceID})
	}
	if f.Degree != "" {
		q = q.Where("EXISTS (SELECT 1 FROM educations e WHERE e.citizen_id = c.id AND e.degree = ?)", f.Degree)
	}
	if f.HasCertificate != nil {
		cond := "EXISTS (SELECT 1 FROM certificates ce WHERE ce.citizen_id = c.id)"
		if !*f.HasCertificate {
			cond = "NOT " + cond
		}
		q = q.Where(cond)
	}
	if f.OccupationID != "" {
		q = q.Where("EXISTS (SELECT 1 FROM craft_specialties cs WHERE cs.citizen_id = c.id AND cs.occupation_id = ?)", f.OccupationID)
	}
	if f.IsCraftsman != nil {
		q = q.Where(squirrel.Eq{"c.is_craftsman": *f.IsCraftsman})
	}
	if f.IsJobSeeker != nil {
		q = q.Where(squirrel.Eq{"c.is_job_seeker": *f.IsJobSeeker})
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"a.first_name": like},
			squirrel.ILike{"a.last_name": like},
			squirrel.ILike{"c.craftsman_title": like},
		})
	}
	return q
}

// citizenListQuery は一覧取得用のSELECTを組み立てる。
func citizenListQuery(f model.CitizenFilter) squirrel.SelectBuilder {
	columns := append(append([]string{}, citizenColumns...),
		"a.first_name", "a.last_name",
		"COALESCE(p.name, '')", "COALESCE(d.name, '')",
	)
	q := builder().Select(columns...).
		From("citizens c").
		Join("accounts a ON a.id = c.account_id").
		LeftJoin("provinces p ON p.id = c.province_id").
		LeftJoin("districts d ON d.id = c.district_id")
	q = applyCitizenFilter(q, f).OrderBy("c.created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	return q
}

// citizenCountQuery は件数取得用のSELECTを組み立てる。
func citizenCountQuery(f model.CitizenFilter) squirrel.SelectBuilder {
	q := builder().Select("COUNT(*)").
		From("citizens c").
		Join("accounts a ON a.id = c.account_id")
	return applyCitizenFilter(q, f)
}

// List は絞り込み条件に合う市民を姓名・居住地名付きで返す。
func (r *PostgresCitizenRepo) List(ctx context.Context, filter model.CitizenFilter) ([]*model.CitizenSummary, error) {
	query, args, err := citizenListQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build citizen list query: %w", mapPQError(err))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list citizens: %w", mapPQError(err))
	}
	defer rows.Close()

	var citizens []*model.CitizenSummary
	for rows.Next() {
		s := &model.CitizenSummary{}
		dest, finish := citizenDest(&s.Citizen)
		dest = append(dest, &s.FirstName, &s.LastName, &s.ProvinceName, &s.DistrictName)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan citizen: %w", mapPQError(err))
		}
		finish()
		citizens = append(citizens, s)
	}
	return citizens, rows.Err()
}

// Count は絞り込み条件に合う市民の件数を返す。
func (r *PostgresCitizenRepo) Count(ctx context.Context, filter model.CitizenFilter) (int, error) {
	query, args, err := citizenCountQuery(filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build citizen count query: %w", mapPQError(err))
	}
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count citizens: %w", mapPQError(err))
	}
	return count, nil
}

// deleteChild は市民に属する子レコードを削除する。
// 他の市民のレコードは削除できないようcitizen_idも条件に含める。
func deleteChild(ctx context.Context, db execer, table, entity, citizenID, id string) error {
	result, err := db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND citizen_id = $2`, table), id, citizenID)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, mapPQError(err))
	}
	return requireAffected(result, entity, id)
}

// compile-time interface check
var _ CitizenRepository = (*PostgresCitizenRepo)(nil)
