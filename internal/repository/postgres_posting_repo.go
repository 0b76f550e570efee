package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/hitoshi/istihdam/internal/model"
)

var postingColumns = []string{
	"id", "external_id", "title", "slug", "company_id", "position", "description", "sector_id",
	"department", "work_model", "workplace", "province_id", "district_id", "address",
	"required_qualifications", "preferred_qualifications", "education_level", "experience_level",
	"salary_info", "salary_hidden", "benefits", "application_start", "application_end",
	"expected_applications", "headcount", "status", "featured", "application_count", "view_count",
	"created_at", "updated_at", "published_at",
}

// PostgresPostingRepo はPostgreSQLを使用した求人リポジトリ。
type PostgresPostingRepo struct {
	db *sql.DB
}

// NewPostgresPostingRepo はPostgresPostingRepoを生成する。
func NewPostgresPostingRepo(db *sql.DB) *PostgresPostingRepo {
	return &PostgresPostingRepo{db: db}
}

func scanPosting(row rowScanner) (*model.Posting, error) {
	p := &model.Posting{}
	var slug, sectorID, provinceID, districtID sql.NullString
	var appStart, appEnd, publishedAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.ExternalID, &p.Title, &slug, &p.CompanyID, &p.Position, &p.Description, &sectorID,
		&p.Department, &p.WorkModel, &p.Workplace, &provinceID, &districtID, &p.Address,
		&p.RequiredQualifications, &p.PreferredQualifications, &p.EducationLevel, &p.ExperienceLevel,
		&p.SalaryInfo, &p.SalaryHidden, &p.Benefits, &appStart, &appEnd,
		&p.ExpectedApplications, &p.Headcount, &p.Status, &p.Featured, &p.ApplicationCount, &p.ViewCount,
		&p.CreatedAt, &p.UpdatedAt, &publishedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Slug = nullStringPtr(slug)
	p.SectorID = nullStringPtr(sectorID)
	p.ProvinceID = nullStringPtr(provinceID)
	p.DistrictID = nullStringPtr(districtID)
	p.ApplicationStart = nullTimePtr(appStart)
	p.ApplicationEnd = nullTimePtr(appEnd)
	p.PublishedAt = nullTimePtr(publishedAt)
	return p, nil
}

func (r *PostgresPostingRepo) findOne(ctx context.Context, where squirrel.Eq) (*model.Posting, error) {
	query, args, err := builder().Select(postingColumns...).From("postings").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build posting query: %w", mapPQError(err))
	}
	p, err := scanPosting(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find posting: %w", mapPQError(err))
	}
	return p, nil
}

// FindByID は指定IDの求人を取得する。見つからない場合はnilを返す。
func (r *PostgresPostingRepo) FindByID(ctx context.Context, id string) (*model.Posting, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

// FindBySlug はslugで求人を検索する。見つからない場合はnilを返す。
func (r *PostgresPostingRepo) FindBySlug(ctx context.Context, slug string) (*model.Posting, error) {
	return r.findOne(ctx, squirrel.Eq{"slug": slug})
}

// applyPostingFilter は絞り込み条件をWHERE句に変換する。
func applyPostingFilter(q squirrel.SelectBuilder, f model.PostingFilter) squirrel.SelectBuilder {
	eq := squirrel.Eq{}
	if f.Status != "" {
		eq["status"] = f.Status
	}
	if f.CompanyID != "" {
		eq["company_id"] = f.CompanyID
	}
	if f.SectorID != "" {
		eq["sector_id"] = f.SectorID
	}
	if f.ProvinceID != "" {
		eq["province_id"] = f.ProvinceID
	}
	if f.DistrictID != "" {
		eq["district_id"] = f.DistrictID
	}
	if f.WorkModel != "" {
		eq["work_model"] = f.WorkModel
	}
	if f.Workplace != "" {
		eq["workplace"] = f.Workplace
	}
	if f.Featured != nil {
		eq["featured"] = *f.Featured
	}
	if len(eq) > 0 {
		q = q.Where(eq)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"title": like},
			squirrel.ILike{"position": like},
			squirrel.Expr("EXISTS (SELECT 1 FROM posting_keywords k WHERE k.posting_id = postings.id AND k.keyword ILIKE ?)", like),
		})
	}
	return q
}

func postingListQuery(f model.PostingFilter) squirrel.SelectBuilder {
	q := applyPostingFilter(builder().Select(postingColumns...).From("postings"), f)
	if f.Status == model.PostingPublished {
		q = q.OrderBy("featured DESC", "published_at DESC NULLS LAST")
	} else {
		q = q.OrderBy("created_at DESC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	return q
}

// List は絞り込み条件に合う求人を返す。
func (r *PostgresPostingRepo) List(ctx context.Context, filter model.PostingFilter) ([]*model.Posting, error) {
	query, args, err := postingListQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build posting list query: %w", mapPQError(err))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list postings: %w", mapPQError(err))
	}
	defer rows.Close()

	var postings []*model.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", mapPQError(err))
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

// Count は絞り込み条件に合う求人の件数を返す。
func (r *PostgresPostingRepo) Count(ctx context.Context, filter model.PostingFilter) (int, error) {
	query, args, err := applyPostingFilter(builder().Select("COUNT(*)").From("postings"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build posting count query: %w", mapPQError(err))
	}
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count postings: %w", mapPQError(err))
	}
	return count, nil
}

// Create は求人を作成する。
func (r *PostgresPostingRepo) Create(ctx context.Context, p *model.Posting) error {
	query, args, err := builder().Insert("postings").Columns(postingColumns...).Values(
		p.ID, p.ExternalID, p.Title, p.Slug, p.CompanyID, p.Position, p.Description, p.SectorID,
		p.Department, p.WorkModel, p.Workplace, p.ProvinceID, p.DistrictID, p.Address,
		p.RequiredQualifications, p.PreferredQualifications, p.EducationLevel, p.ExperienceLevel,
		p.SalaryInfo, p.SalaryHidden, p.Benefits, dateOnly(p.ApplicationStart), dateOnly(p.ApplicationEnd),
		p.ExpectedApplications, p.Headcount, p.Status, p.Featured, p.ApplicationCount, p.ViewCount,
		p.CreatedAt, p.UpdatedAt, p.PublishedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build posting insert: %w", mapPQError(err))
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert posting: %w", mapPQError(err))
	}
	return nil
}

// Update は求人の全フィールドを書き込む。応募数・閲覧数は別経路で更新するため対象外。
func (r *PostgresPostingRepo) Update(ctx context.Context, p *model.Posting) error {
	query, args, err := builder().Update("postings").SetMap(map[string]any{
		"title":                    p.Title,
		"slug":                     p.Slug,
		"company_id":               p.CompanyID,
		"position":                 p.Position,
		"description":              p.Description,
		"sector_id":                p.SectorID,
		"department":               p.Department,
		"work_model":               p.WorkModel,
		"workplace":                p.Workplace,
		"province_id":              p.ProvinceID,
		"district_id":              p.DistrictID,
		"address":                  p.Address,
		"required_qualifications":  p.RequiredQualifications,
		"preferred_qualifications": p.PreferredQualifications,
		"education_level":          p.EducationLevel,
		"experience_level":         p.ExperienceLevel,
		"salary_info":              p.SalaryInfo,
		"salary_hidden":            p.SalaryHidden,
		"benefits":                 p.Benefits,
		"application_start":        dateOnly(p.ApplicationStart),
		"application_end":          dateOnly(p.ApplicationEnd),
		"expected_applications":    p.ExpectedApplications,
		"headcount":                p.Headcount,
		"status":                   p.Status,
		"featured":                 p.Featured,
		"updated_at":               p.UpdatedAt,
		"published_at":             p.PublishedAt,
	}).Where(squirrel.Eq{"id": p.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build posting update: %w", mapPQError(err))
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update posting: %w", mapPQError(err))
	}
	return requireAffected(result, "求人", p.ID)
}

// UpdateStatus は状態と公開日時のみを書き込む。
func (r *PostgresPostingRepo) UpdateStatus(ctx context.Context, id string, status model.PostingStatus, publishedAt *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE postings SET status = $2, published_at = $3, updated_at = now() WHERE id = $1`,
		id, status, publishedAt)
	if err != nil {
		return fmt.Errorf("failed to update posting status: %w", mapPQError(err))
	}
	return requireAffected(result, "求人", id)
}

// IncrementViewCount は閲覧数を1加算する。
func (r *PostgresPostingRepo) IncrementViewCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE postings SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", mapPQError(err))
	}
	return nil
}

// Delete は求人を削除する。子コレクション・応募・採用結果はCASCADE削除される。
func (r *PostgresPostingRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM postings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete posting: %w", mapPQError(err))
	}
	return requireAffected(result, "求人", id)
}

// deletePostingChild は求人に属する子レコードを削除する。
func deletePostingChild(ctx context.Context, db execer, table, entity, postingID, id string) error {
	result, err := db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND posting_id = $2`, table), id, postingID)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, mapPQError(err))
	}
	return requireAffected(result, entity, id)
}

// ListKeywords は求人のキーワードを返す。
func (r *PostgresPostingRepo) ListKeywords(ctx context.Context, postingID string) ([]*model.Keyword, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, posting_id, keyword FROM posting_keywords WHERE posting_id = $1 ORDER BY keyword`, postingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list keywords: %w", mapPQError(err))
	}
	defer rows.Close()

	var list []*model.Keyword
	for rows.Next() {
		k := &model.Keyword{}
		if err := rows.Scan(&k.ID, &k.PostingID, &k.Keyword); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", mapPQError(err))
		}
		list = append(list, k)
	}
	return list, rows.Err()
}

// CreateKeyword はキーワードを追加する。同じ求人での重複はUNIQUE_VIOLATIONになる。
func (r *PostgresPostingRepo) CreateKeyword(ctx context.Context, k *model.Keyword) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posting_keywords (id, posting_id, keyword) VALUES ($1, $2, $3)`,
		k.ID, k.PostingID, k.Keyword)
	if err != nil {
		return fmt.Errorf("failed to insert keyword: %w", mapPQError(err))
	}
	return nil
}

// DeleteKeyword はキーワードを削除する。
func (r *PostgresPostingRepo) DeleteKeyword(ctx context.Context, postingID, id string) error {
	return deletePostingChild(ctx, r.db, "posting_keywords", "キーワード", postingID, id)
}

// ListLanguages は求人の語学要件を返す。
func (r *PostgresPostingRepo) ListLanguages(ctx context.Context, postingID string) ([]*model.LanguageRequirement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, posting_id, language, level, required FROM posting_languages WHERE posting_id = $1 ORDER BY language`,
		postingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", mapPQError(err))
	}
	defer rows.Close()

	var list []*model.LanguageRequirement
	for rows.Next() {
		l := &model.LanguageRequirement{}
		if err := rows.Scan(&l.ID, &l.PostingID, &l.Language, &l.Level, &l.Required); err != nil {
			return nil, fmt.Errorf("failed to scan language: %w", mapPQError(err))
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// CreateLanguage は語学要件を追加する。
func (r *PostgresPostingRepo) CreateLanguage(ctx context.Context, l *model.LanguageRequirement) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posting_languages (id, posting_id, language, level, required) VALUES ($1, $2, $3, $4, $5)`,
		l.ID, l.PostingID, l.Language, l.Level, l.Required)
	if err != nil {
		return fmt.Errorf("failed to insert language: %w", mapPQError(err))
	}
	return nil
}

// UpdateLanguage は語学要件を更新する。
func (r *PostgresPostingRepo) UpdateLanguage(ctx context.Context, l *model.LanguageRequirement) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posting_languages SET language = $3, level = $4, required = $5 WHERE id = $1 AND posting_id = $2`,
		l.ID, l.PostingID, l.Language, l.Level, l.Required)
	if err != nil {
		return fmt.Errorf("failed to update language: %w", mapPQError(err))
	}
	return requireAffected(result, "語学要件", l.ID)
}

// DeleteLanguage は語学要件を削除する。
func (r *PostgresPostingRepo) DeleteLanguage(ctx context.Context, postingID, id string) error {
	return deletePostingChild(ctx, r.db, "posting_languages", "語学要件", postingID, id)
}

// ListQuestions は求人のスクリーニング質問を表示順で返す。
func (r *PostgresPostingRepo) ListQuestions(ctx context.Context, postingID string) ([]*model.ScreeningQuestion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, posting_id, question, type, options, required, sort_order
		 FROM screening_questions WHERE posting_id = $1 ORDER BY sort_order, id`,
		postingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", mapPQError(err))
	}
	defer rows.Close()

	var list []*model.ScreeningQuestion
	for rows.Next() {
		q := &model.ScreeningQuestion{}
		if err := rows.Scan(&q.ID, &q.PostingID, &q.Question, &q.Type, pq.Array(&q.Options), &q.Required, &q.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", mapPQError(err))
		}
		list = append(list, q)
	}
	return list, rows.Err()
}

// CreateQuestion はスクリーニング質問を追加する。
func (r *PostgresPostingRepo) CreateQuestion(ctx context.Context, q *model.ScreeningQuestion) error {
	options := q.Options
	if options == nil {
		options = []string{}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO screening_questions (id, posting_id, question, type, options, required, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		q.ID, q.PostingID, q.Question, q.Type, pq.Array(options), q.Required, q.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", mapPQError(err))
	}
	return nil
}

// UpdateQuestion はスクリーニング質問を更新する。
func (r *PostgresPostingRepo) UpdateQuestion(ctx context.Context, q *model.ScreeningQuestion) error {
	options := q.Options
	if options == nil {
		options = []string{}
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE screening_questions SET question = $3, type = $4, options = $5, required = $6, sort_order = $7
		 WHERE id = $1 AND posting_id = $2`,
		q.ID, q.PostingID, q.Question, q.Type, pq.Array(options), q.Required, q.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", mapPQError(err))
	}
	return requireAffected(result, "質問", q.ID)
}

// DeleteQuestion はスクリーニング質問を削除する。
func (r *PostgresPostingRepo) DeleteQuestion(ctx context.Context, postingID, id string) error {
	return deletePostingChild(ctx, r.db, "screening_questions", "質問", postingID, id)
}

// compile-time interface check
var _ PostingRepository = (*PostgresPostingRepo)(nil)
