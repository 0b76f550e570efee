package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/istihdam/internal/model"
)

// 業種と職業は同じ列構成のため、テーブル名を切り替えて共通処理で扱う。
const (
	tableSectors     = "sectors"
	tableOccupations = "occupations"
)

// term は業種・職業の共通の行表現。
type term struct {
	ID          string
	Name        string
	Slug        *string
	Description string
	CreatedAt   time.Time
}

// PostgresTaxonomyRepo はPostgreSQLを使用した業種・職業リポジトリ。
type PostgresTaxonomyRepo struct {
	db *sql.DB
}

// NewPostgresTaxonomyRepo はPostgresTaxonomyRepoを生成する。
func NewPostgresTaxonomyRepo(db *sql.DB) *PostgresTaxonomyRepo {
	return &PostgresTaxonomyRepo{db: db}
}

func scanTerm(row rowScanner) (*term, error) {
	t := &term{}
	var slug sql.NullString
	if err := row.Scan(&t.ID, &t.Name, &slug, &t.Description, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Slug = nullStringPtr(slug)
	return t, nil
}

func (r *PostgresTaxonomyRepo) createTerm(ctx context.Context, table string, t term) error {
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, name, slug, description, created_at) VALUES ($1, $2, $3, $4, $5)`, table),
		t.ID, t.Name, t.Slug, t.Description, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, mapPQError(err))
	}
	return nil
}

func (r *PostgresTaxonomyRepo) findTerm(ctx context.Context, table, column, value string) (*term, error) {
	t, err := scanTerm(r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, name, slug, description, created_at FROM %s WHERE %s = $1`, table, column),
		value))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s by %s: %w", table, column, mapPQError(err))
	}
	return t, nil
}

func (r *PostgresTaxonomyRepo) listTerms(ctx context.Context, table string) ([]*term, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, name, slug, description, created_at FROM %s ORDER BY name ASC`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, mapPQError(err))
	}
	defer rows.Close()

	var terms []*term
	for rows.Next() {
		t, err := scanTerm(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, mapPQError(err))
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

func (r *PostgresTaxonomyRepo) updateTerm(ctx context.Context, table, entity string, t term) error {
	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET name = $2, slug = $3, description = $4 WHERE id = $1`, table),
		t.ID, t.Name, t.Slug, t.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", table, mapPQError(err))
	}
	return requireAffected(result, entity, t.ID)
}

func (r *PostgresTaxonomyRepo) deleteTerm(ctx context.Context, table, entity, id string) error {
	result, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, mapPQError(err))
	}
	return requireAffected(result, entity, id)
}

func sectorFromTerm(t *term) *model.Sector {
	if t == nil {
		return nil
	}
	return &model.Sector{ID: t.ID, Name: t.Name, Slug: t.Slug, Description: t.Description, CreatedAt: t.CreatedAt}
}

func occupationFromTerm(t *term) *model.Occupation {
	if t == nil {
		return nil
	}
	return &model.Occupation{ID: t.ID, Name: t.Name, Slug: t.Slug, Description: t.Description, CreatedAt: t.CreatedAt}
}

// CreateSector は業種を作成する。
func (r *PostgresTaxonomyRepo) CreateSector(ctx context.Context, s *model.Sector) error {
	return r.createTerm(ctx, tableSectors, term(*s))
}

// FindSectorByID は指定IDの業種を取得する。見つからない場合はnilを返す。
func (r *PostgresTaxonomyRepo) FindSectorByID(ctx context.Context, id string) (*model.Sector, error) {
	t, err := r.findTerm(ctx, tableSectors, "id", id)
	return sectorFromTerm(t), err
}

// FindSectorBySlug はslugで業種を検索する。見つからない場合はnilを返す。
func (r *PostgresTaxonomyRepo) FindSectorBySlug(ctx context.Context, slug string) (*model.Sector, error) {
	t, err := r.findTerm(ctx, tableSectors, "slug", slug)
	return sectorFromTerm(t), err
}

// ListSectors は業種を名前順で返す。
func (r *PostgresTaxonomyRepo) ListSectors(ctx context.Context) ([]*model.Sector, error) {
	terms, err := r.listTerms(ctx, tableSectors)
	if err != nil {
		return nil, err
	}
	sectors := make([]*model.Sector, 0, len(terms))
	for _, t := range terms {
		sectors = append(sectors, sectorFromTerm(t))
	}
	return sectors, nil
}

// UpdateSector は業種の名前・slug・説明を更新する。
func (r *PostgresTaxonomyRepo) UpdateSector(ctx context.Context, s *model.Sector) error {
	return r.updateTerm(ctx, tableSectors, "業種", term(*s))
}

// DeleteSector は業種を削除する。求人の参照はNULLになる。
func (r *PostgresTaxonomyRepo) DeleteSector(ctx context.Context, id string) error {
	return r.deleteTerm(ctx, tableSectors, "業種", id)
}

// CreateOccupation は職業を作成する。
func (r *PostgresTaxonomyRepo) CreateOccupation(ctx context.Context, o *model.Occupation) error {
	return r.createTerm(ctx, tableOccupations, term(*o))
}

// FindOccupationByID は指定IDの職業を取得する。見つからない場合はnilを返す。
func (r *PostgresTaxonomyRepo) FindOccupationByID(ctx context.Context, id string) (*model.Occupation, error) {
	t, err := r.findTerm(ctx, tableOccupations, "id", id)
	return occupationFromTerm(t), err
}

// FindOccupationBySlug はslugで職業を検索する。見つからない場合はnilを返す。
func (r *PostgresTaxonomyRepo) FindOccupationBySlug(ctx context.Context, slug string) (*model.Occupation, error) {
	t, err := r.findTerm(ctx, tableOccupations, "slug", slug)
	return occupationFromTerm(t), err
}

// ListOccupations は職業を名前順で返す。
func (r *PostgresTaxonomyRepo) ListOccupations(ctx context.Context) ([]*model.Occupation, error) {
	terms, err := r.listTerms(ctx, tableOccupations)
	if err != nil {
		return nil, err
	}
	occupations := make([]*model.Occupation, 0, len(terms))
	for _, t := range terms {
		occupations = append(occupations, occupationFromTerm(t))
	}
	return occupations, nil
}

// UpdateOccupation は職業の名前・slug・説明を更新する。
func (r *PostgresTaxonomyRepo) UpdateOccupation(ctx context.Context, o *model.Occupation) error {
	return r.updateTerm(ctx, tableOccupations, "職業", term(*o))
}

// DeleteOccupation は職業を削除する。職人の専門分野はCASCADE削除される。
func (r *PostgresTaxonomyRepo) DeleteOccupation(ctx context.Context, id string) error {
	return r.deleteTerm(ctx, tableOccupations, "職業", id)
}

// compile-time interface check
var _ TaxonomyRepository = (*PostgresTaxonomyRepo)(nil)
