package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/istihdam/internal/model"
)

const outcomeColumns = `id, posting_id, completed, completed_at, total_applications, interviewed_count,
	hired_count, description, success_score, internal_evaluation, created_at, updated_at`

// PostgresOutcomeRepo はPostgreSQLを使用した採用結果リポジトリ。
type PostgresOutcomeRepo struct {
	db *sql.DB
}

// NewPostgresOutcomeRepo はPostgresOutcomeRepoを生成する。
func NewPostgresOutcomeRepo(db *sql.DB) *PostgresOutcomeRepo {
	return &PostgresOutcomeRepo{db: db}
}

func scanOutcome(row rowScanner) (*model.Outcome, error) {
	o := &model.Outcome{}
	var completedAt sql.NullTime
	var successScore sql.NullInt64
	err := row.Scan(
		&o.ID, &o.PostingID, &o.Completed, &completedAt, &o.TotalApplications, &o.InterviewedCount,
		&o.HiredCount, &o.Description, &successScore, &o.InternalEvaluation, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.CompletedAt = nullTimePtr(completedAt)
	o.SuccessScore = nullIntPtr(successScore)
	return o, nil
}

// loadHires は採用者の応募IDを読み込む。
func (r *PostgresOutcomeRepo) loadHires(ctx context.Context, o *model.Outcome) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT application_id FROM outcome_hires WHERE outcome_id = $1 ORDER BY application_id`, o.ID)
	if err != nil {
		return fmt.Errorf("failed to load outcome hires: %w", mapPQError(err))
	}
	defer rows.Close()

	o.HiredApplicationIDs = nil
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan outcome hire: %w", mapPQError(err))
		}
		o.HiredApplicationIDs = append(o.HiredApplicationIDs, id)
	}
	return rows.Err()
}

func (r *PostgresOutcomeRepo) findOne(ctx context.Context, column, value string) (*model.Outcome, error) {
	o, err := scanOutcome(r.db.QueryRowContext(ctx,
		`SELECT `+outcomeColumns+` FROM posting_outcomes WHERE `+column+` = $1`, value))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find outcome: %w", mapPQError(err))
	}
	if err := r.loadHires(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// FindByID は指定IDの採用結果を取得する。見つからない場合はnilを返す。
func (r *PostgresOutcomeRepo) FindByID(ctx context.Context, id string) (*model.Outcome, error) {
	return r.findOne(ctx, "id", id)
}

// FindByPostingID は求人の採用結果を取得する。見つからない場合はnilを返す。
func (r *PostgresOutcomeRepo) FindByPostingID(ctx context.Context, postingID string) (*model.Outcome, error) {
	return r.findOne(ctx, "posting_id", postingID)
}

// List は採用結果を更新日時の新しい順で返す。採用者IDは読み込まない。
func (r *PostgresOutcomeRepo) List(ctx context.Context, limit, offset uint64) ([]*model.Outcome, error) {
	query, args, err := builder().
		Select(outcomeColumns).
		From("posting_outcomes").
		OrderBy("updated_at DESC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build outcome list query: %w", mapPQError(err))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", mapPQError(err))
	}
	defer rows.Close()

	var outcomes []*model.Outcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", mapPQError(err))
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// Save は採用結果・採用者・求人状態を1つのトランザクションで保存する。
// 応募総数は実際の応募件数から再計算してoに反映する。
// 採用者に別の求人の応募が含まれる場合は検証エラーを返す。
func (r *PostgresOutcomeRepo) Save(ctx context.Context, o *model.Outcome, closePosting bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapPQError(err))
	}
	defer tx.Rollback()

	// 求人行をロックして同時保存を直列化する
	var postingExists bool
	err = tx.QueryRowContext(ctx,
		`SELECT true FROM postings WHERE id = $1 FOR UPDATE`, o.PostingID).Scan(&postingExists)
	if err == sql.ErrNoRows {
		return model.NewNotFoundError("求人", o.PostingID)
	}
	if err != nil {
		return fmt.Errorf("failed to lock posting: %w", mapPQError(err))
	}

	if len(o.HiredApplicationIDs) > 0 {
		var matched int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM applications WHERE posting_id = $1 AND id = ANY($2)`,
			o.PostingID, pq.Array(o.HiredApplicationIDs)).Scan(&matched)
		if err != nil {
			return fmt.Errorf("failed to verify hired applications: %w", mapPQError(err))
		}
		if matched != len(o.HiredApplicationIDs) {
			return model.NewValidationError("hired_application_ids", "採用者にこの求人への応募ではないものが含まれています")
		}
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications WHERE posting_id = $1`, o.PostingID).Scan(&o.TotalApplications); err != nil {
		return fmt.Errorf("failed to count applications: %w", mapPQError(err))
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO posting_outcomes (id, posting_id, completed, completed_at, total_applications, interviewed_count,
			hired_count, description, success_score, internal_evaluation, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (posting_id) DO UPDATE SET
			completed = EXCLUDED.completed,
			completed_at = EXCLUDED.completed_at,
			total_applications = EXCLUDED.total_applications,
			interviewed_count = EXCLUDED.interviewed_count,
			hired_count = EXCLUDED.hired_count,
			description = EXCLUDED.description,
			success_score = EXCLUDED.success_score,
			internal_evaluation = EXCLUDED.internal_evaluation,
			updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at`,
		o.ID, o.PostingID, o.Completed, o.CompletedAt, o.TotalApplications, o.InterviewedCount,
		o.HiredCount, o.Description, o.SuccessScore, o.InternalEvaluation, o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save outcome: %w", mapPQError(err))
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM outcome_hires WHERE outcome_id = $1`, o.ID); err != nil {
		return fmt.Errorf("failed to clear outcome hires: %w", mapPQError(err))
	}
	if len(o.HiredApplicationIDs) > 0 {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO outcome_hires (outcome_id, application_id)
			 SELECT $1, unnest($2::uuid[]) ON CONFLICT DO NOTHING`,
			o.ID, pq.Array(o.HiredApplicationIDs))
		if err != nil {
			return fmt.Errorf("failed to insert outcome hires: %w", mapPQError(err))
		}
	}

	if closePosting {
		_, err := tx.ExecContext(ctx,
			`UPDATE postings SET status = $2, updated_at = $3 WHERE id = $1`,
			o.PostingID, model.PostingClosed, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to close posting: %w", mapPQError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapPQError(err))
	}
	return nil
}

// Delete は採用結果を削除する。求人の状態は変更しない。
func (r *PostgresOutcomeRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posting_outcomes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete outcome: %w", mapPQError(err))
	}
	return requireAffected(result, "採用結果", id)
}

// compile-time interface check
var _ OutcomeRepository = (*PostgresOutcomeRepo)(nil)
