package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/hitoshi/istihdam/internal/model"
)

var applicationColumns = []string{
	"id", "external_id", "posting_id", "citizen_id", "resume_path", "cover_letter", "status",
	"evaluation", "score", "is_read", "is_favorite", "applied_at", "updated_at", "last_action_at",
}

// PostgresApplicationRepo はPostgreSQLを使用した応募リポジトリ。
type PostgresApplicationRepo struct {
	db *sql.DB
}

// NewPostgresApplicationRepo はPostgresApplicationRepoを生成する。
func NewPostgresApplicationRepo(db *sql.DB) *PostgresApplicationRepo {
	return &PostgresApplicationRepo{db: db}
}

func scanApplication(row rowScanner) (*model.Application, error) {
	a := &model.Application{}
	var score sql.NullInt64
	var lastAction sql.NullTime
	err := row.Scan(
		&a.ID, &a.ExternalID, &a.PostingID, &a.CitizenID, &a.ResumePath, &a.CoverLetter, &a.Status,
		&a.Evaluation, &score, &a.IsRead, &a.IsFavorite, &a.AppliedAt, &a.UpdatedAt, &lastAction,
	)
	if err != nil {
		return nil, err
	}
	a.Score = nullIntPtr(score)
	a.LastActionAt = nullTimePtr(lastAction)
	return a, nil
}

func (r *PostgresApplicationRepo) findOne(ctx context.Context, where squirrel.Eq) (*model.Application, error) {
	query, args, err := builder().Select(applicationColumns...).From("applications").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build application query: %w", mapPQError(err))
	}
	a, err := scanApplication(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find application: %w", mapPQError(err))
	}
	return a, nil
}

// FindByID は指定IDの応募を取得する。見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

// FindByPostingAndCitizen は求人と市民の組で応募を検索する。見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) FindByPostingAndCitizen(ctx context.Context, postingID, citizenID string) (*model.Application, error) {
	return r.findOne(ctx, squirrel.Eq{"posting_id": postingID, "citizen_id": citizenID})
}

func applicationListQuery(f model.ApplicationFilter) squirrel.SelectBuilder {
	eq := squirrel.Eq{}
	if f.PostingID != "" {
		eq["posting_id"] = f.PostingID
	}
	if f.CitizenID != "" {
		eq["citizen_id"] = f.CitizenID
	}
	if f.Status != "" {
		eq["status"] = f.Status
	}
	if f.IsRead != nil {
		eq["is_read"] = *f.IsRead
	}
	if f.IsFavorite != nil {
		eq["is_favorite"] = *f.IsFavorite
	}

	q := builder().Select(applicationColumns...).From("applications")
	if len(eq) > 0 {
		q = q.Where(eq)
	}
	q = q.OrderBy("applied_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	return q
}

// List は絞り込み条件に合う応募を応募日時の新しい順で返す。
func (r *PostgresApplicationRepo) List(ctx context.Context, filter model.ApplicationFilter) ([]*model.Application, error) {
	query, args, err := applicationListQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build application list query: %w", mapPQError(err))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", mapPQError(err))
	}
	defer rows.Close()

	var apps []*model.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", mapPQError(err))
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// Create は応募と回答を作成し、求人の応募数を同一トランザクションで加算する。
func (r *PostgresApplicationRepo) Create(ctx context.Context, app *model.Application, answers []*model.Answer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapPQError(err))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO applications (id, external_id, posting_id, citizen_id, resume_path, cover_letter, status,
			evaluation, score, is_read, is_favorite, applied_at, updated_at, last_action_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		app.ID, app.ExternalID, app.PostingID, app.CitizenID, app.ResumePath, app.CoverLetter, app.Status,
		app.Evaluation, app.Score, app.IsRead, app.IsFavorite, app.AppliedAt, app.UpdatedAt, app.LastActionAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert application: %w", mapPQError(err))
	}

	for _, ans := range answers {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO application_answers (id, application_id, question_id, answer) VALUES ($1, $2, $3, $4)`,
			ans.ID, app.ID, ans.QuestionID, ans.Answer,
		)
		if err != nil {
			return fmt.Errorf("failed to insert answer: %w", mapPQError(err))
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE postings SET application_count = application_count + 1 WHERE id = $1`, app.PostingID); err != nil {
		return fmt.Errorf("failed to increment application count: %w", mapPQError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapPQError(err))
	}
	return nil
}

// UpdateReview は選考状態・評価・スコア・既読・お気に入り・最終処理日時を更新する。
func (r *PostgresApplicationRepo) UpdateReview(ctx context.Context, app *model.Application) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status = $2, evaluation = $3, score = $4, is_read = $5, is_favorite = $6,
			updated_at = $7, last_action_at = $8
		 WHERE id = $1`,
		app.ID, app.Status, app.Evaluation, app.Score, app.IsRead, app.IsFavorite, app.UpdatedAt, app.LastActionAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", mapPQError(err))
	}
	return requireAffected(result, "応募", app.ID)
}

// Delete は応募を削除し、求人の応募数を同一トランザクションで減算する。
func (r *PostgresApplicationRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapPQError(err))
	}
	defer tx.Rollback()

	var postingID string
	err = tx.QueryRowContext(ctx, `DELETE FROM applications WHERE id = $1 RETURNING posting_id`, id).Scan(&postingID)
	if err == sql.ErrNoRows {
		return model.NewNotFoundError("応募", id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", mapPQError(err))
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE postings SET application_count = GREATEST(application_count - 1, 0) WHERE id = $1`, postingID); err != nil {
		return fmt.Errorf("failed to decrement application count: %w", mapPQError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapPQError(err))
	}
	return nil
}

// ListAnswers は応募の回答を返す。
func (r *PostgresApplicationRepo) ListAnswers(ctx context.Context, applicationID string) ([]*model.Answer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.application_id, a.question_id, a.answer
		 FROM application_answers a
		 JOIN screening_questions q ON q.id = a.question_id
		 WHERE a.application_id = $1
		 ORDER BY q.sort_order, q.id`,
		applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", mapPQError(err))
	}
	defer rows.Close()

	var list []*model.Answer
	for rows.Next() {
		a := &model.Answer{}
		if err := rows.Scan(&a.ID, &a.ApplicationID, &a.QuestionID, &a.Answer); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", mapPQError(err))
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// compile-time interface check
var _ ApplicationRepository = (*PostgresApplicationRepo)(nil)
