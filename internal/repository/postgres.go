package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/hitoshi/istihdam/internal/model"
)

// PostgreSQLのSQLSTATE
const (
	pqUniqueViolation           = "23505"
	pqForeignKeyViolation       = "23503"
	pqCheckViolation            = "23514"
	pqInvalidTextRepresentation = "22P02"
	pqStringDataRightTruncation = "22001"
)

// builder はプレースホルダを$N形式にしたsquirrelのビルダーを返す。
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// mapPQError はドライバのエラーをドメインエラーに変換する。
// 一意制約違反は制約名付きのUNIQUE_VIOLATIONになる。
// UUID列に不正な文字列を渡した場合と値が列の長さを超える場合は入力エラーとして扱う。
// 変換対象外のエラーはそのまま返す。
func mapPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return model.NewUniqueViolationError(pqErr.Constraint)
	case pqForeignKeyViolation:
		return model.NewValidationError(pqErr.Constraint, "参照先が存在しません")
	case pqCheckViolation:
		return model.NewValidationError(pqErr.Constraint, "値が許容範囲外です")
	case pqInvalidTextRepresentation:
		return model.NewValidationError("id", "識別子の形式が不正です")
	case pqStringDataRightTruncation:
		return model.NewValidationError(pqErr.Column, "値が長すぎます")
	}
	return err
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// execer は*sql.DBと*sql.Txの共通インターフェース。
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// dateOnly は時刻をUTCの日付に切り詰める。DATE型カラムへの書き込みに使う。
func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// requireAffected は更新・削除の対象行が存在したかを検証する。
func requireAffected(result sql.Result, entity, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.NewNotFoundError(entity, id)
	}
	return nil
}
