package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/employee-delta-sync/internal/core/batch"
	pgdb "github.com/ogurasousui/employee-delta-sync/internal/platform/db/postgres"
)

// BatchRegistry は PostgreSQL を利用した取り込みバッチ台帳の実装です。
type BatchRegistry struct {
	pool pgdb.Queryer
}

// NewBatchRegistry は BatchRegistry を生成します。
func NewBatchRegistry(pool pgdb.Queryer) *BatchRegistry {
	return &BatchRegistry{pool: pool}
}

// Create はバッチを台帳へ登録します。batch_id の重複は ErrDuplicateBatch です。
func (r *BatchRegistry) Create(ctx context.Context, b batch.IngestBatch) (*batch.IngestBatch, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employee_ingest_batch (batch_id, ingested_at, source_file, total_records, new_records, updated_records, status, error_message)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, batch_id, ingested_at, source_file, total_records, new_records, updated_records, status, error_message
    `,
		b.BatchID,
		b.IngestedAt,
		b.SourceFile,
		b.TotalRecords,
		b.NewRecords,
		b.UpdatedRecords,
		string(b.Status),
		b.ErrorMessage,
	)

	created, err := scanBatch(row)
	if err != nil {
		return nil, translateBatchPgError(err)
	}
	return created, nil
}

// Finalize はバッチの件数と終了ステータスを確定します。
func (r *BatchRegistry) Finalize(ctx context.Context, batchID string, status batch.Status, total, newCount, updated int, errorMessage *string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE employee_ingest_batch
           SET status = $1,
               total_records = $2,
               new_records = $3,
               updated_records = $4,
               error_message = $5
         WHERE batch_id = $6
    `, string(status), total, newCount, updated, errorMessage, batchID)
	if err != nil {
		return translateBatchPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return batch.ErrBatchNotFound
	}
	return nil
}

// FindByBatchID は batch_id でバッチを取得します。
func (r *BatchRegistry) FindByBatchID(ctx context.Context, batchID string) (*batch.IngestBatch, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, batch_id, ingested_at, source_file, total_records, new_records, updated_records, status, error_message
          FROM employee_ingest_batch
         WHERE batch_id = $1
         LIMIT 1
    `, batchID)

	found, err := scanBatch(row)
	if err != nil {
		return nil, translateBatchPgError(err)
	}
	return found, nil
}

// MostRecentCompletedBefore は指定時刻より厳密に前に取り込まれた
// 完了バッチのうち最新のものを返します。同時刻は内部 ID の降順です。
func (r *BatchRegistry) MostRecentCompletedBefore(ctx context.Context, t time.Time) (*batch.IngestBatch, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, batch_id, ingested_at, source_file, total_records, new_records, updated_records, status, error_message
          FROM employee_ingest_batch
         WHERE status = $1 AND ingested_at < $2
         ORDER BY ingested_at DESC, id DESC
         LIMIT 1
    `, string(batch.StatusCompleted), t)

	found, err := scanBatch(row)
	if err != nil {
		return nil, translateBatchPgError(err)
	}
	return found, nil
}

// MostRecentCompleted は最新の完了バッチを返します。
func (r *BatchRegistry) MostRecentCompleted(ctx context.Context) (*batch.IngestBatch, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, batch_id, ingested_at, source_file, total_records, new_records, updated_records, status, error_message
          FROM employee_ingest_batch
         WHERE status = $1
         ORDER BY ingested_at DESC, id DESC
         LIMIT 1
    `, string(batch.StatusCompleted))

	found, err := scanBatch(row)
	if err != nil {
		return nil, translateBatchPgError(err)
	}
	return found, nil
}

func scanBatch(row pgx.Row) (*batch.IngestBatch, error) {
	var (
		id             int64
		batchID        string
		ingestedAt     time.Time
		sourceFile     string
		totalRecords   int
		newRecords     int
		updatedRecords int
		status         string
		errorMessage   sql.NullString
	)

	if err := row.Scan(
		&id,
		&batchID,
		&ingestedAt,
		&sourceFile,
		&totalRecords,
		&newRecords,
		&updatedRecords,
		&status,
		&errorMessage,
	); err != nil {
		return nil, err
	}

	b := &batch.IngestBatch{
		ID:             id,
		BatchID:        batchID,
		IngestedAt:     ingestedAt.UTC(),
		SourceFile:     sourceFile,
		TotalRecords:   totalRecords,
		NewRecords:     newRecords,
		UpdatedRecords: updatedRecords,
		Status:         batch.Status(status),
	}
	if errorMessage.Valid {
		v := errorMessage.String
		b.ErrorMessage = &v
	}
	return b, nil
}

func translateBatchPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return batch.ErrBatchNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return batch.ErrDuplicateBatch
	}
	return err
}
