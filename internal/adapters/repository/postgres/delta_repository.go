package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/employee-delta-sync/internal/core/delta"
	pgdb "github.com/ogurasousui/employee-delta-sync/internal/platform/db/postgres"
)

// DeltaRepository は PostgreSQL を利用した差分レコード永続化の実装です。
type DeltaRepository struct {
	pool pgdb.Queryer
}

// NewDeltaRepository は DeltaRepository を生成します。
func NewDeltaRepository(pool pgdb.Queryer) *DeltaRepository {
	return &DeltaRepository{pool: pool}
}

// SaveAll は差分レコードを検出順のまま登録します。同一バッチの再実行で
// 既に登録済みの (employee_id, batch_id) は据え置き、エラーにしません。
func (r *DeltaRepository) SaveAll(ctx context.Context, deltas []*delta.Delta) error {
	if len(deltas) == 0 {
		return nil
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	for _, d := range deltas {
		if _, err := exec.Exec(ctx, `
            INSERT INTO employee_delta (
                employee_id, batch_id, previous_batch_id, delta_type, detected_at,
                previous_name, previous_age, previous_status, previous_dob,
                current_name, current_age, current_status, current_dob,
                changed_fields, change_summary
            )
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
            ON CONFLICT (employee_id, batch_id) DO NOTHING
        `,
			d.EmployeeID,
			d.BatchID,
			d.PreviousBatchID,
			string(d.Type),
			d.DetectedAt,
			d.PreviousName,
			d.PreviousAge,
			d.PreviousStatus,
			nullableDate(d.PreviousDOB),
			d.CurrentName,
			d.CurrentAge,
			d.CurrentStatus,
			nullableDate(d.CurrentDOB),
			d.ChangedFields,
			d.ChangeSummary,
		); err != nil {
			return err
		}
	}
	return nil
}

// FindByBatchID は指定バッチの差分を登録順に返します。
func (r *DeltaRepository) FindByBatchID(ctx context.Context, batchID string) ([]*delta.Delta, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, employee_id, batch_id, previous_batch_id, delta_type, detected_at,
               previous_name, previous_age, previous_status, previous_dob,
               current_name, current_age, current_status, current_dob,
               changed_fields, change_summary
          FROM employee_delta
         WHERE batch_id = $1
         ORDER BY id
    `, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDeltas(rows)
}

// FindByBatchIDAndType は指定バッチの差分を種別で絞って登録順に返します。
func (r *DeltaRepository) FindByBatchIDAndType(ctx context.Context, batchID string, t delta.Type) ([]*delta.Delta, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, employee_id, batch_id, previous_batch_id, delta_type, detected_at,
               previous_name, previous_age, previous_status, previous_dob,
               current_name, current_age, current_status, current_dob,
               changed_fields, change_summary
          FROM employee_delta
         WHERE batch_id = $1 AND delta_type = $2
         ORDER BY id
    `, batchID, string(t))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDeltas(rows)
}

// CountByTypeForBatch は指定バッチの差分件数を種別ごとに集計します。
func (r *DeltaRepository) CountByTypeForBatch(ctx context.Context, batchID string) (map[delta.Type]int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT delta_type, COUNT(*)
          FROM employee_delta
         WHERE batch_id = $1
         GROUP BY delta_type
    `, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[delta.Type]int)
	for rows.Next() {
		var (
			deltaType string
			count     int
		)
		if err := rows.Scan(&deltaType, &count); err != nil {
			return nil, err
		}
		counts[delta.Type(deltaType)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func collectDeltas(rows pgx.Rows) ([]*delta.Delta, error) {
	var deltas []*delta.Delta
	for rows.Next() {
		d, err := scanDelta(rows)
		if err != nil {
			return nil, err
		}
		deltas = append(deltas, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return deltas, nil
}

func scanDelta(row pgx.Row) (*delta.Delta, error) {
	var (
		id              int64
		employeeID      int64
		batchID         string
		previousBatchID sql.NullString
		deltaType       string
		detectedAt      time.Time
		previousName    sql.NullString
		previousAge     sql.NullInt32
		previousStatus  sql.NullString
		previousDOB     sql.NullTime
		currentName     sql.NullString
		currentAge      sql.NullInt32
		currentStatus   sql.NullString
		currentDOB      sql.NullTime
		changedFields   []string
		changeSummary   string
	)

	if err := row.Scan(
		&id,
		&employeeID,
		&batchID,
		&previousBatchID,
		&deltaType,
		&detectedAt,
		&previousName,
		&previousAge,
		&previousStatus,
		&previousDOB,
		&currentName,
		&currentAge,
		&currentStatus,
		&currentDOB,
		&changedFields,
		&changeSummary,
	); err != nil {
		return nil, err
	}

	d := &delta.Delta{
		ID:            id,
		EmployeeID:    employeeID,
		BatchID:       batchID,
		Type:          delta.Type(deltaType),
		DetectedAt:    detectedAt.UTC(),
		ChangedFields: changedFields,
		ChangeSummary: changeSummary,
	}
	if previousBatchID.Valid {
		v := previousBatchID.String
		d.PreviousBatchID = &v
	}
	d.PreviousName = nullableString(previousName)
	d.PreviousAge = nullableInt(previousAge)
	d.PreviousStatus = nullableString(previousStatus)
	if previousDOB.Valid {
		d.PreviousDOB = datePtr(previousDOB.Time)
	}
	d.CurrentName = nullableString(currentName)
	d.CurrentAge = nullableInt(currentAge)
	d.CurrentStatus = nullableString(currentStatus)
	if currentDOB.Valid {
		d.CurrentDOB = datePtr(currentDOB.Time)
	}
	return d, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullableInt(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int32)
	return &i
}
