package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/employee-delta-sync/internal/core/snapshot"
	pgdb "github.com/ogurasousui/employee-delta-sync/internal/platform/db/postgres"
)

// SnapshotStore は PostgreSQL を利用したスナップショット永続化の実装です。
type SnapshotStore struct {
	pool pgdb.Queryer
}

// NewSnapshotStore は SnapshotStore を生成します。
func NewSnapshotStore(pool pgdb.Queryer) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// SaveAll はスナップショットを登録します。常に INSERT です。
func (s *SnapshotStore) SaveAll(ctx context.Context, snapshots []snapshot.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	exec := pgdb.QueryerFromContext(ctx, s.pool)
	for _, snap := range snapshots {
		if _, err := exec.Exec(ctx, `
            INSERT INTO employee_snapshot (employee_id, batch_id, taken_at, name, age, status, dob)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
        `,
			snap.EmployeeID,
			snap.BatchID,
			snap.TakenAt,
			snap.Name,
			snap.Age,
			snap.Status,
			nullableDate(snap.DOB),
		); err != nil {
			return err
		}
	}
	return nil
}

// FindByBatchID は指定バッチのスナップショットを社員 ID の昇順で返します。
func (s *SnapshotStore) FindByBatchID(ctx context.Context, batchID string) ([]snapshot.Snapshot, error) {
	exec := pgdb.QueryerFromContext(ctx, s.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, employee_id, batch_id, taken_at, name, age, status, dob
          FROM employee_snapshot
         WHERE batch_id = $1
         ORDER BY employee_id
    `, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []snapshot.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// EmployeeIDsByBatchID は指定バッチに含まれる社員 ID を昇順で返します。
func (s *SnapshotStore) EmployeeIDsByBatchID(ctx context.Context, batchID string) ([]int64, error) {
	exec := pgdb.QueryerFromContext(ctx, s.pool)
	rows, err := exec.Query(ctx, `
        SELECT employee_id
          FROM employee_snapshot
         WHERE batch_id = $1
         ORDER BY employee_id
    `, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func scanSnapshot(row pgx.Row) (snapshot.Snapshot, error) {
	var (
		id         int64
		employeeID int64
		batchID    string
		takenAt    time.Time
		name       sql.NullString
		age        sql.NullInt32
		status     sql.NullString
		dob        sql.NullTime
	)

	if err := row.Scan(
		&id,
		&employeeID,
		&batchID,
		&takenAt,
		&name,
		&age,
		&status,
		&dob,
	); err != nil {
		return snapshot.Snapshot{}, err
	}

	snap := snapshot.Snapshot{
		ID:         id,
		EmployeeID: employeeID,
		BatchID:    batchID,
		TakenAt:    takenAt.UTC(),
	}
	if name.Valid {
		v := name.String
		snap.Name = &v
	}
	if age.Valid {
		v := int(age.Int32)
		snap.Age = &v
	}
	if status.Valid {
		v := status.String
		snap.Status = &v
	}
	if dob.Valid {
		snap.DOB = datePtr(dob.Time)
	}
	return snap, nil
}
