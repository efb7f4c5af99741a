package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/employee-delta-sync/internal/core/employee"
	pgdb "github.com/ogurasousui/employee-delta-sync/internal/platform/db/postgres"
)

const uniqueViolationCode = "23505"

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// FindByIDs は指定 ID の社員を ID の昇順で返します。存在しない ID は
// 単に結果から欠けるだけで、エラーにはなりません。
func (r *EmployeeRepository) FindByIDs(ctx context.Context, ids []int64) ([]employee.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, name, age, status, dob, batch_id, transaction_id, created_date
          FROM employees
         WHERE id = ANY($1)
         ORDER BY id
    `, ids)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	return collectEmployees(rows)
}

// SaveAll は社員レコードを新規登録します。常に INSERT であり、
// 一意制約に触れた場合は ErrEmployeeExists を返します。
// transaction_id と created_date はデータベース側のデフォルトに任せます。
func (r *EmployeeRepository) SaveAll(ctx context.Context, employees []employee.Employee) error {
	if len(employees) == 0 {
		return nil
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	for _, e := range employees {
		if _, err := exec.Exec(ctx, `
            INSERT INTO employees (id, name, age, status, dob, batch_id)
            VALUES ($1, $2, $3, $4, $5, $6)
        `,
			e.ID,
			e.Name,
			e.Age,
			e.Status,
			nullableDate(e.DOB),
			e.BatchID,
		); err != nil {
			return translateEmployeePgError(err)
		}
	}
	return nil
}

// FindByStatus は指定ステータスの社員を ID の昇順で返します。
func (r *EmployeeRepository) FindByStatus(ctx context.Context, status string) ([]employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, name, age, status, dob, batch_id, transaction_id, created_date
          FROM employees
         WHERE status = $1
         ORDER BY id
    `, status)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	return collectEmployees(rows)
}

// UpdateStatuses は指定 ID の社員のステータスを一括更新します。
func (r *EmployeeRepository) UpdateStatuses(ctx context.Context, ids []int64, status string) error {
	if len(ids) == 0 {
		return nil
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	if _, err := exec.Exec(ctx, `
        UPDATE employees
           SET status = $1
         WHERE id = ANY($2)
    `, status, ids); err != nil {
		return translateEmployeePgError(err)
	}
	return nil
}

func collectEmployees(rows pgx.Rows) ([]employee.Employee, error) {
	var employees []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, translateEmployeePgError(err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}
	return employees, nil
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var (
		id            int64
		name          sql.NullString
		age           sql.NullInt32
		status        sql.NullString
		dob           sql.NullTime
		batchID       string
		transactionID int64
		createdDate   time.Time
	)

	if err := row.Scan(
		&id,
		&name,
		&age,
		&status,
		&dob,
		&batchID,
		&transactionID,
		&createdDate,
	); err != nil {
		return employee.Employee{}, err
	}

	e := employee.Employee{
		ID:            id,
		BatchID:       batchID,
		TransactionID: transactionID,
		CreatedAt:     createdDate,
	}
	if name.Valid {
		v := name.String
		e.Name = &v
	}
	if age.Valid {
		v := int(age.Int32)
		e.Age = &v
	}
	if status.Valid {
		v := status.String
		e.Status = &v
	}
	if dob.Valid {
		e.DOB = datePtr(dob.Time)
	}
	return e, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return employee.ErrEmployeeExists
	}
	return err
}

func datePtr(t time.Time) *time.Time {
	u := t.UTC()
	date := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return &date
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
