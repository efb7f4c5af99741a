package postgres

import (
	"context"
	"regexp"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestSnapshotStore_EmployeeIDsByBatchID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	store := NewSnapshotStore(mock)

	query := regexp.QuoteMeta(`
        SELECT employee_id
          FROM employee_snapshot
         WHERE batch_id = $1
         ORDER BY employee_id
    `)
	rows := pgxmock.NewRows([]string{"employee_id"}).
		AddRow(int64(1)).
		AddRow(int64(3))

	mock.ExpectQuery(query).WithArgs("batch-1").WillReturnRows(rows)

	ids, err := store.EmployeeIDsByBatchID(context.Background(), "batch-1")
	if err != nil {
		t.Fatalf("EmployeeIDsByBatchID returned error: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Fatalf("unexpected ids: %v", ids)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSnapshotStore_SaveAll_EmptyInput(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	store := NewSnapshotStore(mock)

	if err := store.SaveAll(context.Background(), nil); err != nil {
		t.Fatalf("SaveAll returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
