package snapshot

import (
	"time"

	"github.com/ogurasousui/employee-delta-sync/internal/core/employee"
)

// Snapshot は社員レコードの比較対象フィールドをバッチ時点で写し取った
// 不変の値です。「このバッチに誰が存在したか」を表すもので、変更の有無とは
// 無関係にバッチ内の全社員について 1 件ずつ作成されます。作成後は変更されません。
type Snapshot struct {
	ID         int64
	EmployeeID int64
	BatchID    string
	TakenAt    time.Time
	Name       *string
	Age        *int
	Status     *string
	DOB        *time.Time
}

// FromEmployee は社員レコードからスナップショットを作成します。
func FromEmployee(e employee.Employee, batchID string, takenAt time.Time) Snapshot {
	return Snapshot{
		EmployeeID: e.ID,
		BatchID:    batchID,
		TakenAt:    takenAt,
		Name:       cloneString(e.Name),
		Age:        cloneInt(e.Age),
		Status:     cloneString(e.Status),
		DOB:        cloneTime(e.DOB),
	}
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
