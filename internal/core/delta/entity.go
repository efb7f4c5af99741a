package delta

import "time"

// Type は検出された差分の種別です。
type Type string

const (
	TypeNew     Type = "NEW"
	TypeUpdated Type = "UPDATED"
	TypeDeleted Type = "DELETED"
)

// Delta は 2 つのバッチのスナップショット集合を比較して検出された
// 1 社員分の差分レコードです。(EmployeeID, BatchID) ごとに高々 1 件で、
// UPDATED は比較対象フィールドに実際の差がある場合にのみ作成されます。
type Delta struct {
	ID              int64
	EmployeeID      int64
	BatchID         string
	PreviousBatchID *string
	Type            Type
	DetectedAt      time.Time

	PreviousName   *string
	PreviousAge    *int
	PreviousStatus *string
	PreviousDOB    *time.Time

	CurrentName   *string
	CurrentAge    *int
	CurrentStatus *string
	CurrentDOB    *time.Time

	ChangedFields []string
	ChangeSummary string
}

// Summary はバッチ 1 件分の差分種別ごとの件数です。
type Summary struct {
	BatchID string
	New     int
	Updated int
	Deleted int
}

// Total は全差分種別の合計件数を返します。
func (s Summary) Total() int {
	return s.New + s.Updated + s.Deleted
}
