package employee

import "time"

// Employee は CSV から取り込まれる社員レコードです。
// ID は取り込み元が採番する自然キーで、全バッチを通して一意です。
// 比較対象フィールド (Name/Age/Status/DOB) は欠損を許容するためポインタで保持します。
// TransactionID と CreatedAt は DB が採番するため、取り込み対象外です。
type Employee struct {
	ID            int64
	Name          *string
	Age           *int
	Status        *string
	DOB           *time.Time
	BatchID       string
	TransactionID int64
	CreatedAt     time.Time
}

// WithStatus は status を差し替えた複製を返します。元の値は変更しません。
func (e Employee) WithStatus(status string) Employee {
	e.Status = &status
	return e
}

// WithBatchID は batch id を差し替えた複製を返します。
func (e Employee) WithBatchID(batchID string) Employee {
	e.BatchID = batchID
	return e
}
