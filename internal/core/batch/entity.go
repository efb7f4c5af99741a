package batch

import "time"

// Status は取り込みバッチの処理状態です。
// PROCESSING で作成され、COMPLETED か FAILED のいずれかで一度だけ確定します。
type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// IngestBatch は 1 回の取り込み実行を表すレコードです。
// ID は DB のシーケンス値で、同時刻バッチの決定的な順序付けに使います。
// BatchID は呼び出し側が採番する一意トークン (UUID) です。
type IngestBatch struct {
	ID             int64
	BatchID        string
	IngestedAt     time.Time
	SourceFile     string
	TotalRecords   int
	NewRecords     int
	UpdatedRecords int
	Status         Status
	ErrorMessage   *string
}

// IsTerminal は状態が確定済みかを返します。
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
