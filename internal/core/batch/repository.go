package batch

import (
	"context"
	"time"
)

// Registry は取り込みバッチ台帳の永続化契約です。
//
// MostRecentCompletedBefore は COMPLETED のバッチのうち ingested_at が
// 指定時刻より厳密に前のものを新しい順に見て先頭を返します。同時刻の
// バッチは内部 ID の降順で順序付けるため、選択は常に決定的です。
// 該当がなければ ErrBatchNotFound を返します。
type Registry interface {
	Create(ctx context.Context, b IngestBatch) (*IngestBatch, error)
	Finalize(ctx context.Context, batchID string, status Status, total, newCount, updated int, errorMessage *string) error
	FindByBatchID(ctx context.Context, batchID string) (*IngestBatch, error)
	MostRecentCompletedBefore(ctx context.Context, t time.Time) (*IngestBatch, error)
	MostRecentCompleted(ctx context.Context) (*IngestBatch, error)
}
