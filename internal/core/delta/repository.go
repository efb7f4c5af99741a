package delta

import "context"

// Repository は差分レコードの永続化契約です。SaveAll は同一バッチの
// 再検出を許容し、登録済みの (EmployeeID, BatchID) の組は重複させません。
type Repository interface {
	SaveAll(ctx context.Context, deltas []*Delta) error
	FindByBatchID(ctx context.Context, batchID string) ([]*Delta, error)
	FindByBatchIDAndType(ctx context.Context, batchID string, t Type) ([]*Delta, error)
	CountByTypeForBatch(ctx context.Context, batchID string) (map[Type]int, error)
}
