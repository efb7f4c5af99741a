package snapshot

import "context"

// Store はスナップショットの永続化契約です。重複排除の概念はなく、
// SaveAll は常に INSERT です。
type Store interface {
	SaveAll(ctx context.Context, snapshots []Snapshot) error
	FindByBatchID(ctx context.Context, batchID string) ([]Snapshot, error)
	EmployeeIDsByBatchID(ctx context.Context, batchID string) ([]int64, error)
}
