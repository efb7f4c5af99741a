package employee

import "context"

// Repository は社員レコードの永続化契約です。
// SaveAll は常に INSERT であり、既知の ID を上書きすることはありません。
// 一意制約違反は ErrEmployeeExists にマップされます。
type Repository interface {
	FindByIDs(ctx context.Context, ids []int64) ([]Employee, error)
	SaveAll(ctx context.Context, employees []Employee) error
	FindByStatus(ctx context.Context, status string) ([]Employee, error)
	UpdateStatuses(ctx context.Context, ids []int64, status string) error
}
