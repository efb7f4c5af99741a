package batch

import "errors"

var (
	ErrBatchNotFound  = errors.New("batch: not found")
	ErrDuplicateBatch = errors.New("batch: batch id already exists")
)
