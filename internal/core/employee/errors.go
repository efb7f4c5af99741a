package employee

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee: not found")
	ErrEmployeeExists   = errors.New("employee: id already exists")
)
