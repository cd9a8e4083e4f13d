package repository

import "errors"

// Sentinel errors returned by repository implementations. Services translate
// them into ledger error kinds.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
