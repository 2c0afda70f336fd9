package repositories

import "github.com/vidtube/backend/internal/repositories/errs"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errs.ErrNotFound
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errs.ErrConflict
)
