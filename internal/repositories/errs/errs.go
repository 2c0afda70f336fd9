// Package errs holds the sentinel error values shared by the repositories
// and views packages. The canonical way to refer to them remains
// repositories.ErrNotFound / repositories.ErrConflict, which alias these
// values; this package exists only so views can return the same sentinels
// without importing repositories (which imports views).
package errs

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)
