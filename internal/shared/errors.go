package shared

import "errors"

// Error categories shared across domain packages. Domain packages wrap these
// with a user-facing message; the HTTP layer maps the category to a status
// code with errors.Is.
var (
	// ErrNotFound indicates a missing row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness violation, e.g. a duplicate name.
	ErrDuplicate = errors.New("duplicate")
	// ErrValidation indicates malformed input detected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrBusinessRule indicates a rule violation detected via a pre-check
	// read, e.g. insufficient stock or a blocked deletion.
	ErrBusinessRule = errors.New("business rule violation")
)
