// Package apperr defines the sentinel error kinds shared across the
// journal, asset store, and API layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrMalformed     = errors.New("malformed")
	ErrExhausted     = errors.New("exhausted")
)
