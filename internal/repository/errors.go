// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow handlers to distinguish between
// failure scenarios: ErrNotFound maps to 404, ErrForbidden to 403 (the row
// belongs to another provider) and ErrConflict to 409.
package repository

import "errors"

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot be performed because of
// conflicting state, such as a duplicate email.
var ErrConflict = errors.New("conflict")
