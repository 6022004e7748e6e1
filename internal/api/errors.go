package api

import "errors"

// Sentinel errors shared across domains. Services wrap these with
// fmt.Errorf("...: %w", err); handlers map them to HTTP status codes
// with errors.Is.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrValidation      = errors.New("invalid input")
	ErrInternal        = errors.New("internal error")
)
