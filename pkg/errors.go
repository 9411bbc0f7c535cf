// Package pkg holds helpers shared by every layer: domain errors and the
// JSON response envelope.
package pkg

import "errors"

// Domain errors. Services return them (usually wrapped with a message),
// handlers map them to HTTP status codes.
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrInternal      = errors.New("internal error")
)
