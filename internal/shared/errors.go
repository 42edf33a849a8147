package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated indicates a request without a resolvable identity
	// where one is required.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates a resolved identity without a satisfied grant.
	ErrForbidden = errors.New("forbidden")
)
