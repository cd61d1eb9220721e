// Package common holds the error kinds shared by repositories, services and
// the HTTP layer. Match them with errors.Is.
package common

import "errors"

var (
	// request / input
	ErrValidation = errors.New("validation error")

	// identity
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbidden          = errors.New("forbidden")

	// repository
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
	ErrStorage  = errors.New("storage error")
)
