// Package common defines shared constants and sentinel errors used across
// the videohub server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors. ErrValidation covers missing or empty required
	// input, ErrConflict a username/email uniqueness violation.
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("already exists")
	ErrInternal   = errors.New("internal error")

	// Auth errors (bad credentials or a bad/expired/mismatched token).
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
)
