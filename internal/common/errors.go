// Package common defines shared constants and sentinel errors used across
// repositories, services and transports. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrValidation     = errors.New("validation error")

	// Credential errors.
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrDuplicateLogin     = errors.New("login already exists")

	// Token lifecycle errors.
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenRevoked   = errors.New("token revoked")

	// Infrastructure errors: cache, index or store unreachable.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// Request budget exhausted for a client.
	ErrTooManyRequests = errors.New("too many requests")

	// Third-party identity errors.
	ErrUnsupported     = errors.New("unsupported")
	ErrProviderFailure = errors.New("identity provider failure")
)
