package auth

import "errors"

// Failure taxonomy surfaced to callers. The HTTP layer maps these 1:1 to
// status codes; anything else coming out of this package is an internal
// failure and must roll the request back.
var (
	// ErrAuthenticationFailed is deliberately coarse: unknown email, bad
	// password, deleted account, missing or dead session all collapse into
	// it so the API does not become an account-existence oracle.
	ErrAuthenticationFailed = errors.New("auth: authentication failed")

	// Account-status failures intentionally expose more detail than
	// ErrAuthenticationFailed. The asymmetry leaks existence of locked and
	// suspended accounts; the original system behaved this way to aid
	// support and it is reproduced verbatim.
	ErrAccountLocked    = errors.New("auth: account is locked")
	ErrAccountSuspended = errors.New("auth: account is suspended")
	ErrAccountInactive  = errors.New("auth: account is inactive")

	// ErrTokenInvalid covers signature, structure and expiry failures from
	// the token codec without distinguishing them.
	ErrTokenInvalid = errors.New("auth: invalid token")

	ErrConflict            = errors.New("auth: already exists")
	ErrBadRequest          = errors.New("auth: bad request")
	ErrNotFound            = errors.New("auth: not found")
	ErrAuthorizationDenied = errors.New("auth: permission denied")
	ErrInvalidInput        = errors.New("auth: invalid input")
)
