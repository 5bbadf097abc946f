// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Registration and login sentinels.
var (
	// ErrInvalidEmail indicates the supplied email does not look like an address.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrWeakPassword indicates the password fails the acceptance policy.
	ErrWeakPassword = errors.New("weak password")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidCredentials indicates failed login. Unknown email and wrong
	// password deliberately map to this same sentinel.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Token sentinels.
var (
	// ErrInvalidToken indicates a malformed token or a bad signature.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token's exp claim has elapsed.
	ErrExpiredToken = errors.New("token expired")

	// ErrUnknownToken indicates a well-formed token with no ledger record.
	ErrUnknownToken = errors.New("unknown token")

	// ErrTokenTheft indicates reuse of an already-consumed refresh token.
	// Surfacing it implies the whole token family has been revoked.
	ErrTokenTheft = errors.New("token theft detected")
)

// Infrastructure sentinels.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable indicates the backing store timed out or is
	// unreachable. Retryable; never a substitute for ErrNotFound.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDecryptFailed indicates AEAD authentication failure or a malformed
	// envelope. The two cases are indistinguishable on purpose.
	ErrDecryptFailed = errors.New("decrypt failed")
)
