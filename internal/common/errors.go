// Package common defines shared constants, sentinel errors and small helpers
// used across the identity, profile and local-state layers. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// IdentityNamespace prefixes every locally persisted key that belongs to an
// authenticated identity. Local persistence clearing removes all of them.
const IdentityNamespace = "identity:"

// SessionCookieName is the cookie carrying the provider session token.
const SessionCookieName = "session"
