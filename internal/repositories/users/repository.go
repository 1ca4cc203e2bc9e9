// Package users declares the identity backend's account store.
package users

import (
	"context"
	"time"
)

// User is an account of the identity backend. The password is kept only as
// an argon2 salt/verifier pair.
type User struct {
	ID        string
	Email     string
	Salt      []byte
	Verifier  []byte
	Verified  bool
	CreatedAt time.Time
}

// Repository stores accounts.
type Repository interface {
	// Create inserts user. A duplicate email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *User) (*User, error)

	// GetByEmail returns common.ErrorNotFound for unknown addresses.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Delete removes the account; common.ErrorNotFound when nothing matched.
	Delete(ctx context.Context, id string) error

	// MarkVerified flags the account's email as verified.
	MarkVerified(ctx context.Context, id string) error
}
