// Package sessions stores the identity backend's server-side sessions. A
// session row exists for every token issued by a successful sign-in and is
// removed when the token is invalidated.
package sessions

import (
	"context"
	"time"
)

type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}

type Repository interface {
	Create(ctx context.Context, s *Session) error
	// Get returns common.ErrorNotFound for unknown ids.
	Get(ctx context.Context, id string) (*Session, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
