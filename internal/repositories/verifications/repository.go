// Package verifications stores pending email verification tokens.
package verifications

import (
	"context"
	"time"
)

type Verification struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

type Repository interface {
	// Replace drops any pending tokens of the user and stores v.
	Replace(ctx context.Context, v *Verification) error
	// Consume removes the token and returns its owner. Unknown or expired
	// tokens yield common.ErrorNotFound.
	Consume(ctx context.Context, token string, now time.Time) (string, error)
}
