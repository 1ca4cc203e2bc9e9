// Package orphans records identities left behind when registration could not
// roll back a failed profile setup. Each entry needs operator cleanup.
package orphans

import (
	"context"
	"time"
)

type Orphan struct {
	IdentityID  string
	Email       string
	SetupError  string
	DeleteError string
	DetectedAt  time.Time
}

type Repository interface {
	Record(ctx context.Context, o *Orphan) error
	// List returns the most recent entries first.
	List(ctx context.Context, limit int) ([]Orphan, error)
}
