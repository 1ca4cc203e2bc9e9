package models

import "time"

// Session records that this process is currently authenticated as Identity.
type Session struct {
	Identity  Identity
	Remember  bool
	StartedAt time.Time
}
