// Package localstate is the client-side persistence of an authenticated
// session: two scoped key/value areas and a cookie jar. Local scope survives
// restarts; session scope and session cookies live for one process.
package localstate

import (
	"context"
	"net/http"
	"time"
)

type Scope string

const (
	ScopeLocal   Scope = "local"
	ScopeSession Scope = "session"
)

// Scopes lists every scope in the order they are cleared.
var Scopes = []Scope{ScopeLocal, ScopeSession}

type Store interface {
	// Get returns common.ErrorNotFound when key is absent.
	Get(ctx context.Context, scope Scope, key string) (string, error)
	Set(ctx context.Context, scope Scope, key, value string) error
	Delete(ctx context.Context, scope Scope, key string) error
	// Keys lists the keys of scope that start with prefix.
	Keys(ctx context.Context, scope Scope, prefix string) ([]string, error)

	// SetCookie stores c. A cookie with a negative MaxAge or an Expires in
	// the past deletes any cookie of the same name.
	SetCookie(ctx context.Context, c *http.Cookie) error
	// Cookie returns common.ErrorNotFound when the cookie is absent or expired.
	Cookie(ctx context.Context, name string) (*http.Cookie, error)
}

func cookieExpired(c *http.Cookie, now time.Time) bool {
	if c.MaxAge < 0 {
		return true
	}
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// cookieExpiry resolves MaxAge and Expires into one absolute time. Zero means
// a session cookie.
func cookieExpiry(c *http.Cookie, now time.Time) time.Time {
	if c.MaxAge > 0 {
		return now.Add(time.Duration(c.MaxAge) * time.Second)
	}
	return c.Expires
}
