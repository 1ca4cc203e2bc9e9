package localstate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/eduassist/internal/common"
)

// ExpiredCookie returns a cookie that removes name: empty value, MaxAge -1,
// an expiry in the past and the root path.
func ExpiredCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:    name,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	}
}

// Clear removes every key starting with namespace from both scopes and
// expires the session cookie. It keeps going after individual failures and
// returns them joined.
func Clear(ctx context.Context, store Store, namespace string) error {
	var errs []error

	for _, scope := range Scopes {
		keys, err := store.Keys(ctx, scope, namespace)
		if err != nil {
			errs = append(errs, fmt.Errorf("list %s keys: %w", scope, err))
			continue
		}
		for _, k := range keys {
			if err := store.Delete(ctx, scope, k); err != nil {
				errs = append(errs, fmt.Errorf("delete %s key %q: %w", scope, k, err))
			}
		}
	}

	if err := store.SetCookie(ctx, ExpiredCookie(common.SessionCookieName)); err != nil {
		errs = append(errs, fmt.Errorf("expire %s cookie: %w", common.SessionCookieName, err))
	}

	return errors.Join(errs...)
}
