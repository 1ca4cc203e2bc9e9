package localstate

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/eduassist/internal/common"
)

func seed(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, ScopeLocal, "identity:authUser:u-1", `{"id":"u-1"}`))
	require.NoError(t, s.Set(ctx, ScopeSession, "identity:authUser:u-2", `{"id":"u-2"}`))
	require.NoError(t, s.Set(ctx, ScopeLocal, "preferences:theme", "dark"))
	require.NoError(t, s.SetCookie(ctx, &http.Cookie{Name: common.SessionCookieName, Value: "tok", Path: "/"}))
}

func TestClear_RemovesNamespaceAndCookie(t *testing.T) {
	for name, s := range map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": func() Store { st, _ := openTemp(t); return st }(),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed(t, s)

			require.NoError(t, Clear(ctx, s, common.IdentityNamespace))

			for _, scope := range Scopes {
				keys, err := s.Keys(ctx, scope, common.IdentityNamespace)
				require.NoError(t, err)
				assert.Empty(t, keys, "scope %s", scope)
			}
			v, err := s.Get(ctx, ScopeLocal, "preferences:theme")
			require.NoError(t, err)
			assert.Equal(t, "dark", v)

			_, err = s.Cookie(ctx, common.SessionCookieName)
			assert.ErrorIs(t, err, common.ErrorNotFound)
		})
	}
}

func TestClear_IsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, Clear(context.Background(), s, common.IdentityNamespace))
	require.NoError(t, Clear(context.Background(), s, common.IdentityNamespace))
}

func TestExpiredCookie(t *testing.T) {
	c := ExpiredCookie("session")
	assert.Equal(t, "", c.Value)
	assert.Equal(t, -1, c.MaxAge)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.Expires.Unix() <= 0)
}

type brokenStore struct {
	*MemoryStore
	keysErr   map[Scope]error
	deleteErr error
	cookieErr error
	cookieSet bool
}

func (b *brokenStore) Keys(ctx context.Context, scope Scope, prefix string) ([]string, error) {
	if err := b.keysErr[scope]; err != nil {
		return nil, err
	}
	return b.MemoryStore.Keys(ctx, scope, prefix)
}

func (b *brokenStore) Delete(ctx context.Context, scope Scope, key string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	return b.MemoryStore.Delete(ctx, scope, key)
}

func (b *brokenStore) SetCookie(ctx context.Context, c *http.Cookie) error {
	b.cookieSet = true
	if b.cookieErr != nil {
		return b.cookieErr
	}
	return b.MemoryStore.SetCookie(ctx, c)
}

func TestClear_ContinuesPastFailures(t *testing.T) {
	errKeys := errors.New("local storage unavailable")
	b := &brokenStore{MemoryStore: NewMemoryStore(), keysErr: map[Scope]error{ScopeLocal: errKeys}}
	seed(t, b.MemoryStore)

	err := Clear(context.Background(), b, common.IdentityNamespace)
	require.ErrorIs(t, err, errKeys)

	keys, kerr := b.MemoryStore.Keys(context.Background(), ScopeSession, common.IdentityNamespace)
	require.NoError(t, kerr)
	assert.Empty(t, keys, "session scope still cleared")
	assert.True(t, b.cookieSet, "cookie still expired")
	_, cerr := b.Cookie(context.Background(), common.SessionCookieName)
	assert.ErrorIs(t, cerr, common.ErrorNotFound)
}

func TestClear_JoinsEveryFailure(t *testing.T) {
	errDelete := errors.New("delete failed")
	errCookie := errors.New("cookie jar read-only")
	b := &brokenStore{MemoryStore: NewMemoryStore(), deleteErr: errDelete, cookieErr: errCookie}
	seed(t, b.MemoryStore)

	err := Clear(context.Background(), b, common.IdentityNamespace)
	assert.ErrorIs(t, err, errDelete)
	assert.ErrorIs(t, err, errCookie)
}
