package localstate

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/eduassist/internal/common"
)

type storedCookie struct {
	cookie  http.Cookie
	expires time.Time
}

type MemoryStore struct {
	mu      sync.Mutex
	values  map[Scope]map[string]string
	cookies map[string]storedCookie
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: map[Scope]map[string]string{
			ScopeLocal:   {},
			ScopeSession: {},
		},
		cookies: map[string]storedCookie{},
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, scope Scope, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[scope][key]
	if !ok {
		return "", common.ErrorNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(_ context.Context, scope Scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.values[scope] == nil {
		s.values[scope] = map[string]string{}
	}
	s.values[scope][key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, scope Scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values[scope], key)
	return nil
}

func (s *MemoryStore) Keys(_ context.Context, scope Scope, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for k := range s.values[scope] {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) SetCookie(_ context.Context, c *http.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if cookieExpired(c, now) {
		delete(s.cookies, c.Name)
		return nil
	}
	s.cookies[c.Name] = storedCookie{cookie: *c, expires: cookieExpiry(c, now)}
	return nil
}

func (s *MemoryStore) Cookie(_ context.Context, name string) (*http.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.cookies[name]
	if !ok || (!sc.expires.IsZero() && !sc.expires.After(s.now())) {
		return nil, common.ErrorNotFound
	}
	c := sc.cookie
	return &c, nil
}
