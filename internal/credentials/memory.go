package credentials

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/eduassist/internal/cryptox"
	"github.com/dmitrijs2005/eduassist/internal/models"
)

type memoryAccount struct {
	id       string
	email    string
	salt     []byte
	verifier []byte
	verified bool
}

// MemoryService is an in-process Service for development and tests.
type MemoryService struct {
	mu       sync.Mutex
	accounts map[string]*memoryAccount // by normalised email
	sessions map[string]string         // token -> identity id
	resends  map[string]int            // identity id -> count
}

func NewMemoryService() *MemoryService {
	return &MemoryService{
		accounts: make(map[string]*memoryAccount),
		sessions: make(map[string]string),
		resends:  make(map[string]int),
	}
}

func (s *MemoryService) Create(_ context.Context, email, password string) (*models.Identity, error) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	email = normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[email]; ok {
		return nil, ErrEmailInUse
	}
	salt, verifier := cryptox.NewVerifier([]byte(password))
	acc := &memoryAccount{id: uuid.NewString(), email: email, salt: salt, verifier: verifier}
	s.accounts[email] = acc
	return &models.Identity{ID: acc.id, Email: acc.email}, nil
}

func (s *MemoryService) Verify(_ context.Context, email, password string) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[normalizeEmail(email)]
	if !ok || !cryptox.CheckPassword([]byte(password), acc.salt, acc.verifier) {
		return nil, ErrInvalidCredential
	}
	token := uuid.NewString()
	s.sessions[token] = acc.id
	return &models.Identity{ID: acc.id, Email: acc.email, Verified: acc.verified, Token: token}, nil
}

func (s *MemoryService) Invalidate(_ context.Context, identity *models.Identity) error {
	if identity == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, identity.Token)
	return nil
}

func (s *MemoryService) Delete(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for email, acc := range s.accounts {
		if acc.id == identity.ID {
			delete(s.accounts, email)
			for tok, id := range s.sessions {
				if id == acc.id {
					delete(s.sessions, tok)
				}
			}
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryService) ResendVerification(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessions[identity.Token] != identity.ID {
		return ErrInvalidCredential
	}
	s.resends[identity.ID]++
	return nil
}

// MarkVerified flags the account registered under email as verified.
func (s *MemoryService) MarkVerified(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[normalizeEmail(email)]
	if ok {
		acc.verified = true
	}
	return ok
}

// Resends reports how many verification messages were requested for id.
func (s *MemoryService) Resends(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resends[id]
}

// ActiveSessions reports the number of open provider sessions.
func (s *MemoryService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
