// Package session owns the process's authentication state: sign-in with
// profile reconciliation, sign-out with local state clearing, and the
// verification resend probe.
//
// The Manager's mutex guards only its state and current session. It is never
// held across a call to the identity backend or a store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrijs2005/eduassist/internal/common"
	"github.com/dmitrijs2005/eduassist/internal/credentials"
	"github.com/dmitrijs2005/eduassist/internal/localstate"
	"github.com/dmitrijs2005/eduassist/internal/logging"
	"github.com/dmitrijs2005/eduassist/internal/metrics"
	"github.com/dmitrijs2005/eduassist/internal/models"
	"github.com/dmitrijs2005/eduassist/internal/profiles"
	"github.com/dmitrijs2005/eduassist/internal/telemetry"
)

// AuthUserKeyPrefix prefixes the persisted identity of a signed-in user.
const AuthUserKeyPrefix = common.IdentityNamespace + "authUser:"

// DefaultRememberFor is how long a remembered session cookie lives.
const DefaultRememberFor = 30 * 24 * time.Hour

// ProfileToucher is satisfied by *profiles.Reconciler.
type ProfileToucher interface {
	Touch(ctx context.Context, id string, fields models.ProfileFields) (*models.ProfileRecord, error)
}

// storedIdentity is the persisted form of a signed-in identity. Token ties
// the entry to the session cookie it was written with.
type storedIdentity struct {
	ID       string `json:"uid"`
	Email    string `json:"email"`
	Verified bool   `json:"emailVerified"`
	Remember bool   `json:"remember"`
	Since    int64  `json:"since"`
	Token    string `json:"token"`
}

type Manager struct {
	creds       credentials.Service
	profiles    ProfileToucher
	store       localstate.Store
	metrics     *metrics.Metrics
	log         logging.Logger
	tracer      trace.Tracer
	now         func() time.Time
	rememberFor time.Duration

	mu      sync.Mutex
	state   State
	current *models.Session
}

type Option func(*Manager)

func WithRememberFor(d time.Duration) Option {
	return func(m *Manager) { m.rememberFor = d }
}

func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) { m.tracer = t }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(creds credentials.Service, p ProfileToucher, store localstate.Store,
	mt *metrics.Metrics, log logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		creds:       creds,
		profiles:    p,
		store:       store,
		metrics:     mt,
		log:         log,
		tracer:      telemetry.Tracer(),
		now:         time.Now,
		rememberFor: DefaultRememberFor,
		state:       Unauthenticated,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns a copy of the active session, or nil.
func (m *Manager) Current() *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	s := *m.current
	return &s
}

// begin moves from Unauthenticated to next.
func (m *Manager) begin(next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Unauthenticated {
		return fmt.Errorf("%w: %s", ErrInvalidState, m.state)
	}
	m.state = next
	return nil
}

func (m *Manager) finish(state State, s *models.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.current = s
}

func classifyVerifyError(err error) error {
	if errors.Is(err, credentials.ErrInvalidCredential) {
		return ErrInvalidCredentials
	}
	return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
}

// SignIn verifies the credentials, reconciles the profile and records the
// session locally. Profile reconciliation is best-effort and never fails the
// sign-in.
func (m *Manager) SignIn(ctx context.Context, in models.LoginInput) (*models.Session, error) {
	ctx, span := m.tracer.Start(ctx, "session.SignIn")
	defer span.End()

	if err := m.begin(Authenticating); err != nil {
		return nil, err
	}

	identity, err := m.creds.Verify(ctx, in.Username, in.Password)
	if err != nil {
		m.finish(Unauthenticated, nil)
		err = classifyVerifyError(err)
		if errors.Is(err, ErrInvalidCredentials) {
			m.metrics.SignIn(metrics.OutcomeInvalid)
		} else {
			m.metrics.SignIn(metrics.OutcomeUnavailable)
			m.log.Warn(ctx, "sign-in failed", "error", err)
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("identity.id", identity.ID))
	log := m.log.With("identity_id", identity.ID)

	email := identity.Email
	if email == "" {
		email = in.Username
	}
	if _, err := m.profiles.Touch(ctx, identity.ID, profiles.SignInFields(email)); err != nil {
		m.metrics.Reconcile(metrics.OutcomeFailed)
		log.Warn(ctx, "profile reconciliation failed, continuing sign-in", "error", err)
	} else {
		m.metrics.Reconcile(metrics.OutcomeSuccess)
	}

	sess := &models.Session{Identity: *identity, Remember: in.Remember, StartedAt: m.now()}
	// Only one identity is ever persisted; leftovers of an earlier user go first.
	if err := localstate.Clear(ctx, m.store, common.IdentityNamespace); err != nil {
		log.Warn(ctx, "stale local identity state could not be cleared", "error", err)
	}
	if err := m.persist(ctx, sess); err != nil {
		log.Warn(ctx, "session could not be persisted locally", "error", err)
	}

	m.finish(Authenticated, sess)
	m.metrics.SignIn(metrics.OutcomeSuccess)
	log.Info(ctx, "signed in", "remember", in.Remember)
	return m.Current(), nil
}

func (m *Manager) persist(ctx context.Context, s *models.Session) error {
	value, err := json.Marshal(storedIdentity{
		ID:       s.Identity.ID,
		Email:    s.Identity.Email,
		Verified: s.Identity.Verified,
		Remember: s.Remember,
		Since:    s.StartedAt.Unix(),
		Token:    s.Identity.Token,
	})
	if err != nil {
		return err
	}

	scope := localstate.ScopeSession
	cookie := &http.Cookie{Name: common.SessionCookieName, Value: s.Identity.Token, Path: "/"}
	if s.Remember {
		scope = localstate.ScopeLocal
		cookie.MaxAge = int(m.rememberFor / time.Second)
	}

	if err := m.store.Set(ctx, scope, AuthUserKeyPrefix+s.Identity.ID, string(value)); err != nil {
		return err
	}
	return m.store.SetCookie(ctx, cookie)
}

// Restore re-establishes a session persisted by an earlier SignIn in this
// or, for remembered sessions, a previous process. When nothing restorable
// is found the identity namespace is cleared of whatever is left.
func (m *Manager) Restore(ctx context.Context) (*models.Session, error) {
	if err := m.begin(Authenticating); err != nil {
		return nil, err
	}

	sess, err := m.load(ctx)
	if err != nil {
		if cerr := localstate.Clear(context.WithoutCancel(ctx), m.store, common.IdentityNamespace); cerr != nil {
			m.log.Warn(ctx, "stale local identity state could not be cleared", "error", cerr)
		}
		m.finish(Unauthenticated, nil)
		return nil, err
	}
	m.finish(Authenticated, sess)
	m.log.Debug(ctx, "session restored", "identity_id", sess.Identity.ID)
	return m.Current(), nil
}

// load returns the stored identity written together with the current session
// cookie. Entries belonging to any other token are ignored.
func (m *Manager) load(ctx context.Context) (*models.Session, error) {
	cookie, err := m.store.Cookie(ctx, common.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoStoredSession
	}

	for _, scope := range localstate.Scopes {
		keys, err := m.store.Keys(ctx, scope, AuthUserKeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("list stored identities: %w", err)
		}
		for _, k := range keys {
			raw, err := m.store.Get(ctx, scope, k)
			if err != nil {
				continue
			}
			var si storedIdentity
			if err := json.Unmarshal([]byte(raw), &si); err != nil || si.ID == "" || si.Token != cookie.Value {
				continue
			}
			return &models.Session{
				Identity:  models.Identity{ID: si.ID, Email: si.Email, Verified: si.Verified, Token: cookie.Value},
				Remember:  si.Remember,
				StartedAt: time.Unix(si.Since, 0),
			}, nil
		}
	}
	return nil, ErrNoStoredSession
}

// SignOut invalidates the provider session and then always clears local
// state, ending in Unauthenticated. A failed remote invalidation yields
// ErrRemoteInvalidateFailed; local clearing failures are logged and joined
// into the returned error.
func (m *Manager) SignOut(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "session.SignOut")
	defer span.End()

	m.mu.Lock()
	switch m.state {
	case Authenticating, ResendingVerification:
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidState, state)
	}
	sess := m.current
	m.mu.Unlock()

	var errs []error
	if sess != nil {
		if err := m.creds.Invalidate(ctx, &sess.Identity); err != nil {
			m.log.Warn(ctx, "remote invalidation failed, clearing local state anyway",
				"identity_id", sess.Identity.ID, "error", err)
			errs = append(errs, fmt.Errorf("%w: %v", ErrRemoteInvalidateFailed, err))
		}
	}

	if err := localstate.Clear(context.WithoutCancel(ctx), m.store, common.IdentityNamespace); err != nil {
		m.log.Error(ctx, "local state clearing incomplete", "error", err)
		errs = append(errs, fmt.Errorf("clear local state: %w", err))
	}

	m.finish(Unauthenticated, nil)

	err := errors.Join(errs...)
	if err != nil {
		m.metrics.SignOut(metrics.OutcomeFailed)
		span.SetStatus(codes.Error, err.Error())
	} else {
		m.metrics.SignOut(metrics.OutcomeSuccess)
	}
	return err
}

// ResendVerification signs in only to read the verification status, sends a
// new verification message when the email is unverified and always ends the
// probe session. A failed probe invalidation is returned alongside the
// outcome as ErrRemoteInvalidateFailed.
func (m *Manager) ResendVerification(ctx context.Context, username, password string) (VerificationOutcome, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return OutcomeNone, ErrMissingCredentials
	}

	ctx, span := m.tracer.Start(ctx, "session.ResendVerification")
	defer span.End()

	if err := m.begin(ResendingVerification); err != nil {
		return OutcomeNone, err
	}
	defer m.finish(Unauthenticated, nil)

	identity, err := m.creds.Verify(ctx, username, password)
	if err != nil {
		m.metrics.VerificationResend(metrics.OutcomeFailed)
		return OutcomeNone, fmt.Errorf("%w: %w", ErrResendFailed, classifyVerifyError(err))
	}

	outcome, opErr := AlreadyVerified, error(nil)
	if !identity.Verified {
		if err := m.creds.ResendVerification(ctx, identity); err != nil {
			outcome = OutcomeNone
			opErr = fmt.Errorf("%w: %v", ErrResendFailed, err)
		} else {
			outcome = ResendTriggered
		}
	}

	var errs []error
	if opErr != nil {
		errs = append(errs, opErr)
	}
	if err := m.creds.Invalidate(context.WithoutCancel(ctx), identity); err != nil {
		m.log.Warn(ctx, "probe session invalidation failed", "identity_id", identity.ID, "error", err)
		errs = append(errs, fmt.Errorf("%w: %v", ErrRemoteInvalidateFailed, err))
	}

	switch {
	case opErr != nil:
		m.metrics.VerificationResend(metrics.OutcomeFailed)
	case outcome == AlreadyVerified:
		m.metrics.VerificationResend(metrics.OutcomeAlreadyVerified)
	default:
		m.metrics.VerificationResend(metrics.OutcomeResendTriggered)
	}
	return outcome, errors.Join(errs...)
}
