package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/eduassist/internal/credentials"
	"github.com/dmitrijs2005/eduassist/internal/localstate"
	"github.com/dmitrijs2005/eduassist/internal/logging"
	"github.com/dmitrijs2005/eduassist/internal/metrics"
	"github.com/dmitrijs2005/eduassist/internal/models"
	"github.com/dmitrijs2005/eduassist/internal/profiles"
	"github.com/dmitrijs2005/eduassist/internal/provisioning"
	"github.com/dmitrijs2005/eduassist/internal/repositories/orphans"
	profilesrepo "github.com/dmitrijs2005/eduassist/internal/repositories/profiles"
	"github.com/dmitrijs2005/eduassist/internal/session"
)

type countingRegistrar struct {
	calls int
}

func (c *countingRegistrar) Register(context.Context, models.RegistrationInput) (*models.ProfileRecord, error) {
	c.calls++
	return &models.ProfileRecord{ID: "x"}, nil
}

// blockingRegistrar holds Register until release is closed.
type blockingRegistrar struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingRegistrar) Register(context.Context, models.RegistrationInput) (*models.ProfileRecord, error) {
	close(b.entered)
	<-b.release
	return &models.ProfileRecord{ID: "x"}, nil
}

type fakeConfirmer struct {
	err   error
	token string
}

func (f *fakeConfirmer) ConfirmEmail(_ context.Context, token string) error {
	f.token = token
	return f.err
}

type fixture struct {
	creds    *credentials.MemoryService
	profiles *profilesrepo.MemoryRepository
	store    *localstate.MemoryStore
	orphans  *orphans.MemoryRepository
	coord    *provisioning.Coordinator
	manager  *session.Manager
}

func newFixture() *fixture {
	f := &fixture{
		creds:    credentials.NewMemoryService(),
		profiles: profilesrepo.NewMemoryRepository(),
		store:    localstate.NewMemoryStore(),
		orphans:  orphans.NewMemoryRepository(),
	}
	log := logging.Discard()
	m := metrics.New(prometheus.NewRegistry())
	rec := profiles.NewReconciler(f.profiles, log, nil)
	f.coord = provisioning.NewCoordinator(f.creds, rec, f.orphans, m, log)
	f.manager = session.NewManager(f.creds, rec, f.store, m, log)
	return f
}

func (f *fixture) run(t *testing.T, confirmer Confirmer, lines ...string) string {
	t.Helper()
	stubTerminal(t, false, nil, nil)

	var out bytes.Buffer
	app := NewApp(f.coord, f.manager, confirmer, f.orphans, strings.NewReader(strings.Join(lines, "\n")+"\n"), &out)
	app.Root(context.Background())
	return out.String()
}

var registerLines = []string{"register", "Ada Lovelace", "ada@example.com", "0123456789", "North", "Secret123", "Secret123"}

func TestApp_RegisterLoginLogout(t *testing.T) {
	f := newFixture()

	lines := append([]string{}, registerLines...)
	lines = append(lines,
		"login", "ada@example.com", "Secret123", "y",
		"whoami",
		"logout",
		"whoami",
		"exit",
	)
	out := f.run(t, nil, lines...)

	assert.Contains(t, out, "Registration Successful")
	assert.Contains(t, out, "Welcome back!")
	assert.NotContains(t, out, "dashboard")
	assert.Contains(t, out, "Email:    ada@example.com")
	assert.Contains(t, out, "edu (ada@example.com)> ")
	assert.Contains(t, out, "Logged out successfully")
	assert.Contains(t, out, "Not signed in.")
	assert.Equal(t, session.Unauthenticated, f.manager.State())
	assert.Equal(t, 0, f.creds.ActiveSessions())
}

func TestApp_RegisterValidationStopsBeforeBackend(t *testing.T) {
	stubTerminal(t, false, nil, nil)
	reg := &countingRegistrar{}
	f := newFixture()

	var out bytes.Buffer
	input := strings.Join([]string{"register", "Ada", "not-an-email", "0123456789", "North", "Secret123", "Secret123", "exit"}, "\n")
	NewApp(reg, f.manager, nil, nil, strings.NewReader(input), &out).Root(context.Background())

	assert.Equal(t, 0, reg.calls)
	assert.Contains(t, out.String(), "! Please check the form")
	assert.Contains(t, out.String(), "Invalid email format")
}

func TestApp_RegisterDuplicate(t *testing.T) {
	f := newFixture()
	lines := append(append([]string{}, registerLines...), registerLines...)
	out := f.run(t, nil, append(lines, "exit")...)

	assert.Contains(t, out, "! Email already in use")
	assert.Contains(t, out, "This email is registered. Please log in instead.")
}

func TestApp_LoginFailures(t *testing.T) {
	f := newFixture()
	out := f.run(t, nil,
		"login", "", "", "n",
		"login", "nobody@example.com", "Secret123", "n",
		"exit",
	)

	assert.Contains(t, out, "Email is required")
	assert.Contains(t, out, "Invalid email or password.")
	assert.Equal(t, session.Unauthenticated, f.manager.State())
}

func TestApp_Resend(t *testing.T) {
	f := newFixture()
	lines := append([]string{}, registerLines...)
	lines = append(lines,
		"resend", "", "",
		"resend", "ada@example.com", "Secret123",
		"exit",
	)
	out := f.run(t, nil, lines...)

	assert.Contains(t, out, "Missing Credentials")
	assert.Contains(t, out, "Verification Email Sent")
	assert.Equal(t, 0, f.creds.ActiveSessions(), "probe session is always ended")

	require.True(t, f.creds.MarkVerified("ada@example.com"))
	out = f.run(t, nil, "resend", "ada@example.com", "Secret123", "exit")
	assert.Contains(t, out, "Email Already Verified")
}

func TestApp_Verify(t *testing.T) {
	f := newFixture()

	out := f.run(t, nil, "verify tok", "exit")
	assert.Contains(t, out, "not available")

	c := &fakeConfirmer{}
	out = f.run(t, c, "verify tok", "exit")
	assert.Equal(t, "tok", c.token)
	assert.Contains(t, out, "Email Verified")

	c.err = credentials.ErrInvalidVerificationToken
	out = f.run(t, c, "verify old", "exit")
	assert.Contains(t, out, "! Verification Failed")
}

func TestApp_Orphans(t *testing.T) {
	f := newFixture()

	out := f.run(t, nil, "orphans", "exit")
	assert.Contains(t, out, "No orphaned identities.")

	require.NoError(t, f.orphans.Record(context.Background(), &orphans.Orphan{
		IdentityID:  "u-1",
		Email:       "ada@example.com",
		SetupError:  "write failed",
		DeleteError: "timeout",
		DetectedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}))
	out = f.run(t, nil, "orphans", "exit")
	assert.Contains(t, out, "u-1")
	assert.Contains(t, out, "2026-01-02T03:04:05Z")
	assert.Contains(t, out, "timeout")
}

func TestApp_WaitIdleWaitsForRunningCommand(t *testing.T) {
	stubTerminal(t, false, nil, nil)
	f := newFixture()
	reg := &blockingRegistrar{entered: make(chan struct{}), release: make(chan struct{})}

	var out bytes.Buffer
	app := NewApp(reg, f.manager, nil, nil, strings.NewReader(strings.Join(registerLines, "\n")+"\n"), &out)
	done := make(chan struct{})
	go func() {
		defer close(done)
		app.Root(context.Background())
	}()
	<-reg.entered

	assert.False(t, app.WaitIdle(20*time.Millisecond), "register is still running")

	close(reg.release)
	assert.True(t, app.WaitIdle(time.Second))
	<-done
	assert.Contains(t, out.String(), "Registration Successful")
}
