package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/eduassist/internal/feedback"
	"github.com/dmitrijs2005/eduassist/internal/models"
	"github.com/dmitrijs2005/eduassist/internal/repositories/orphans"
	"github.com/dmitrijs2005/eduassist/internal/session"
)

// Registrar is satisfied by *provisioning.Coordinator.
type Registrar interface {
	Register(ctx context.Context, in models.RegistrationInput) (*models.ProfileRecord, error)
}

// Sessions is satisfied by *session.Manager.
type Sessions interface {
	SignIn(ctx context.Context, in models.LoginInput) (*models.Session, error)
	SignOut(ctx context.Context) error
	ResendVerification(ctx context.Context, username, password string) (session.VerificationOutcome, error)
	Current() *models.Session
	State() session.State
}

// Confirmer redeems verification tokens. Only the database-backed credential
// provider implements it.
type Confirmer interface {
	ConfirmEmail(ctx context.Context, token string) error
}

type App struct {
	registrar Registrar
	sessions  Sessions
	confirmer Confirmer
	orphans   orphans.Repository
	reader    *bufio.Reader
	out       io.Writer

	// busy is held while a command runs.
	busy     sync.Mutex
	idleOnce sync.Once
	idle     chan struct{}
}

// NewApp builds the console. confirmer and orphanRepo may be nil; the
// matching commands then report that they are unavailable.
func NewApp(r Registrar, s Sessions, confirmer Confirmer, orphanRepo orphans.Repository,
	in io.Reader, out io.Writer) *App {
	return &App{
		registrar: r,
		sessions:  s,
		confirmer: confirmer,
		orphans:   orphanRepo,
		reader:    bufio.NewReader(in),
		out:       out,
	}
}

func (a *App) isLoggedIn() bool {
	return a.sessions.Current() != nil
}

func (a *App) getStatus() string {
	if s := a.sessions.Current(); s != nil {
		return fmt.Sprintf("(%s)", s.Identity.Email)
	}
	return ""
}

func (a *App) show(m feedback.Message) {
	title := m.Title
	if m.Destructive {
		title = "! " + title
	}
	fmt.Fprintln(a.out, title)
	if m.Description != "" {
		fmt.Fprintln(a.out, "  "+m.Description)
	}
}

// Root prints the banner and runs the REPL until exit or end of input.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "EduAssist coordinator console (type 'help' for commands)")
	if s := a.sessions.Current(); s != nil {
		fmt.Fprintf(a.out, "Signed in as %s\n", s.Identity.Email)
	}
	runREPL(ctx, a, a.getStatus, a.reader, a.out, &a.busy)
}

// WaitIdle waits up to timeout for a running command to return and reports
// whether it did. Once it returns true no further command can start.
func (a *App) WaitIdle(timeout time.Duration) bool {
	a.idleOnce.Do(func() {
		a.idle = make(chan struct{})
		go func() {
			a.busy.Lock()
			close(a.idle)
		}()
	})

	select {
	case <-a.idle:
		return true
	case <-time.After(timeout):
		return false
	}
}
