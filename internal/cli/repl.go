package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Resend(ctx context.Context) error
	Verify(ctx context.Context, token string) error
	WhoAmI(ctx context.Context) error
	Orphans(ctx context.Context) error
}

// runREPL reads one command per line from reader and dispatches it to a.
//
//	Not logged in:
//	  - register          create a coordinator account
//	  - login             sign in
//	  - resend            resend the verification email
//	  - verify <token>    confirm an email address
//
//	Logged in:
//	  - whoami            show the current session
//	  - logout            sign out and clear local state
//
//	Always:
//	  - orphans           list identities left behind by failed registrations
//	  - help, exit | quit
//
// Handler errors have already been reported to the user and are dropped here.
// busy is held for the duration of every command, and no command starts once
// ctx is done.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer, busy sync.Locker) {
	for {
		fmt.Fprintf(w, "edu %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			return
		}
		if ctx.Err() != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		busy.Lock()
		exit := dispatch(ctx, a, w, parts[0], parts[1:])
		busy.Unlock()
		if exit {
			return
		}
	}
}

// dispatch runs one command and reports whether the loop should end.
func dispatch(ctx context.Context, a execIface, w io.Writer, cmd string, args []string) bool {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			fmt.Fprintln(w, "Available commands: whoami, logout, orphans, exit")
		} else {
			fmt.Fprintln(w, "Available commands: register, login, resend, verify <token>, orphans, exit")
		}

	case "register":
		_ = a.Register(ctx)

	case "login":
		_ = a.Login(ctx)

	case "logout":
		_ = a.Logout(ctx)

	case "resend":
		_ = a.Resend(ctx)

	case "verify":
		if len(args) == 0 {
			fmt.Fprintln(w, "Usage: verify <token>")
			return false
		}
		_ = a.Verify(ctx, args[0])

	case "whoami":
		_ = a.WhoAmI(ctx)

	case "orphans":
		_ = a.Orphans(ctx)

	case "exit", "quit":
		fmt.Fprintln(w, "Bye!")
		return true

	default:
		fmt.Fprintln(w, "Unknown command:", cmd)
	}
	return false
}
