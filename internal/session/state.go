package session

import "errors"

// State is the position of the Manager's state machine.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	ResendingVerification
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case ResendingVerification:
		return "resending_verification"
	default:
		return "unknown"
	}
}

// VerificationOutcome is the result of ResendVerification.
type VerificationOutcome int

const (
	OutcomeNone VerificationOutcome = iota
	AlreadyVerified
	ResendTriggered
)

func (o VerificationOutcome) String() string {
	switch o {
	case AlreadyVerified:
		return "already_verified"
	case ResendTriggered:
		return "resend_triggered"
	default:
		return "none"
	}
}

var (
	// ErrInvalidCredentials does not say whether the account or the password
	// was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrServiceUnavailable means the identity backend could not be reached.
	ErrServiceUnavailable = errors.New("sign-in service unavailable")
	// ErrInvalidState is returned when an operation is not allowed in the
	// current state, for example a second sign-in while one is in flight.
	ErrInvalidState = errors.New("operation not allowed in current session state")
	// ErrRemoteInvalidateFailed is reported after local state was cleared and
	// the manager moved to Unauthenticated anyway.
	ErrRemoteInvalidateFailed = errors.New("remote session invalidation failed")
	ErrMissingCredentials     = errors.New("email and password are required")
	ErrResendFailed           = errors.New("unable to resend verification email")
	// ErrNoStoredSession is returned by Restore when nothing was persisted.
	ErrNoStoredSession = errors.New("no stored session")
)
