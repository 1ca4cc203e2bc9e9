package provisioning

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialConflict means an identity with the email already exists.
	ErrCredentialConflict = errors.New("an account with this email already exists")
	// ErrCredentialRejected covers every other identity creation failure.
	ErrCredentialRejected = errors.New("account creation rejected")
	// ErrProfileSetupFailed means the profile could not be written and the
	// identity was rolled back; nothing is left behind.
	ErrProfileSetupFailed = errors.New("profile setup failed")
	// ErrOrphanedIdentity matches *OrphanedIdentityError.
	ErrOrphanedIdentity = errors.New("orphaned identity")
)

// OrphanedIdentityError reports an identity that still exists after its
// profile setup failed and the rollback could not delete it.
type OrphanedIdentityError struct {
	IdentityID string
	Email      string
	SetupErr   error
	DeleteErr  error
}

func (e *OrphanedIdentityError) Error() string {
	return fmt.Sprintf("orphaned identity %s: profile setup: %v; identity delete: %v", e.IdentityID, e.SetupErr, e.DeleteErr)
}

func (e *OrphanedIdentityError) Is(target error) bool {
	return target == ErrOrphanedIdentity
}

func (e *OrphanedIdentityError) Unwrap() []error {
	return []error{e.SetupErr, e.DeleteErr}
}
