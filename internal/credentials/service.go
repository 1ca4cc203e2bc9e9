// Package credentials is the boundary to the identity backend: it creates,
// verifies, invalidates and deletes identities and triggers verification
// mail. Callers depend on Service and match its errors with errors.Is.
package credentials

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/eduassist/internal/models"
)

var (
	ErrEmailInUse        = errors.New("email already in use")
	ErrWeakPassword      = errors.New("password rejected by identity provider")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrNotFound          = errors.New("identity not found")
	// ErrNetwork covers transport failures and timeouts.
	ErrNetwork = errors.New("identity provider unreachable")
)

// MinPasswordLength is the identity provider's own password floor. The
// application's validation layer is stricter.
const MinPasswordLength = 6

// Service is the credential service contract.
type Service interface {
	// Create registers a new identity. The returned Identity carries no Token.
	Create(ctx context.Context, email, password string) (*models.Identity, error)

	// Verify checks the credentials and opens a provider session whose
	// handle is returned in Identity.Token. Unknown account and wrong
	// password are both ErrInvalidCredential.
	Verify(ctx context.Context, email, password string) (*models.Identity, error)

	// Invalidate ends the provider session held by identity.
	Invalidate(ctx context.Context, identity *models.Identity) error

	// Delete removes the identity permanently.
	Delete(ctx context.Context, identity *models.Identity) error

	// ResendVerification sends a new verification message for the identity's
	// email. identity must come from Verify.
	ResendVerification(ctx context.Context, identity *models.Identity) error
}
