// Package models holds the data types shared by the credential adapter, the
// profile store, the provisioning coordinator and the session manager.
package models

// Identity is a transient reference to an authenticated principal owned by the
// credential service. The core never persists it.
type Identity struct {
	ID       string
	Email    string
	Verified bool
	// Token is the provider session handle issued by Verify. Create leaves it
	// empty.
	Token string
}

// RegistrationInput is the raw registration form.
type RegistrationInput struct {
	FullName        string
	Email           string
	Mobile          string
	Password        string
	ConfirmPassword string
	Cluster         string
}

// LoginInput is the raw sign-in form.
type LoginInput struct {
	Username string
	Password string
	Remember bool
}
