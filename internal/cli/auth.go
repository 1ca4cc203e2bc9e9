package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/eduassist/internal/common"
	"github.com/dmitrijs2005/eduassist/internal/feedback"
	"github.com/dmitrijs2005/eduassist/internal/models"
	"github.com/dmitrijs2005/eduassist/internal/validation"
)

// getSimpleText, getPassword and getYesNo are indirections used to
// facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getYesNo      = GetYesNo
)

var registrationOrder = []string{
	validation.FieldFullName,
	validation.FieldEmail,
	validation.FieldMobile,
	validation.FieldCluster,
	validation.FieldPassword,
	validation.FieldConfirmPassword,
}

func (a *App) readSecret(prompt string) (string, error) {
	pw, err := getPassword(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// Register collects the registration form, validates it and provisions the
// account. Nothing reaches the backend when validation fails.
func (a *App) Register(ctx context.Context) error {
	var in models.RegistrationInput
	var err error

	prompts := []struct {
		label string
		dst   *string
	}{
		{"Full name", &in.FullName},
		{"Email", &in.Email},
		{"Mobile number", &in.Mobile},
		{"Cluster", &in.Cluster},
	}
	for _, p := range prompts {
		if *p.dst, err = getSimpleText(a.reader, p.label, a.out); err != nil {
			return err
		}
	}
	if in.Password, err = a.readSecret("Password"); err != nil {
		return err
	}
	if in.ConfirmPassword, err = a.readSecret("Confirm password"); err != nil {
		return err
	}

	errs := validation.Registration(in)
	if err := errs.Err(); err != nil {
		a.show(feedback.Validation(errs, registrationOrder...))
		return err
	}

	if _, err := a.registrar.Register(ctx, in); err != nil {
		a.show(feedback.Registration(err))
		return err
	}
	a.show(feedback.Registered())
	return nil
}

// Login collects credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	var in models.LoginInput
	var err error

	if in.Username, err = getSimpleText(a.reader, "Email", a.out); err != nil {
		return err
	}
	if in.Password, err = a.readSecret("Password"); err != nil {
		return err
	}
	if in.Remember, err = getYesNo(a.reader, "Remember me?", a.out); err != nil {
		return err
	}

	errs := validation.Login(in)
	if err := errs.Err(); err != nil {
		a.show(feedback.Validation(errs, validation.FieldUsername, validation.FieldPassword))
		return err
	}

	if _, err := a.sessions.SignIn(ctx, in); err != nil {
		a.show(feedback.SignIn(err))
		return err
	}
	a.show(feedback.SignedIn())
	return nil
}

// Logout ends the session. Local state is cleared even when the backend
// cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	err := a.sessions.SignOut(ctx)
	a.show(feedback.SignOut(err))
	return err
}

// Resend asks for credentials and resends the verification email when the
// address is still unverified.
func (a *App) Resend(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := a.readSecret("Password")
	if err != nil {
		return err
	}

	outcome, err := a.sessions.ResendVerification(ctx, username, password)
	a.show(feedback.Resend(outcome, err))
	return err
}

// Verify redeems a verification token received by email.
func (a *App) Verify(ctx context.Context, token string) error {
	if a.confirmer == nil {
		fmt.Fprintln(a.out, "Email verification is not available with this identity backend.")
		return nil
	}
	err := a.confirmer.ConfirmEmail(ctx, token)
	a.show(feedback.Confirm(err))
	return err
}
