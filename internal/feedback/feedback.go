// Package feedback turns operation results into the short title/description
// pairs shown to the user. Internal inconsistencies get a generic message
// here; their detail goes to the logs.
package feedback

import (
	"errors"

	"github.com/dmitrijs2005/eduassist/internal/credentials"
	"github.com/dmitrijs2005/eduassist/internal/provisioning"
	"github.com/dmitrijs2005/eduassist/internal/session"
	"github.com/dmitrijs2005/eduassist/internal/validation"
)

type Message struct {
	Title       string
	Description string
	Destructive bool
}

func failure(title, description string) Message {
	return Message{Title: title, Description: description, Destructive: true}
}

// Validation reports the first failing field in form order.
func Validation(errs validation.Errors, order ...string) Message {
	for _, f := range order {
		if reason, ok := errs[f]; ok {
			return failure("Please check the form", reason)
		}
	}
	return failure("Please check the form", errs.Error())
}

func Registered() Message {
	return Message{Title: "Registration Successful", Description: "Your account has been created. Please log in."}
}

func Registration(err error) Message {
	switch {
	case errors.Is(err, provisioning.ErrCredentialConflict):
		return failure("Email already in use", "This email is registered. Please log in instead.")
	case errors.Is(err, provisioning.ErrProfileSetupFailed), errors.Is(err, provisioning.ErrOrphanedIdentity):
		return failure("Registration Failed", "We couldn’t finish setting up your account. Please try again.")
	case errors.Is(err, credentials.ErrWeakPassword):
		return failure("Registration Failed", "Password should be at least 6 characters.")
	case errors.Is(err, credentials.ErrNetwork):
		return failure("Registration Failed", "Network error. Please check your connection and try again.")
	default:
		return failure("Registration Failed", "An unknown error occurred.")
	}
}

func SignedIn() Message {
	return Message{Title: "Welcome back!", Description: "Login successful. You are now signed in to the console."}
}

func SignIn(err error) Message {
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		return failure("Login Failed", "Invalid email or password.")
	case errors.Is(err, session.ErrServiceUnavailable):
		return failure("Login Failed", "Network error. Please check your connection and try again.")
	case errors.Is(err, session.ErrInvalidState):
		return failure("Login Failed", "A sign-in is already in progress or you are already signed in.")
	default:
		return failure("Login Failed", "Unable to sign in. Check your credentials.")
	}
}

// SignOut treats a failed remote invalidation as a success on this device.
func SignOut(err error) Message {
	switch {
	case err == nil:
		return Message{Title: "Logged out successfully"}
	case errors.Is(err, session.ErrInvalidState):
		return failure("Logout failed. Please try again.", "")
	case errors.Is(err, session.ErrRemoteInvalidateFailed):
		return Message{Title: "Logged out successfully", Description: "The server session could not be ended; it will expire on its own."}
	default:
		return failure("Logout failed. Please try again.", "")
	}
}

func Resend(outcome session.VerificationOutcome, err error) Message {
	switch {
	case errors.Is(err, session.ErrMissingCredentials):
		return failure("Missing Credentials", "Please enter your email and password first.")
	case errors.Is(err, session.ErrInvalidCredentials):
		return failure("Failed to Resend", "Invalid email or password.")
	case errors.Is(err, session.ErrResendFailed), errors.Is(err, session.ErrInvalidState):
		return failure("Failed to Resend", "Unable to resend verification email.")
	}

	switch outcome {
	case session.AlreadyVerified:
		return Message{Title: "Email Already Verified", Description: "Your email is already verified. Please log in."}
	case session.ResendTriggered:
		return Message{Title: "Verification Email Sent", Description: "Please check your inbox for the verification link."}
	default:
		return failure("Failed to Resend", "Unable to resend verification email.")
	}
}

func Confirm(err error) Message {
	switch {
	case err == nil:
		return Message{Title: "Email Verified", Description: "Your email is verified. Please log in."}
	case errors.Is(err, credentials.ErrInvalidVerificationToken):
		return failure("Verification Failed", "This verification link is invalid or has expired.")
	default:
		return failure("Verification Failed", "Unable to verify your email. Please try again.")
	}
}
