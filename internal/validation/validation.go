// Package validation checks registration and sign-in forms before anything
// touches the network. Every rule is a pure predicate over the raw input.
package validation

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/dmitrijs2005/eduassist/internal/models"
)

// ErrInvalid is matched by every non-empty Errors value.
var ErrInvalid = errors.New("validation failed")

// Field keys, as used by the forms.
const (
	FieldFullName        = "fullName"
	FieldEmail           = "email"
	FieldMobile          = "mobile"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldCluster         = "cluster"
	FieldUsername        = "username"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobilePattern = regexp.MustCompile(`^[0-9]{10,15}$`)
)

const minPasswordLength = 8

// Errors maps a field name to a human-readable reason. Empty means valid.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

func (e Errors) Is(target error) bool {
	return target == ErrInvalid && len(e) > 0
}

// Err returns nil for an empty set and the set itself otherwise, so callers
// can write `if err := validation.Login(in).Err(); err != nil`.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Registration validates the coordinator registration form.
func Registration(in models.RegistrationInput) Errors {
	return collect(ozzo.Errors{
		FieldFullName: ozzo.Validate(in.FullName,
			notBlank("Full name is required")),
		FieldEmail: ozzo.Validate(in.Email,
			notBlank("Email is required"),
			ozzo.Match(emailPattern).Error("Invalid email format")),
		FieldMobile: ozzo.Validate(in.Mobile,
			notBlank("Mobile number is required"),
			ozzo.Match(mobilePattern).Error("Enter a valid mobile number (10–15 digits)")),
		FieldPassword: ozzo.Validate(in.Password,
			ozzo.Required.Error("Password is required"),
			ozzo.By(strongPassword)),
		FieldConfirmPassword: ozzo.Validate(in.ConfirmPassword,
			ozzo.By(equals(in.Password, "Passwords do not match"))),
		FieldCluster: ozzo.Validate(in.Cluster,
			notBlank("Cluster identification is required")),
	})
}

// Login validates the sign-in form: both fields must be present.
func Login(in models.LoginInput) Errors {
	return collect(ozzo.Errors{
		FieldUsername: ozzo.Validate(in.Username, notBlank("Email is required")),
		FieldPassword: ozzo.Validate(in.Password, ozzo.Required.Error("Password is required")),
	})
}

func collect(errs ozzo.Errors) Errors {
	out := Errors{}
	for field, err := range errs {
		if err != nil {
			out[field] = err.Error()
		}
	}
	return out
}

// notBlank rejects empty and whitespace-only strings. Unlike ozzo.Required it
// trims before checking.
func notBlank(msg string) ozzo.Rule {
	return ozzo.By(func(value interface{}) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return errors.New(msg)
		}
		return nil
	})
}

func equals(want, msg string) ozzo.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != want {
			return errors.New(msg)
		}
		return nil
	}
}

// strongPassword requires at least eight characters with an ASCII lowercase
// letter, an ASCII uppercase letter and a digit.
func strongPassword(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if utf8.RuneCountInString(s) < minPasswordLength || !lower || !upper || !digit {
		return errors.New("Password must be at least 8 chars and include uppercase, lowercase, and a number")
	}
	return nil
}
