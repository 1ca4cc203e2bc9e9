// Package cli provides the interactive EduAssist coordinator console.
//
// The REPL exposes registration, sign-in, sign-out and verification
// commands. Forms are validated before any backend call and every outcome is
// reported as a short title/description pair from package feedback.
//
// The loop is started via App.Root(ctx) and blocks until the user exits or
// input ends.
package cli
