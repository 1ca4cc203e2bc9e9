// Package migrations embeds the goose migrations for the Postgres schema:
// the identity backend (users, sessions, email verifications), the profile
// documents and the orphaned-identity report table.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
