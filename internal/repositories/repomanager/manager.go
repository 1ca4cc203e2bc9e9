package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/eduassist/internal/dbx"
	"github.com/dmitrijs2005/eduassist/internal/repositories/orphans"
	"github.com/dmitrijs2005/eduassist/internal/repositories/profiles"
	"github.com/dmitrijs2005/eduassist/internal/repositories/sessions"
	"github.com/dmitrijs2005/eduassist/internal/repositories/users"
	"github.com/dmitrijs2005/eduassist/internal/repositories/verifications"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Verifications(db dbx.DBTX) verifications.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Orphans(db dbx.DBTX) orphans.Repository
}
