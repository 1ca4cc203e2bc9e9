package app

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/eduassist/internal/config"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.LocalStatePath = filepath.Join(t.TempDir(), "state", "local.db")
	return c
}

func TestNewApp_MemoryBackendsRunConsole(t *testing.T) {
	c := memoryConfig(t)

	var out, logs bytes.Buffer
	app, err := NewApp(context.Background(), c, strings.NewReader("help\nwhoami\nexit\n"), &out, &logs)
	require.NoError(t, err)

	app.Run(context.Background())

	assert.Contains(t, out.String(), "EduAssist coordinator console")
	assert.Contains(t, out.String(), "Not signed in.")
	assert.Contains(t, out.String(), "Bye!")
	assert.Contains(t, logs.String(), `"msg":"Starting app..."`)
	assert.Empty(t, app.closers, "Run releases resources")
}

func TestNewApp_InMemoryLocalState(t *testing.T) {
	c := memoryConfig(t)
	c.LocalStatePath = ""

	app, err := NewApp(context.Background(), c, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, app.Close(context.Background()))
}

func TestNewApp_UnknownProfileBackend(t *testing.T) {
	c := memoryConfig(t)
	c.ProfileBackend = "redis"

	_, err := NewApp(context.Background(), c, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown profile backend "redis"`)
}

func TestNewApp_DatabaseUnreachable(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	orig := openDB
	openDB = func(string) (*sql.DB, error) { return db, nil }
	t.Cleanup(func() { openDB = orig })

	c := memoryConfig(t)
	c.IdentityBackend = config.BackendPostgres

	_, err = NewApp(context.Background(), c, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db ping error")
	assert.NoError(t, mock.ExpectationsWereMet(), "the database is closed on failure")
}
