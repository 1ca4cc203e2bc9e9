package localstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/eduassist/internal/common"
	"github.com/dmitrijs2005/eduassist/internal/localstate/migrations"
)

// SQLiteStore persists local state in a sqlite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// OpenSQLite opens (creating if needed) the database at dsn, migrates it and
// drops what belonged to the previous process: session scope values and
// session cookies.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.startProcess(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) startProcess(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE scope = ?`, string(ScopeSession)); err != nil {
		return fmt.Errorf("failed to reset session scope: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM cookies WHERE expires_at IS NULL OR expires_at <= ?`, s.now().Unix()); err != nil {
		return fmt.Errorf("failed to reset session cookies: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, scope Scope, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE scope = ? AND key = ?`, string(scope), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrorNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %s[%s]: %w", scope, key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, scope Scope, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (scope, key, value) VALUES (?, ?, ?)
		ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value
	`, string(scope), key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s[%s]: %w", scope, key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, scope Scope, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE scope = ? AND key = ?`, string(scope), key)
	if err != nil {
		return fmt.Errorf("failed to delete %s[%s]: %w", scope, key, err)
	}
	return nil
}

func (s *SQLiteStore) Keys(ctx context.Context, scope Scope, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM kv
		WHERE scope = ? AND substr(key, 1, length(?)) = ?
		ORDER BY key
	`, string(scope), prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s keys: %w", scope, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key row: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate key rows: %w", err)
	}
	return keys, nil
}

func (s *SQLiteStore) SetCookie(ctx context.Context, c *http.Cookie) error {
	now := s.now()
	if cookieExpired(c, now) {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM cookies WHERE name = ?`, c.Name); err != nil {
			return fmt.Errorf("failed to delete cookie %s: %w", c.Name, err)
		}
		return nil
	}

	var expires sql.NullInt64
	if exp := cookieExpiry(c, now); !exp.IsZero() {
		expires = sql.NullInt64{Int64: exp.Unix(), Valid: true}
	}
	path := c.Path
	if path == "" {
		path = "/"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cookies (name, value, path, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, path = excluded.path, expires_at = excluded.expires_at
	`, c.Name, c.Value, path, expires)
	if err != nil {
		return fmt.Errorf("failed to set cookie %s: %w", c.Name, err)
	}
	return nil
}

func (s *SQLiteStore) Cookie(ctx context.Context, name string) (*http.Cookie, error) {
	var (
		c       = &http.Cookie{Name: name}
		expires sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `SELECT value, path, expires_at FROM cookies WHERE name = ?`, name).
		Scan(&c.Value, &c.Path, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cookie %s: %w", name, err)
	}
	if expires.Valid {
		c.Expires = time.Unix(expires.Int64, 0)
		if !c.Expires.After(s.now()) {
			return nil, common.ErrorNotFound
		}
	}
	return c, nil
}
