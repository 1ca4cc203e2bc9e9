package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/eduassist/internal/common"
	"github.com/dmitrijs2005/eduassist/internal/dbx"
	"github.com/dmitrijs2005/eduassist/internal/models"
)

const profileColumns = "id, email, full_name, role, cluster, mobile, created_at, updated_at"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.ProfileRecord, error) {
	var (
		rec              models.ProfileRecord
		role             string
		created, updated sql.NullTime
	)
	if err := row.Scan(&rec.ID, &rec.Email, &rec.FullName, &role, &rec.Cluster, &rec.Mobile, &created, &updated); err != nil {
		return nil, err
	}
	rec.Role = models.Role(role)
	if created.Valid {
		rec.CreatedAt = created.Time
	}
	if updated.Valid {
		rec.UpdatedAt = updated.Time
	}
	return &rec, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func (r *PostgresRepository) Read(ctx context.Context, id string) (*models.ProfileRecord, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	rec, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, id string, fields models.ProfileFields, merge bool) (*models.ProfileRecord, error) {
	var (
		query string
		args  []any
	)
	if merge {
		query, args = mergeStatement(id, fields)
	} else {
		rec := models.ProfileRecord{ID: id}
		fields.Apply(&rec, false)
		query =
			`INSERT INTO profiles (` + profileColumns + `)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
         ON CONFLICT (id) DO UPDATE SET
             email = EXCLUDED.email,
             full_name = EXCLUDED.full_name,
             role = EXCLUDED.role,
             cluster = EXCLUDED.cluster,
             mobile = EXCLUDED.mobile,
             created_at = EXCLUDED.created_at,
             updated_at = EXCLUDED.updated_at
         RETURNING ` + profileColumns
		args = []any{rec.ID, rec.Email, rec.FullName, string(rec.Role), rec.Cluster, rec.Mobile,
			nullTime(rec.CreatedAt), nullTime(rec.UpdatedAt)}
	}

	rec, err := scanProfile(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// mergeStatement builds an upsert that writes only the supplied columns, both
// on insert and on conflict. created_at is only filled when the row has none.
func mergeStatement(id string, f models.ProfileFields) (string, []any) {
	cols := []string{"id"}
	args := []any{id}

	add := func(col string, v any) {
		cols = append(cols, col)
		args = append(args, v)
	}
	if f.Email != nil {
		add("email", *f.Email)
	}
	if f.FullName != nil {
		add("full_name", *f.FullName)
	}
	if f.Role != nil {
		add("role", string(*f.Role))
	}
	if f.Cluster != nil {
		add("cluster", *f.Cluster)
	}
	if f.Mobile != nil {
		add("mobile", *f.Mobile)
	}
	if f.CreatedAt != nil {
		add("created_at", nullTime(*f.CreatedAt))
	}
	if f.UpdatedAt != nil {
		add("updated_at", nullTime(*f.UpdatedAt))
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	// With nothing supplied the no-op SET still lets RETURNING yield the row.
	set := []string{"id = EXCLUDED.id"}
	if len(cols) > 1 {
		set = set[:0]
		for _, c := range cols[1:] {
			if c == "created_at" {
				set = append(set, "created_at = COALESCE(profiles.created_at, EXCLUDED.created_at)")
				continue
			}
			set = append(set, c+" = EXCLUDED."+c)
		}
	}

	query := `INSERT INTO profiles (` + strings.Join(cols, ", ") + `)
         VALUES (` + strings.Join(placeholders, ", ") + `)
         ON CONFLICT (id) DO UPDATE SET ` + strings.Join(set, ", ") + `
         RETURNING ` + profileColumns
	return query, args
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
