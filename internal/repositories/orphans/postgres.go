package orphans

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/eduassist/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Record(ctx context.Context, o *Orphan) error {
	query :=
		`INSERT INTO orphaned_identities (identity_id, email, setup_error, delete_error, detected_at)
         VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.ExecContext(ctx, query,
		o.IdentityID, o.Email, o.SetupError, o.DeleteError, o.DetectedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]Orphan, error) {
	query :=
		`SELECT identity_id, email, setup_error, delete_error, detected_at
         FROM orphaned_identities
         ORDER BY detected_at DESC
         LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []Orphan
	for rows.Next() {
		var o Orphan
		if err := rows.Scan(&o.IdentityID, &o.Email, &o.SetupError, &o.DeleteError, &o.DetectedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
