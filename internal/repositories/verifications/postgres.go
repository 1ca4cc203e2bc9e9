package verifications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/eduassist/internal/common"
	"github.com/dmitrijs2005/eduassist/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Replace issues two statements; run it inside dbx.WithTx to make them atomic.
func (r *PostgresRepository) Replace(ctx context.Context, v *Verification) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM email_verifications WHERE user_id = $1`, v.UserID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	query :=
		`INSERT INTO email_verifications (token, user_id, expires_at)
         VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, v.Token, v.UserID, v.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Consume(ctx context.Context, token string, now time.Time) (string, error) {
	query :=
		`DELETE FROM email_verifications
         WHERE token = $1 AND expires_at > $2
         RETURNING user_id`

	var userID string
	if err := r.db.QueryRowContext(ctx, query, token, now).Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return userID, nil
}
