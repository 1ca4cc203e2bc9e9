// Package profiles stores the application's per-identity profile documents.
//
// Four backends implement Repository: Postgres, MongoDB, an S3 compatible
// object store and an in-process map. All of them key documents by the
// identity id and give Upsert the same replace/merge semantics as
// models.ProfileFields.Apply.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/eduassist/internal/models"
)

// Repository is the profile store contract.
type Repository interface {
	// Read returns common.ErrorNotFound when no document exists for id.
	Read(ctx context.Context, id string) (*models.ProfileRecord, error)

	// Upsert creates the document when absent. With merge=false the stored
	// document becomes exactly fields; with merge=true only the supplied
	// fields are written. It returns the stored document.
	Upsert(ctx context.Context, id string, fields models.ProfileFields, merge bool) (*models.ProfileRecord, error)

	// Delete removes the document. Deleting a missing document succeeds.
	Delete(ctx context.Context, id string) error
}
