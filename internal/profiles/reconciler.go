// Package profiles keeps an identity's profile document in step with the
// identity: Ensure creates the document on first contact and afterwards only
// refreshes it, never touching the creation timestamp.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/eduassist/internal/common"
	"github.com/dmitrijs2005/eduassist/internal/logging"
	"github.com/dmitrijs2005/eduassist/internal/models"
	profilesrepo "github.com/dmitrijs2005/eduassist/internal/repositories/profiles"
)

// Reconciler performs the read-then-upsert that makes profile setup
// idempotent.
type Reconciler struct {
	repo profilesrepo.Repository
	log  logging.Logger
	now  func() time.Time
}

// NewReconciler uses time.Now when now is nil.
func NewReconciler(repo profilesrepo.Repository, log logging.Logger, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{repo: repo, log: log, now: now}
}

// Ensure writes fields for id. An absent document is created with both
// timestamps set to now; an existing one is merged with updatedAt set to now
// and its createdAt preserved. A caller-supplied timestamp is ignored.
//
// The create write is itself a merge with an insert-only createdAt, so a
// concurrent writer that got there first keeps its fields and creation time.
func (r *Reconciler) Ensure(ctx context.Context, id string, fields models.ProfileFields) (*models.ProfileRecord, error) {
	return r.reconcile(ctx, id, fields, fields)
}

// Touch creates the document from fields when absent and otherwise only
// refreshes updatedAt. Sign-in uses it so an existing profile keeps what
// registration wrote.
func (r *Reconciler) Touch(ctx context.Context, id string, fields models.ProfileFields) (*models.ProfileRecord, error) {
	return r.reconcile(ctx, id, fields, models.ProfileFields{})
}

func (r *Reconciler) reconcile(ctx context.Context, id string, create, merge models.ProfileFields) (*models.ProfileRecord, error) {
	now := r.now().UTC()

	_, err := r.repo.Read(ctx, id)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		create.CreatedAt = &now
		create.UpdatedAt = &now
		rec, err := r.repo.Upsert(ctx, id, create, true)
		if err != nil {
			return nil, fmt.Errorf("create profile: %w", err)
		}
		r.log.Debug(ctx, "profile created", "identity_id", id)
		return rec, nil
	case err != nil:
		return nil, fmt.Errorf("read profile: %w", err)
	}

	merge.CreatedAt = nil
	merge.UpdatedAt = &now
	rec, err := r.repo.Upsert(ctx, id, merge, true)
	if err != nil {
		return nil, fmt.Errorf("merge profile: %w", err)
	}
	r.log.Debug(ctx, "profile refreshed", "identity_id", id)
	return rec, nil
}

// Remove deletes the profile document of id.
func (r *Reconciler) Remove(ctx context.Context, id string) error {
	return r.repo.Delete(ctx, id)
}

// RegistrationFields is the document written when a coordinator registers.
func RegistrationFields(email, fullName, mobile, cluster string) models.ProfileFields {
	return models.ProfileFields{
		Email:    &email,
		FullName: &fullName,
		Mobile:   &mobile,
		Cluster:  &cluster,
		Role:     models.Ptr(models.RoleCoordinator),
	}
}

// SignInFields is the document created when a sign-in finds no profile.
func SignInFields(email string) models.ProfileFields {
	return models.ProfileFields{
		Email: &email,
		Role:  models.Ptr(models.RoleCoordinator),
	}
}
