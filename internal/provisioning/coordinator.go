// Package provisioning registers coordinators across two stores that share
// no transaction: the identity backend and the profile store. A failed
// profile write is compensated by deleting what was created; an identity
// that cannot be deleted is reported as orphaned.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrijs2005/eduassist/internal/common"
	"github.com/dmitrijs2005/eduassist/internal/credentials"
	"github.com/dmitrijs2005/eduassist/internal/logging"
	"github.com/dmitrijs2005/eduassist/internal/metrics"
	"github.com/dmitrijs2005/eduassist/internal/models"
	"github.com/dmitrijs2005/eduassist/internal/profiles"
	"github.com/dmitrijs2005/eduassist/internal/repositories/orphans"
	"github.com/dmitrijs2005/eduassist/internal/telemetry"
)

// DefaultCompensationTimeout bounds the rollback after a failed profile setup.
const DefaultCompensationTimeout = 30 * time.Second

// ProfileStore is satisfied by *profiles.Reconciler.
type ProfileStore interface {
	Ensure(ctx context.Context, id string, fields models.ProfileFields) (*models.ProfileRecord, error)
	Remove(ctx context.Context, id string) error
}

type Coordinator struct {
	creds               credentials.Service
	profiles            ProfileStore
	orphans             orphans.Repository
	metrics             *metrics.Metrics
	log                 logging.Logger
	tracer              trace.Tracer
	now                 func() time.Time
	compensationTimeout time.Duration
}

type Option func(*Coordinator)

func WithCompensationTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.compensationTimeout = d }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = t }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func NewCoordinator(creds credentials.Service, store ProfileStore, orphans orphans.Repository,
	m *metrics.Metrics, log logging.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		creds:               creds,
		profiles:            store,
		orphans:             orphans,
		metrics:             m,
		log:                 log,
		tracer:              telemetry.Tracer(),
		now:                 time.Now,
		compensationTimeout: DefaultCompensationTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Register creates the identity and then its profile. The input must already
// have passed validation.Registration.
//
// Errors: ErrCredentialConflict, ErrCredentialRejected, ErrProfileSetupFailed
// or *OrphanedIdentityError. Rollback runs to completion even when ctx is
// cancelled.
func (c *Coordinator) Register(ctx context.Context, in models.RegistrationInput) (*models.ProfileRecord, error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "provisioning.Register")
	defer span.End()

	identity, err := c.creds.Create(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, credentials.ErrEmailInUse) {
			c.metrics.Registration(metrics.OutcomeCredentialConflict, start)
			return nil, fmt.Errorf("%w: %w", ErrCredentialConflict, err)
		}
		c.metrics.Registration(metrics.OutcomeCredentialRejected, start)
		c.log.Warn(ctx, "identity creation rejected", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrCredentialRejected, err)
	}
	span.SetAttributes(attribute.String("identity.id", identity.ID))
	log := c.log.With("identity_id", identity.ID)

	fields := profiles.RegistrationFields(identity.Email, in.FullName, in.Mobile, in.Cluster)
	rec, err := c.profiles.Ensure(ctx, identity.ID, fields)
	if err != nil {
		log.Warn(ctx, "profile setup failed, rolling back identity", "error", err)
		return nil, c.compensate(ctx, span, log, identity, err, start)
	}

	c.metrics.Registration(metrics.OutcomeSuccess, start)
	log.Info(ctx, "coordinator registered")
	return rec, nil
}

// compensate undoes phase one: profile first, then the identity.
func (c *Coordinator) compensate(ctx context.Context, span trace.Span, log logging.Logger,
	identity *models.Identity, setupErr error, start time.Time) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.compensationTimeout)
	defer cancel()

	if err := c.profiles.Remove(cctx, identity.ID); err != nil && !errors.Is(err, common.ErrorNotFound) {
		log.Warn(cctx, "rollback: profile delete failed, ignoring", "error", err)
	}

	err := c.creds.Delete(cctx, identity)
	if err == nil || errors.Is(err, credentials.ErrNotFound) {
		c.metrics.Registration(metrics.OutcomeRolledBack, start)
		log.Info(cctx, "rollback complete")
		return fmt.Errorf("%w: %w", ErrProfileSetupFailed, setupErr)
	}

	orphan := &OrphanedIdentityError{
		IdentityID: identity.ID,
		Email:      identity.Email,
		SetupErr:   setupErr,
		DeleteErr:  err,
	}
	c.reportOrphan(cctx, span, log, orphan)
	c.metrics.Registration(metrics.OutcomeOrphaned, start)
	return orphan
}

func (c *Coordinator) reportOrphan(ctx context.Context, span trace.Span, log logging.Logger, o *OrphanedIdentityError) {
	log.Error(ctx, "orphaned identity: rollback could not delete identity",
		"alert", "orphaned_identity",
		"email", o.Email,
		"setup_error", o.SetupErr.Error(),
		"delete_error", o.DeleteErr.Error())

	span.RecordError(o)
	span.SetStatus(codes.Error, "orphaned identity")
	span.SetAttributes(attribute.Bool("identity.orphaned", true))

	if c.orphans == nil {
		return
	}
	err := c.orphans.Record(ctx, &orphans.Orphan{
		IdentityID:  o.IdentityID,
		Email:       o.Email,
		SetupError:  o.SetupErr.Error(),
		DeleteError: o.DeleteErr.Error(),
		DetectedAt:  c.now().UTC(),
	})
	if err != nil {
		log.Error(ctx, "orphaned identity could not be recorded", "alert", "orphaned_identity", "error", err)
	}
}
