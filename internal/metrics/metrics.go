// Package metrics exposes prometheus counters for registration and session
// lifecycle outcomes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalid            = "invalid"
	OutcomeCredentialConflict = "credential_conflict"
	OutcomeCredentialRejected = "credential_rejected"
	OutcomeRolledBack         = "rolled_back"
	OutcomeOrphaned           = "orphaned"
	OutcomeUnavailable        = "unavailable"
	OutcomeFailed             = "failed"
	OutcomeAlreadyVerified    = "already_verified"
	OutcomeResendTriggered    = "resend_triggered"
)

type Metrics struct {
	Registrations     *prometheus.CounterVec
	OrphanedIdentity  prometheus.Counter
	RegisterDuration  prometheus.Histogram
	SignIns           *prometheus.CounterVec
	SignOuts          *prometheus.CounterVec
	ProfileReconcile  *prometheus.CounterVec
	VerificationSends *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the metrics on reg. Pass prometheus.NewRegistry() in tests so
// every instance starts from zero.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eduassist_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),
		OrphanedIdentity: f.NewCounter(prometheus.CounterOpts{
			Name: "eduassist_orphaned_identities_total",
			Help: "Identities left behind because rollback failed; each needs operator cleanup",
		}),
		RegisterDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "eduassist_register_duration_seconds",
			Help:    "Duration of registration including any compensation",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		SignIns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eduassist_sign_ins_total",
			Help: "Sign-in attempts by outcome",
		}, []string{"outcome"}),
		SignOuts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eduassist_sign_outs_total",
			Help: "Sign-outs by outcome of the remote invalidation",
		}, []string{"outcome"}),
		ProfileReconcile: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eduassist_profile_reconcile_total",
			Help: "Best-effort profile reconciliation on sign-in by outcome",
		}, []string{"outcome"}),
		VerificationSends: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eduassist_verification_resends_total",
			Help: "Verification resend requests by outcome",
		}, []string{"outcome"}),
		gatherer: reg,
	}
}

// Registration records one registration attempt.
func (m *Metrics) Registration(outcome string, start time.Time) {
	m.Registrations.WithLabelValues(outcome).Inc()
	m.RegisterDuration.Observe(time.Since(start).Seconds())
	if outcome == OutcomeOrphaned {
		m.OrphanedIdentity.Inc()
	}
}

func (m *Metrics) SignIn(outcome string) {
	m.SignIns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SignOut(outcome string) {
	m.SignOuts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Reconcile(outcome string) {
	m.ProfileReconcile.WithLabelValues(outcome).Inc()
}

func (m *Metrics) VerificationResend(outcome string) {
	m.VerificationSends.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
