package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the reconciliation core.
type Metrics struct {
	IdentitiesCreated   prometheus.Counter
	MintsConfirmed      prometheus.Counter
	MintsRejected       *prometheus.CounterVec
	VerificationSeconds *prometheus.HistogramVec
	OwnershipMismatches prometheus.Counter
	AuditLookupErrors   prometheus.Counter
	HTTPRequestSeconds  *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		IdentitiesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "motormint_identities_created_total",
			Help: "Total number of identities created on first wallet resolution",
		}),
		MintsConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "motormint_mints_confirmed_total",
			Help: "Total number of mints confirmed into vehicle profiles",
		}),
		MintsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "motormint_mints_rejected_total",
			Help: "Total number of rejected mint confirmations by reason",
		}, []string{"reason"}),
		VerificationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "motormint_mint_verification_seconds",
			Help:    "Latency of on-chain mint verification by outcome",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),
		OwnershipMismatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "motormint_ownership_mismatches_total",
			Help: "Total number of on-chain vs stored owner mismatches detected",
		}),
		AuditLookupErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "motormint_ownership_audit_lookup_errors_total",
			Help: "Total number of per-token lookup failures during ownership audits",
		}),
		HTTPRequestSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "motormint_http_request_seconds",
			Help:    "HTTP request latency by method, route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncIdentitiesCreated() {
	m.IdentitiesCreated.Inc()
}

func (m *Metrics) IncMintsConfirmed() {
	m.MintsConfirmed.Inc()
}

func (m *Metrics) IncMintsRejected(reason string) {
	m.MintsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveVerification(outcome string, d time.Duration) {
	m.VerificationSeconds.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) AddOwnershipMismatches(n int) {
	m.OwnershipMismatches.Add(float64(n))
}

func (m *Metrics) AddAuditLookupErrors(n int) {
	m.AuditLookupErrors.Add(float64(n))
}

func (m *Metrics) ObserveHTTPRequest(method, route, status string, d time.Duration) {
	m.HTTPRequestSeconds.WithLabelValues(method, route, status).Observe(d.Seconds())
}
