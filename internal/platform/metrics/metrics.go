package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the verification service.
type Metrics struct {
	VerificationsTotal  *prometheus.CounterVec
	VerificationLatency prometheus.Histogram
	RiskScore           prometheus.Histogram
	BulkJobsTotal       prometheus.Counter
	BulkJobSize         prometheus.Histogram

	ReplaysRejected prometheus.Counter

	PresentationRequestsCreated  prometheus.Counter
	PresentationRequestsConsumed prometheus.Counter
	PresentationRequestsExpired  prometheus.Counter

	AnchorCallsTotal *prometheus.CounterVec

	IssuerLookupsTotal *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		VerificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "proofgate_verifications_total",
			Help: "Total number of credential verifications, labeled by final status",
		}, []string{"status"}),
		VerificationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "proofgate_verification_latency_seconds",
			Help:    "End-to-end latency of a single verification pipeline run",
			Buckets: prometheus.DefBuckets,
		}),
		RiskScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "proofgate_risk_score",
			Help:    "Distribution of aggregated risk scores",
			Buckets: []float64{0, 5, 10, 20, 30, 40, 50, 70, 90, 100},
		}),
		BulkJobsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "proofgate_bulk_jobs_total",
			Help: "Total number of bulk verification jobs processed",
		}),
		BulkJobSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "proofgate_bulk_job_size",
			Help:    "Number of credentials per bulk job",
			Buckets: []float64{1, 5, 10, 25, 50, 100},
		}),
		ReplaysRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "proofgate_proof_replays_rejected_total",
			Help: "Total number of proof submissions rejected as replays",
		}),
		PresentationRequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "proofgate_presentation_requests_created_total",
			Help: "Total number of presentation requests issued",
		}),
		PresentationRequestsConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "proofgate_presentation_requests_consumed_total",
			Help: "Total number of presentation requests consumed by a response",
		}),
		PresentationRequestsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "proofgate_presentation_requests_expired_total",
			Help: "Total number of presentation requests pruned after TTL expiry",
		}),
		AnchorCallsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "proofgate_anchor_calls_total",
			Help: "Total anchor client calls, labeled by operation and outcome",
		}, []string{"op", "outcome"}),
		IssuerLookupsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "proofgate_issuer_lookups_total",
			Help: "Total issuer registry lookups, labeled by source (seed, cache, remote, miss)",
		}, []string{"source"}),
	}
}

// ObserveVerification records the latency and outcome for a pipeline run.
func (m *Metrics) ObserveVerification(status string, riskScore int, start time.Time) {
	m.VerificationsTotal.WithLabelValues(status).Inc()
	m.RiskScore.Observe(float64(riskScore))
	m.VerificationLatency.Observe(time.Since(start).Seconds())
}
