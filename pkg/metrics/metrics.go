// Package metrics exposes Prometheus instrumentation for the registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RegistryMetrics tracks registry-wide counters and gauges.
type RegistryMetrics struct {
	// Request counters
	UploadRequests     prometheus.Counter
	ActivationRequests prometheus.Counter
	DeprecateRequests  prometheus.Counter
	ChunkAccesses      prometheus.Counter
	CleanupRuns        prometheus.Counter

	// Error counters by class
	Errors *prometheus.CounterVec

	// Artifact population by lifecycle state
	ArtifactsByState *prometheus.GaugeVec

	// Governance counters
	ProposalsCreated prometheus.Counter
	VotesCast        prometheus.Counter
}

// NewRegistryMetrics creates and registers Prometheus metrics.
func NewRegistryMetrics(registry prometheus.Registerer) *RegistryMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	return &RegistryMetrics{
		UploadRequests: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "modelvault_upload_requests_total",
			Help: "Total number of artifact submission requests",
		}),
		ActivationRequests: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "modelvault_activation_requests_total",
			Help: "Total number of artifact activation requests",
		}),
		DeprecateRequests: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "modelvault_deprecate_requests_total",
			Help: "Total number of artifact deprecation requests",
		}),
		ChunkAccesses: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "modelvault_chunk_accesses_total",
			Help: "Total number of successful chunk reads",
		}),
		CleanupRuns: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "modelvault_cleanup_runs_total",
			Help: "Total number of deprecated-artifact cleanup passes",
		}),
		Errors: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "modelvault_errors_total",
			Help: "Total number of failed operations by error class",
		}, []string{"class"}),
		ArtifactsByState: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "modelvault_artifacts",
			Help: "Number of registered artifacts by lifecycle state",
		}, []string{"state"}),
		ProposalsCreated: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "modelvault_governance_proposals_total",
			Help: "Total number of governance proposals created",
		}),
		VotesCast: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "modelvault_governance_votes_total",
			Help: "Total number of governance votes cast",
		}),
	}
}

// RecordError bumps the error counter for one error class.
func (rm *RegistryMetrics) RecordError(class string) {
	if rm == nil {
		return
	}
	rm.Errors.WithLabelValues(class).Inc()
}
