package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CleanupMetrics holds metrics related to the media cleanup pipeline.
type CleanupMetrics struct {
	// OrphansMarked counts media items flipped to pending deletion
	// because their last reference was removed or an orphan scan found them.
	OrphansMarked prometheus.Counter

	// ItemsReclaimed counts media items whose blobs were deleted from
	// the object store after the grace period elapsed.
	ItemsReclaimed prometheus.Counter

	// DeleteFailures counts object store delete attempts that failed.
	// Failed items stay pending and are retried on the next run.
	DeleteFailures prometheus.Counter

	// ReclaimableBacklog tracks the number of items past their grace
	// period observed at the start of the most recent cleanup run.
	ReclaimableBacklog prometheus.Gauge

	// RunDuration tracks cleanup run latency in seconds by outcome.
	RunDuration *prometheus.HistogramVec
}

// NewCleanupMetrics creates and registers cleanup metrics.
// Uses promauto for automatic registration with the default registry.
func NewCleanupMetrics() *CleanupMetrics {
	return &CleanupMetrics{
		OrphansMarked: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cleanup",
				Name:      "orphans_marked_total",
				Help:      "Total number of media items marked pending deletion.",
			},
		),
		ItemsReclaimed: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cleanup",
				Name:      "items_reclaimed_total",
				Help:      "Total number of media items whose blobs were deleted after the grace period.",
			},
		),
		DeleteFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cleanup",
				Name:      "delete_failures_total",
				Help:      "Total number of failed object store delete attempts during cleanup.",
			},
		),
		ReclaimableBacklog: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "cleanup",
				Name:      "reclaimable_backlog",
				Help:      "Number of items past their grace period at the start of the latest cleanup run.",
			},
		),
		RunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "cleanup",
				Name:      "run_duration_seconds",
				Help:      "Cleanup run duration in seconds, broken down by status.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),
	}
}

// NewCleanupMetricsWithRegistry creates cleanup metrics registered with a
// custom registry. Useful for testing to avoid conflicts with the default
// registry.
func NewCleanupMetricsWithRegistry(reg prometheus.Registerer) *CleanupMetrics {
	orphansMarked := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleanup",
			Name:      "orphans_marked_total",
			Help:      "Total number of media items marked pending deletion.",
		},
	)

	itemsReclaimed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleanup",
			Name:      "items_reclaimed_total",
			Help:      "Total number of media items whose blobs were deleted after the grace period.",
		},
	)

	deleteFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleanup",
			Name:      "delete_failures_total",
			Help:      "Total number of failed object store delete attempts during cleanup.",
		},
	)

	reclaimableBacklog := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cleanup",
			Name:      "reclaimable_backlog",
			Help:      "Number of items past their grace period at the start of the latest cleanup run.",
		},
	)

	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cleanup",
			Name:      "run_duration_seconds",
			Help:      "Cleanup run duration in seconds, broken down by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	reg.MustRegister(orphansMarked)
	reg.MustRegister(itemsReclaimed)
	reg.MustRegister(deleteFailures)
	reg.MustRegister(reclaimableBacklog)
	reg.MustRegister(runDuration)

	return &CleanupMetrics{
		OrphansMarked:      orphansMarked,
		ItemsReclaimed:     itemsReclaimed,
		DeleteFailures:     deleteFailures,
		ReclaimableBacklog: reclaimableBacklog,
		RunDuration:        runDuration,
	}
}

// RecordOrphansMarked adds to the orphans-marked counter.
func (m *CleanupMetrics) RecordOrphansMarked(count int) {
	m.OrphansMarked.Add(float64(count))
}

// RecordItemsReclaimed adds to the items-reclaimed counter.
func (m *CleanupMetrics) RecordItemsReclaimed(count int) {
	m.ItemsReclaimed.Add(float64(count))
}

// RecordDeleteFailures adds to the delete-failures counter.
func (m *CleanupMetrics) RecordDeleteFailures(count int) {
	m.DeleteFailures.Add(float64(count))
}

// RecordReclaimableBacklog sets the reclaimable backlog gauge.
func (m *CleanupMetrics) RecordReclaimableBacklog(count int) {
	m.ReclaimableBacklog.Set(float64(count))
}

// RecordRunDuration records the duration of a cleanup run.
func (m *CleanupMetrics) RecordRunDuration(durationSeconds float64, success bool) {
	status := StatusFailure
	if success {
		status = StatusSuccess
	}
	m.RunDuration.WithLabelValues(status).Observe(durationSeconds)
}
