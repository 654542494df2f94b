// Package metrics defines Prometheus instrumentation for the media
// registry and its cleanup pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric namespace shared by all collectors in this package.
const namespace = "zettanote"

// Status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Object store operation label values.
const (
	OpObjUpload = "upload"
	OpObjDelete = "delete"
	OpObjHead   = "head"
)

// DefaultObjectStoreLatencyBuckets are latency buckets for object store
// operations, which typically range from tens of ms to seconds.
var DefaultObjectStoreLatencyBuckets = []float64{
	0.005, // 5ms
	0.01,  // 10ms
	0.025, // 25ms
	0.05,  // 50ms
	0.1,   // 100ms
	0.25,  // 250ms
	0.5,   // 500ms
	1.0,   // 1s
	2.5,   // 2.5s
	5.0,   // 5s
	10.0,  // 10s
	30.0,  // 30s
}

// ObjectStoreMetrics holds metrics related to object store operations.
// It satisfies the objectstore.MetricsRecorder interface.
type ObjectStoreMetrics struct {
	// LatencyHistogram tracks operation latencies broken down by operation and status.
	// Labels: operation (upload, delete, head), status (success, failure)
	LatencyHistogram *prometheus.HistogramVec

	// RequestsTotal tracks total object store operations by operation and status.
	RequestsTotal *prometheus.CounterVec

	// BytesUploadedTotal tracks total bytes written to the object store.
	BytesUploadedTotal prometheus.Counter
}

// NewObjectStoreMetrics creates and registers object store metrics.
// Uses promauto for automatic registration with the default registry.
func NewObjectStoreMetrics() *ObjectStoreMetrics {
	return &ObjectStoreMetrics{
		LatencyHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "objectstore",
				Name:      "operation_latency_seconds",
				Help:      "Object store operation latency in seconds, broken down by operation and status.",
				Buckets:   DefaultObjectStoreLatencyBuckets,
			},
			[]string{"operation", "status"},
		),
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "objectstore",
				Name:      "operations_total",
				Help:      "Total number of object store operations, broken down by operation and status.",
			},
			[]string{"operation", "status"},
		),
		BytesUploadedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "objectstore",
				Name:      "bytes_uploaded_total",
				Help:      "Total bytes written to the object store.",
			},
		),
	}
}

// NewObjectStoreMetricsWithRegistry creates object store metrics registered
// with a custom registry. Useful for testing to avoid conflicts with the
// default registry.
func NewObjectStoreMetricsWithRegistry(reg prometheus.Registerer) *ObjectStoreMetrics {
	latencyHist := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "objectstore",
			Name:      "operation_latency_seconds",
			Help:      "Object store operation latency in seconds, broken down by operation and status.",
			Buckets:   DefaultObjectStoreLatencyBuckets,
		},
		[]string{"operation", "status"},
	)

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "objectstore",
			Name:      "operations_total",
			Help:      "Total number of object store operations, broken down by operation and status.",
		},
		[]string{"operation", "status"},
	)

	bytesUploaded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "objectstore",
			Name:      "bytes_uploaded_total",
			Help:      "Total bytes written to the object store.",
		},
	)

	reg.MustRegister(latencyHist)
	reg.MustRegister(requestsTotal)
	reg.MustRegister(bytesUploaded)

	return &ObjectStoreMetrics{
		LatencyHistogram:   latencyHist,
		RequestsTotal:      requestsTotal,
		BytesUploadedTotal: bytesUploaded,
	}
}

// recordOperation records an operation latency and increments the request counter.
func (m *ObjectStoreMetrics) recordOperation(operation string, durationSeconds float64, success bool) {
	status := StatusFailure
	if success {
		status = StatusSuccess
	}
	m.LatencyHistogram.WithLabelValues(operation, status).Observe(durationSeconds)
	m.RequestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordUpload records an Upload operation.
func (m *ObjectStoreMetrics) RecordUpload(durationSeconds float64, success bool, bytes int64) {
	m.recordOperation(OpObjUpload, durationSeconds, success)
	if success && bytes > 0 {
		m.BytesUploadedTotal.Add(float64(bytes))
	}
}

// RecordDelete records a Delete operation.
func (m *ObjectStoreMetrics) RecordDelete(durationSeconds float64, success bool) {
	m.recordOperation(OpObjDelete, durationSeconds, success)
}

// RecordHead records a Head operation.
func (m *ObjectStoreMetrics) RecordHead(durationSeconds float64, success bool) {
	m.recordOperation(OpObjHead, durationSeconds, success)
}
