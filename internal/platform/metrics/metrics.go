package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	AuditEventsRecorded *prometheus.CounterVec
	AuditRecordFailures prometheus.Counter
	RequestDuration     *prometheus.HistogramVec
	PermissionCacheHits prometheus.Counter
	PermissionCacheMiss prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		AuditEventsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verdant_audit_events_recorded_total",
			Help: "Total number of audit events recorded, by entity table and lifecycle state",
		}, []string{"table", "state"}),
		AuditRecordFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verdant_audit_record_failures_total",
			Help: "Total number of failed audit event writes",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verdant_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		PermissionCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verdant_permission_cache_hits_total",
			Help: "Permission cache hits",
		}),
		PermissionCacheMiss: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verdant_permission_cache_misses_total",
			Help: "Permission cache misses",
		}),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, method, status).Observe(elapsed.Seconds())
}

// IncAuditEvent counts a recorded audit event.
func (m *Metrics) IncAuditEvent(table, state string) {
	if m == nil {
		return
	}
	m.AuditEventsRecorded.WithLabelValues(table, state).Inc()
}

// IncAuditFailure counts a failed audit write.
func (m *Metrics) IncAuditFailure() {
	if m == nil {
		return
	}
	m.AuditRecordFailures.Inc()
}

// IncPermissionCacheHit counts a permission-set cache hit.
func (m *Metrics) IncPermissionCacheHit() {
	if m == nil {
		return
	}
	m.PermissionCacheHits.Inc()
}

// IncPermissionCacheMiss counts a permission-set cache miss.
func (m *Metrics) IncPermissionCacheMiss() {
	if m == nil {
		return
	}
	m.PermissionCacheMiss.Inc()
}
