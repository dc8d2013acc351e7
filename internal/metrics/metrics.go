package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded for every operation.
const (
	OutcomeOK        = "ok"
	OutcomeInvalid   = "invalid"
	OutcomeNotFound  = "not_found"
	OutcomeConflict  = "conflict"
	OutcomeForbidden = "forbidden"
	OutcomeError     = "error"
)

// Collector records operation counts, latencies and cascade volumes on a
// private registry.
type Collector struct {
	registry *prometheus.Registry

	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	cascaded   *prometheus.CounterVec
}

// NewCollector creates a collector whose metric names are prefixed with namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of data operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Data operation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	cascaded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_rows_deleted_total",
			Help:      "Rows removed by cascading deletes, by record type",
		},
		[]string{"entity"},
	)

	registry.MustRegister(operations, duration, cascaded)

	return &Collector{
		registry:   registry,
		operations: operations,
		duration:   duration,
		cascaded:   cascaded,
	}
}

// Registry exposes the underlying registry so an API layer can serve it.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveOperation records one completed operation.
func (c *Collector) ObserveOperation(operation, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.operations.WithLabelValues(operation, outcome).Inc()
	c.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveCascade adds the per-entity row counts of a committed cascade.
// Zero counts are skipped.
func (c *Collector) ObserveCascade(counts map[string]int) {
	if c == nil {
		return
	}
	for entity, n := range counts {
		if n == 0 {
			continue
		}
		c.cascaded.WithLabelValues(entity).Add(float64(n))
	}
}
