package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reconcileRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aquavik",
			Name:      "reconcile_runs_total",
			Help:      "Count of reconciliation runs by outcome.",
		},
		[]string{"status"},
	)

	reconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "aquavik",
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of reconciliation runs.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	slotsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aquavik",
			Name:      "slots_created_total",
			Help:      "Count of slots created by reconciliation.",
		},
	)

	slotsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aquavik",
			Name:      "slots_deleted_total",
			Help:      "Count of free slots deleted by reconciliation.",
		},
	)

	slotsPreserved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aquavik",
			Name:      "slots_preserved_total",
			Help:      "Count of taken slots preserved despite falling out of the schedule.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aquavik",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			reconcileRuns, reconcileDuration,
			slotsCreated, slotsDeleted, slotsPreserved,
			httpRequests,
		)
	})
}

func IncReconcile(status string) {
	reconcileRuns.WithLabelValues(status).Inc()
}

func ObserveReconcileDuration(seconds float64) {
	reconcileDuration.Observe(seconds)
}

func AddSlotCounts(created, deleted, preserved int) {
	slotsCreated.Add(float64(created))
	slotsDeleted.Add(float64(deleted))
	slotsPreserved.Add(float64(preserved))
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
