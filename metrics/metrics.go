package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ReportsCreatedTotal counts created reports by submission channel.
	ReportsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reports",
		Subsystem: "lifecycle",
		Name:      "created_total",
		Help:      "Total number of reports created, labeled by channel (authenticated, public).",
	}, []string{"channel"})

	// StatusChangesTotal counts status transitions by target status.
	StatusChangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reports",
		Subsystem: "lifecycle",
		Name:      "status_changes_total",
		Help:      "Total number of report status updates, labeled by the new status.",
	}, []string{"status"})

	// ReportsDeletedTotal counts soft-deleted reports.
	ReportsDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "reports",
		Subsystem: "lifecycle",
		Name:      "deleted_total",
		Help:      "Total number of reports soft-deleted through single or bulk deletion.",
	})

	// BulkItemsTotal counts bulk operation items by operation and result.
	BulkItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reports",
		Subsystem: "bulk",
		Name:      "items_total",
		Help:      "Total number of items processed by bulk operations, labeled by operation and result.",
	}, []string{"operation", "result"})

	// BlobCleanupFailuresTotal counts best-effort blob deletions that failed.
	BlobCleanupFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "reports",
		Subsystem: "storage",
		Name:      "blob_cleanup_failures_total",
		Help:      "Total number of blob deletions that failed and were skipped.",
	})

	// HTTPRequestDurationSeconds is handler latency by route template and status code.
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reports",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests, labeled by method, route and status.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "route", "status"})
)

// Register registers all collectors with the default registry. Safe to call more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ReportsCreatedTotal,
			StatusChangesTotal,
			ReportsDeletedTotal,
			BulkItemsTotal,
			BlobCleanupFailuresTotal,
			HTTPRequestDurationSeconds,
		)
	})
}
