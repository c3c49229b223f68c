package render

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the batch pipeline. Global counters only, no
// per-identifier labels (unbounded cardinality).
var (
	itemsRenderedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bulkqr_rendered_items_total",
		Help: "Total symbols rendered across all batches",
	})
	batchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bulkqr_render_batches_total",
		Help: "Total render batches started",
	})
	batchFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bulkqr_render_batch_failures_total",
		Help: "Total render batches aborted by an encode or composite failure",
	})
	batchCanceledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bulkqr_render_batch_canceled_total",
		Help: "Total render batches stopped by caller cancellation",
	})
	batchSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bulkqr_render_batch_seconds",
		Help:    "Wall time of successful render batches",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
)

func init() {
	prometheus.MustRegister(itemsRenderedTotal, batchesTotal, batchFailuresTotal, batchCanceledTotal, batchSeconds)
}
