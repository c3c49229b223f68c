package batch

import "github.com/prometheus/client_golang/prometheus"

var (
	batchesCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bulkqr_batches_completed_total",
		Help: "Total print batches completed end to end",
	})
	pagesWrittenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bulkqr_pages_written_total",
		Help: "Total label sheet pages written into documents",
	})
	identifiersIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bulkqr_identifiers_issued_total",
		Help: "Total identifiers issued through completed batches",
	})
)

func init() {
	prometheus.MustRegister(batchesCompletedTotal, pagesWrittenTotal, identifiersIssuedTotal)
}
