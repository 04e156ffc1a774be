// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RowsCompared = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conveval_rows_compared_total",
			Help: "Total number of joined rows run through the entity comparator",
		},
		[]string{"report_type"},
	)

	MalformedPayloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conveval_malformed_payloads_total",
			Help: "Total number of entity payloads that failed to parse and were treated as absent",
		},
		[]string{"column"},
	)

	ReportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conveval_reports_generated_total",
			Help: "Total number of reports generated",
		},
		[]string{"report_type"},
	)

	DumpRowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conveval_dump_rows_written_total",
			Help: "Total number of error rows written to dump sinks",
		},
		[]string{"sink", "bucket"},
	)
)
