// Package stats accumulates run statistics and exposes a unified
// interface for collecting observability metrics.
package stats

// Metric names used throughout the pipeline.
const (
	MetricRecords    = "seqclean_records_total"
	MetricKept       = "seqclean_records_kept_total"
	MetricDiscarded  = "seqclean_records_discarded_total"
	MetricBytesIn    = "seqclean_input_bytes_total"
	MetricBytesOut   = "seqclean_output_bytes_total"
	MetricIndexSize  = "seqclean_index_reads"
	MetricRunSeconds = "seqclean_run_duration_seconds"
)

// Collector defines the interface for collecting metrics. Collectors
// observe the run from the outside; the run counters themselves live in
// Run and are owned by the filtering goroutine alone.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
