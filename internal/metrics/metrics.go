// Package metrics defines the backend interface the selection pipeline emits
// counters and timings through. The default is a no-op; the datadog
// subpackage provides a buffered remote backend.
package metrics

// Tags label a metric point.
type Tags map[string]string

// Backend receives metric points. Implementations must be safe for
// concurrent use and must never block the caller on network I/O.
type Backend interface {
	// Count adds delta to a counter.
	Count(name string, delta float64, tags Tags)
	// Observe records one sample of a distribution (e.g. a duration in
	// seconds).
	Observe(name string, value float64, tags Tags)
}

// Metric names emitted by the pipeline.
const (
	MetricChartsSelected  = "cortexcharts.charts.selected"
	MetricChartsNoMatch   = "cortexcharts.charts.nomatch"
	MetricClassifySeconds = "cortexcharts.classify.seconds"
)

// Nop is a Backend that drops everything.
type Nop struct{}

func (Nop) Count(string, float64, Tags)   {}
func (Nop) Observe(string, float64, Tags) {}
