package generate

import (
	"time"

	"github.com/iptvguide/guidegen/pkg/metrics"
)

// Metric names.
const (
	MetricPages     = "guidegen_pages_total"
	MetricDuration  = "guidegen_generator_duration_seconds"
	MetricErrors    = "guidegen_generator_errors_total"
	MetricLastRun   = "guidegen_last_run_timestamp"
	MetricLastPages = "guidegen_last_run_pages"
)

// Metrics records generator outcomes in a registry.
type Metrics struct {
	reg *metrics.Registry
}

// NewMetrics registers the generator metrics in reg. A nil reg gets a
// private registry.
func NewMetrics(reg *metrics.Registry) *Metrics {
	if reg == nil {
		reg = metrics.New()
	}
	return &Metrics{reg: reg}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *metrics.Registry { return m.reg }

func (m *Metrics) generated(gen string, pages int, took time.Duration) {
	m.reg.Counter(metrics.WithLabels(MetricPages, "generator", gen), "Guides generated.").Add(int64(pages))
	m.reg.Histogram(metrics.WithLabels(MetricDuration, "generator", gen), "Time spent per generator.", nil).Observe(took.Seconds())
}

func (m *Metrics) failed(gen string) {
	m.reg.Counter(metrics.WithLabels(MetricErrors, "generator", gen), "Generator failures.").Inc()
}

func (m *Metrics) completed(total int) {
	m.reg.Gauge(MetricLastRun, "Unix time of the last successful run.").SetToCurrentTime()
	m.reg.Gauge(MetricLastPages, "Guides written by the last successful run.").Set(float64(total))
}
