package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's prometheus collectors
type Metrics struct {
	RunsTotal     *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	RunExceptions *prometheus.CounterVec
	RunLines      prometheus.Histogram
}

// New registers the engine collectors on the given registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "allocengine_runs_total",
			Help: "Allocation runs by terminal status.",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "allocengine_run_duration_seconds",
			Help:    "Wall time of one allocation run.",
			Buckets: prometheus.DefBuckets,
		}),
		RunExceptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "allocengine_run_exceptions_total",
			Help: "Run exceptions by kind.",
		}, []string{"kind"}),
		RunLines: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "allocengine_run_lines",
			Help:    "Allocation lines produced per run.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}),
	}
}
