package ranking

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricRankDuration      = "ranking_duration_seconds"
	MetricCandidatesScored  = "ranking_candidates_scored_total"
	MetricRankFailures      = "ranking_failures_total"
)

// Metrics contains Prometheus metrics for ranking operations.
// All operations are thread-safe. A nil *Metrics is a no-op.
type Metrics struct {
	rankDuration     prometheus.Histogram
	candidatesScored prometheus.Counter
	rankFailures     prometheus.Counter
}

// NewMetrics creates the ranking collectors. They are not registered;
// call Register to add them to a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		rankDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankDuration,
			Help:    "Duration of a full rank() call in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0},
		}),
		candidatesScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCandidatesScored,
			Help: "Total number of candidates scored across all rankings",
		}),
		rankFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankFailures,
			Help: "Total number of rankings aborted by a scoring failure",
		}),
	}
}

// Register registers all ranking metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.rankDuration, m.candidatesScored, m.rankFailures} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) observeRank(candidates int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.candidatesScored.Add(float64(candidates))
	m.rankDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeFailure() {
	if m == nil {
		return
	}
	m.rankFailures.Inc()
}
