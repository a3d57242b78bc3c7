package solver

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks solve-pipeline outcomes for a Prometheus registry.
type Metrics struct {
	solveDuration     prometheus.Histogram
	ordersValidated   prometheus.Counter
	matchesFound      prometheus.Counter
	solutionsFound    prometheus.Counter
	solutionsRejected prometheus.Counter
}

// NewMetrics registers the solver's metrics against registry. Pass
// prometheus.DefaultRegisterer for process-wide metrics.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		solveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cowbatch",
			Subsystem: "solver",
			Name:      "solve_duration_seconds",
			Help:      "Time spent running a single solve pipeline.",
			Buckets:   prometheus.DefBuckets,
		}),
		ordersValidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cowbatch",
			Subsystem: "solver",
			Name:      "orders_validated_total",
			Help:      "Orders that passed validation and entered the solve pipeline.",
		}),
		matchesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cowbatch",
			Subsystem: "solver",
			Name:      "matches_found_total",
			Help:      "Coincidence-of-wants matches selected into a settlement.",
		}),
		solutionsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cowbatch",
			Subsystem: "solver",
			Name:      "solutions_found_total",
			Help:      "Profitable solutions returned by the solve pipeline.",
		}),
		solutionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cowbatch",
			Subsystem: "solver",
			Name:      "solutions_rejected_total",
			Help:      "Solutions discarded for failing the profitability threshold.",
		}),
	}
	registry.MustRegister(
		m.solveDuration,
		m.ordersValidated,
		m.matchesFound,
		m.solutionsFound,
		m.solutionsRejected,
	)
	return m
}
