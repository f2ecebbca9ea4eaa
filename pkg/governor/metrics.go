package governor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairshared_governor_cycles_total",
			Help: "Total number of governor cycles",
		},
		[]string{"status"}, // success, skipped, error
	)

	cycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fairshared_governor_cycle_duration_seconds",
			Help:    "Time taken by a full sample-decide-enforce cycle",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	plannedActions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fairshared_governor_planned_actions",
			Help: "Number of actions planned in the last cycle",
		},
	)

	load1Gauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fairshared_load1",
			Help: "Last sampled one minute load average",
		},
	)
)
