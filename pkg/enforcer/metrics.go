package enforcer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairshared_enforcer_actions_total",
			Help: "Total number of enforcement actions applied",
		},
		[]string{"kind", "status"}, // renice, renice-user, kill x success, error
	)
)
