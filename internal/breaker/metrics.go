package breaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stateGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_arb_execution_breaker_state",
		Help: "Execution circuit breaker state (0=CLOSED, 1=HALF_OPEN, 2=OPEN).",
	})
	stateChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_arb_execution_breaker_state_changes_total",
		Help: "Total execution breaker state transitions.",
	})
	callsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_arb_execution_breaker_calls_total",
			Help: "Total guarded calls, by outcome.",
		},
		[]string{"outcome"},
	)
	breakerRefusedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_arb_execution_breaker_refused_total",
		Help: "Total calls refused because the breaker was OPEN or half-open quota exhausted.",
	})
)
