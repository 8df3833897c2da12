package detect

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signalsDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_arb_signals_detected_total",
		Help: "Total candidate signals emitted by the detection loop.",
	})
	signalsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_arb_signals_dropped_total",
		Help: "Candidate signals dropped because the signal channel was full.",
	})
)
