package risk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	riskAcceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_arb_risk_accepted_total",
		Help: "Total signals accepted by the risk gate.",
	})
	riskRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_arb_risk_rejected_total",
			Help: "Total signals rejected by the risk gate, by reason.",
		},
		[]string{"reason"},
	)
)
