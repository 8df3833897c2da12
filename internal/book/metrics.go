package book

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	snapshotsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_arb_book_snapshots_applied_total",
		Help: "Total order-book snapshots applied.",
	})
	updatesApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_arb_book_updates_applied_total",
		Help: "Total order-book delta updates applied.",
	})
	duplicatesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_arb_book_duplicate_updates_total",
		Help: "Updates discarded because their sequence number was not newer than the last seen.",
	})
	sequenceGapsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_arb_book_sequence_gaps_total",
		Help: "Cumulative count of skipped sequence numbers observed across all tokens.",
	})
)
