// Prometheus metrics for the execution engine:
//   - bot_orders_placed_total{side,type} – orders submitted to the venue
//   - bot_orders_cancelled_total         – cancels issued (single + bulk)
//   - bot_market_fallbacks_total         – chases that exhausted the budget
//   - bot_bracket_failures_total{leg}    – bracket legs that failed to place
//   - bot_chase_duration_seconds         – wall time per chase
//
// Registered at init and served by the optional /metrics endpoint wired in
// package main.

package execution

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxOrdersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_placed_total",
			Help: "Orders submitted, by side and order type",
		},
		[]string{"side", "type"},
	)

	mtxOrdersCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_orders_cancelled_total",
			Help: "Cancel requests issued",
		},
	)

	mtxMarketFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_market_fallbacks_total",
			Help: "Chases completed via the market-order fallback",
		},
	)

	mtxBracketFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_bracket_failures_total",
			Help: "Bracket legs that failed to place",
		},
		[]string{"leg"}, // stop_loss | take_profit
	)

	mtxChaseSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bot_chase_duration_seconds",
			Help:    "Wall time spent per order chase",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(
		mtxOrdersPlaced,
		mtxOrdersCancelled,
		mtxMarketFallbacks,
		mtxBracketFailures,
		mtxChaseSeconds,
	)
}
