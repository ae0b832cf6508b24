package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendcore_orders_submitted_total",
			Help: "Total number of orders submitted (by strategy).",
		},
		[]string{"strategy"},
	)

	PositionsOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trendcore_positions_open",
			Help: "Current number of open positions per strategy.",
		},
		[]string{"strategy"},
	)

	EquityGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trendcore_equity",
			Help: "Current equity of the executor (paper or live).",
		},
	)

	ActiveStopGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trendcore_active_stop",
			Help: "Active stop price of the current open position, 0 when flat.",
		},
	)

	MaxUnrealizedRGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trendcore_max_unrealized_r",
			Help: "High-water mark of unrealized R for the current open position.",
		},
	)

	TradesClosedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendcore_trades_closed_total",
			Help: "Total number of closed trades, by exit reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		OrdersSubmitted,
		PositionsOpen,
		EquityGauge,
		ActiveStopGauge,
		MaxUnrealizedRGauge,
		TradesClosedTotal,
	)
}
