// Package metrics exposes the Prometheus metrics updated by the
// trading loop:
//   - stocktrader_orders_total{side,status} - order lifecycles by outcome
//   - stocktrader_trades_total              - completed sell reconciliations
//   - stocktrader_profit_usd                - realized profit (gauge)
//   - stocktrader_open_positions            - ledger size (gauge)
//   - stocktrader_last_price                - most recent tick (gauge)
//
// Registered in init() and served by the run command at /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocktrader_orders_total",
			Help: "Order lifecycles by side and terminal status",
		},
		[]string{"side", "status"},
	)

	Trades = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stocktrader_trades_total",
			Help: "Completed sell reconciliations",
		},
	)

	Profit = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stocktrader_profit_usd",
			Help: "Realized profit in USD",
		},
	)

	OpenPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stocktrader_open_positions",
			Help: "Open positions in the ledger",
		},
	)

	LastPrice = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stocktrader_last_price",
			Help: "Most recent last-trade price observed",
		},
	)
)

func init() {
	prometheus.MustRegister(Orders, Trades, Profit, OpenPositions, LastPrice)
}
