package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters and gauges for the order lifecycle. Scraped from the admin port
// of each process.

// SignalsRejected counts risk-manager gate rejections by reason.
var SignalsRejected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "trade_core",
		Subsystem: "risk",
		Name:      "signals_rejected_total",
		Help:      "Trade signals rejected by the risk manager, by gate",
	},
	[]string{"reason"},
)

// SignalsApproved counts order requests published by the risk manager.
var SignalsApproved = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "trade_core",
		Subsystem: "risk",
		Name:      "signals_approved_total",
		Help:      "Trade signals that produced an order request",
	},
	[]string{"symbol", "side"},
)

// OrdersSubmitted counts executor submissions by outcome.
var OrdersSubmitted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "trade_core",
		Subsystem: "executor",
		Name:      "orders_submitted_total",
		Help:      "Order submissions by result",
	},
	[]string{"result"}, // submitted, rejected, cache_failed, invalid
)

// PositionsOpen tracks the monitor's watch-set size.
var PositionsOpen = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "trade_core",
		Subsystem: "monitor",
		Name:      "positions_open",
		Help:      "Currently watched open positions",
	},
)

// TradesClosed counts closed trades by exit direction of P/L.
var TradesClosed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "trade_core",
		Subsystem: "monitor",
		Name:      "trades_closed_total",
		Help:      "Closed trades",
	},
	[]string{"symbol", "result"}, // result: win, loss, flat
)

// ExitTriggers counts SL/TP triggers raised from market ticks.
var ExitTriggers = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "trade_core",
		Subsystem: "monitor",
		Name:      "exit_triggers_total",
		Help:      "Stop-loss / take-profit triggers",
	},
	[]string{"symbol", "reason"}, // reason: stop_loss, take_profit
)

// StreamRestarts counts supervised restarts of exchange streams and bus
// subscriptions.
var StreamRestarts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "trade_core",
		Subsystem: "streams",
		Name:      "restarts_total",
		Help:      "Supervised restarts of long-lived streams",
	},
	[]string{"stream"},
)

func RecordTradeClosed(symbol string, pnl float64) {
	result := "flat"
	switch {
	case pnl > 0:
		result = "win"
	case pnl < 0:
		result = "loss"
	}
	TradesClosed.WithLabelValues(symbol, result).Inc()
}
