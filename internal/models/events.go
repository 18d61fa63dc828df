package models

// Event bus topics. Producers/consumers: see the component modules.
const (
	TopicTradeSignal    = "trade_signal"
	TopicOrderRequest   = "order_request"
	TopicPositionOpened = "position_opened"
	TopicPositionClosed = "position_closed"
	TopicPnlUpdate      = "pnl_update"
)

// State store collections.
const (
	PendingOrdersCollection = "pending_orders"
	PositionsCollection     = "positions"
	// MarketStateCollection is written by the ML collaborator and only ever
	// read from this side.
	MarketStateCollection = "market_state"
)
