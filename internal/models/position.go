package models

import "time"

// Position is the single open position for a symbol, stored in the positions
// collection keyed by symbol. The monitor is its only writer; the risk
// manager and executor read the collection but never mutate it.
type Position struct {
	Symbol         string    `json:"symbol"`
	Strategy       string    `json:"strategy"`
	Side           OrderSide `json:"side"`
	Quantity       float64   `json:"quantity"`
	EntryPrice     float64   `json:"entry_price"`
	EntryTimestamp time.Time `json:"entry_timestamp"`

	SLPrice float64  `json:"sl_price"`
	TPPrice *float64 `json:"tp_price,omitempty"`

	// Trailing-stop fields are part of the stored schema but nothing
	// updates or enforces them yet.
	TSLActiveAtPrice *float64 `json:"tsl_active_at_price,omitempty"`
	TSLTrailPercent  *float64 `json:"tsl_trail_percent,omitempty"`
	TSLCurrentStop   *float64 `json:"tsl_current_stop,omitempty"`
	TSLHighestPrice  float64  `json:"tsl_highest_price"`
}

// TradeLog is one closed trade, appended to the durable trade_logs table.
// Rows are never mutated after insert.
type TradeLog struct {
	Symbol     string    `json:"symbol"`
	Strategy   string    `json:"strategy"`
	Side       OrderSide `json:"side"`
	Quantity   float64   `json:"quantity"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Pnl        float64   `json:"pnl"`
	PnlPercent float64   `json:"pnl_percent"`
	EntryTime  time.Time `json:"timestamp_entry"`
	ExitTime   time.Time `json:"timestamp_exit"`
}

// PnlUpdate is the per-tick unrealized P/L event for a watched symbol.
type PnlUpdate struct {
	Symbol string  `json:"symbol"`
	Pnl    float64 `json:"pnl"`
	Price  float64 `json:"price"`
}
