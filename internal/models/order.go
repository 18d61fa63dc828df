package models

type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// Opposite returns the side that closes a position opened with s.
func (s OrderSide) Opposite() OrderSide {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

func (s OrderSide) Valid() bool {
	return s == SideBuy || s == SideSell
}

type OrderType string

const (
	TypeMarket OrderType = "MARKET"
	TypeLimit  OrderType = "LIMIT"
)

// TradeSignal is published by the strategy layer and consumed once by the
// risk manager.
type TradeSignal struct {
	Symbol   string    `json:"symbol"`
	Side     OrderSide `json:"side"`
	Strategy string    `json:"strategy"`
}

// OrderRequest is published by the risk manager (entries) or the monitor
// (exits) and consumed by the executor. ClientOrderID is the idempotency and
// correlation key for the whole pipeline: pending-order cache, exchange
// request and fill report all carry it.
type OrderRequest struct {
	Symbol        string    `json:"symbol"`
	Side          OrderSide `json:"side"`
	OrderType     OrderType `json:"order_type"`
	Quantity      float64   `json:"quantity"`
	ClientOrderID string    `json:"client_order_id"`

	Price          *float64 `json:"price,omitempty"`
	SLPrice        *float64 `json:"sl_price,omitempty"`
	TPPrice        *float64 `json:"tp_price,omitempty"`
	TimeoutSeconds *int     `json:"timeout_seconds,omitempty"`
	Strategy       string   `json:"strategy,omitempty"`
}

// IsEntry reports whether the request was built to open a position. Exit
// requests are synthesized without stop/target levels, so the presence of a
// stop loss is the entry/exit discriminator used when a fill comes back.
func (r *OrderRequest) IsEntry() bool {
	return r.SLPrice != nil
}
