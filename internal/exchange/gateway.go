package exchange

import (
	"context"
	"fmt"
	"time"

	"trade_core/internal/models"

	"github.com/shopspring/decimal"
)

// Kline is one candle row from the exchange.
type Kline struct {
	OpenTime time.Time
	Open     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	Close    decimal.Decimal
	Volume   decimal.Decimal
}

// ExecutionReport is one event from the exchange's push stream for our own
// orders.
type ExecutionReport struct {
	Status        string
	Symbol        string
	ClientOrderID string
	Side          models.OrderSide
	FillPrice     float64
	FillQty       float64
	FillTime      time.Time
}

// Terminal non-fill statuses: the order is dead and no position change ever
// follows from it.
func (r ExecutionReport) IsTerminalNonFill() bool {
	switch r.Status {
	case "CANCELED", "REJECTED", "EXPIRED":
		return true
	}
	return false
}

func (r ExecutionReport) IsFilled() bool { return r.Status == "FILLED" }

// MarketTick is a real-time close-price update for one symbol.
type MarketTick struct {
	Symbol string
	Close  float64
}

type CreateOrderParams struct {
	Symbol        string
	Side          models.OrderSide
	Type          models.OrderType
	Quantity      float64
	ClientOrderID string
	Price         *float64
}

type OrderAck struct {
	OrderID       int64
	ClientOrderID string
	Status        string
}

// APIError is a business-level rejection from the exchange (rate limit,
// invalid parameters, insufficient balance at submit time). Transient
// network failures are retried inside the client and never surface as
// APIError.
type APIError struct {
	HTTPStatus int
	Code       int
	Msg        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exchange error: http=%d code=%d msg=%q", e.HTTPStatus, e.Code, e.Msg)
}

// Gateway is the slice of exchange connectivity this pipeline consumes.
type Gateway interface {
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error)
	AvailableBalance(ctx context.Context, asset string) (decimal.Decimal, error)
	CreateOrder(ctx context.Context, p CreateOrderParams) (OrderAck, error)

	// ExecutionReports starts the user-data push stream. The channel stays
	// open across reconnects and closes only when ctx is done.
	ExecutionReports(ctx context.Context) <-chan ExecutionReport

	// MarketTicks starts the all-symbols mini-ticker stream, same lifetime
	// contract as ExecutionReports.
	MarketTicks(ctx context.Context) <-chan MarketTick
}
