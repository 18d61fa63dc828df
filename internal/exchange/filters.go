package exchange

import (
	"trade_core/pkg/logger"

	"github.com/shopspring/decimal"
)

// Rules exposes the per-symbol trading constraints the exchange enforces.
// Rounding semantics are fixed: quantity rounds down to the lot step, price
// rounds half-up to the nearest tick, notional below the minimum is a strict
// rejection.
type Rules interface {
	AdjustQuantityToStep(symbol string, quantity decimal.Decimal) decimal.Decimal
	AdjustPriceToTick(symbol string, price decimal.Decimal) decimal.Decimal
	ValidateMinNotional(symbol string, quantity, price decimal.Decimal) bool
	IsSymbolTrading(symbol string) bool
}

// ExchangeInfo is the raw exchangeInfo payload slice we care about.
type ExchangeInfo struct {
	Symbols []SymbolInfo `json:"symbols"`
}

type SymbolInfo struct {
	Symbol     string         `json:"symbol"`
	Status     string         `json:"status"`
	BaseAsset  string         `json:"baseAsset"`
	QuoteAsset string         `json:"quoteAsset"`
	Filters    []SymbolFilter `json:"filters"`
}

type SymbolFilter struct {
	FilterType  string `json:"filterType"`
	StepSize    string `json:"stepSize"`
	TickSize    string `json:"tickSize"`
	MinNotional string `json:"minNotional"`
}

type symbolRules struct {
	status      string
	stepSize    decimal.Decimal
	tickSize    decimal.Decimal
	minNotional decimal.Decimal
}

// Filters caches per-symbol rules, loaded once from exchangeInfo at startup
// and injected into whoever needs them.
type Filters struct {
	rules map[string]symbolRules
}

// NewFilters parses exchangeInfo. Unparseable filter values for a symbol are
// left at zero, which makes the adjusters pass-through for that field.
func NewFilters(info ExchangeInfo) *Filters {
	rules := make(map[string]symbolRules, len(info.Symbols))
	for _, s := range info.Symbols {
		r := symbolRules{status: s.Status}
		for _, f := range s.Filters {
			switch f.FilterType {
			case "LOT_SIZE":
				r.stepSize = parseOrZero(f.StepSize)
			case "PRICE_FILTER":
				r.tickSize = parseOrZero(f.TickSize)
			case "MIN_NOTIONAL", "NOTIONAL":
				r.minNotional = parseOrZero(f.MinNotional)
			}
		}
		rules[s.Symbol] = r
	}
	logger.Info("loaded trading rules for %d symbols", len(rules))
	return &Filters{rules: rules}
}

func parseOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (f *Filters) IsSymbolTrading(symbol string) bool {
	return f.rules[symbol].status == "TRADING"
}

// AdjustQuantityToStep floors quantity to an exact multiple of the lot step.
func (f *Filters) AdjustQuantityToStep(symbol string, quantity decimal.Decimal) decimal.Decimal {
	step := f.rules[symbol].stepSize
	if step.IsZero() {
		logger.Warn("no LOT_SIZE step for %s, quantity left as-is", symbol)
		return quantity
	}
	return quantity.Div(step).Floor().Mul(step)
}

// AdjustPriceToTick rounds price half-up to the nearest tick.
func (f *Filters) AdjustPriceToTick(symbol string, price decimal.Decimal) decimal.Decimal {
	tick := f.rules[symbol].tickSize
	if tick.IsZero() {
		logger.Warn("no PRICE_FILTER tick for %s, price left as-is", symbol)
		return price
	}
	ticks := price.Div(tick).Round(0)
	return ticks.Mul(tick)
}

// ValidateMinNotional rejects orders whose quantity*price is strictly below
// the symbol's minimum order value.
func (f *Filters) ValidateMinNotional(symbol string, quantity, price decimal.Decimal) bool {
	min := f.rules[symbol].minNotional
	if min.IsZero() {
		return true
	}
	return quantity.Mul(price).GreaterThanOrEqual(min)
}
