package service

import (
	"context"
	"fmt"
	"time"

	"trade_core/internal/bus"
	"trade_core/internal/exchange"
	"trade_core/internal/models"
	"trade_core/internal/state"
	"trade_core/pkg/logger"
	"trade_core/pkg/metrics"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

// RiskManager turns trade signals into sized, bounded-risk order requests.
// For every signal it either publishes exactly one order request or does
// nothing observable; a rejected signal is dropped, never retried. The next
// signal cycle re-evaluates from scratch.
type RiskManager struct {
	bus     bus.Bus
	store   state.Store
	gateway exchange.Gateway
	rules   exchange.Rules
	cfg     Config
}

type Config struct {
	QuoteAsset          string
	RiskPerTrade        decimal.Decimal // fraction of free balance, e.g. 0.005
	MaxConcurrentTrades int
	ATRTimeframe        string
	ATRPeriod           int
	ATRWarmupCandles    int
	SLMultiplier        decimal.Decimal // stop distance = ATR * this
	TPMultiplier        decimal.Decimal // target distance = ATR * this
}

func New(b bus.Bus, s state.Store, g exchange.Gateway, r exchange.Rules, cfg Config) *RiskManager {
	return &RiskManager{bus: b, store: s, gateway: g, rules: r, cfg: cfg}
}

// Run subscribes to the trade-signal topic.
func (m *RiskManager) Run(ctx context.Context) {
	m.bus.Subscribe(ctx, models.TopicTradeSignal, func(ctx context.Context, payload []byte) {
		var sig models.TradeSignal
		if err := sonic.Unmarshal(payload, &sig); err != nil {
			logger.Warn("ignoring malformed trade signal: %v", err)
			return
		}
		m.OnTradeSignal(ctx, sig)
	})
}

func (m *RiskManager) reject(reason, format string, args ...interface{}) {
	metrics.SignalsRejected.WithLabelValues(reason).Inc()
	logger.Warn("signal rejected (%s): %s", reason, fmt.Sprintf(format, args...))
}

// OnTradeSignal runs the gate sequence. Gates short-circuit: the first
// failing gate wins and nothing is published.
func (m *RiskManager) OnTradeSignal(ctx context.Context, sig models.TradeSignal) {
	if sig.Symbol == "" || !sig.Side.Valid() {
		m.reject("malformed", "symbol=%q side=%q", sig.Symbol, sig.Side)
		return
	}
	logger.Info("trade signal: %s %s (strategy %s)", sig.Side, sig.Symbol, sig.Strategy)

	// Gate 1+2: concurrency cap, then duplicate symbol. Read-only against
	// the positions collection; the monitor owns it.
	open, err := m.store.Collection(ctx, models.PositionsCollection)
	if err != nil {
		m.reject("state_unavailable", "reading open positions: %v", err)
		return
	}
	if len(open) >= m.cfg.MaxConcurrentTrades {
		m.reject("max_concurrent", "open=%d max=%d", len(open), m.cfg.MaxConcurrentTrades)
		return
	}
	if _, ok := open[sig.Symbol]; ok {
		m.reject("duplicate_symbol", "position for %s already open", sig.Symbol)
		return
	}
	if !m.rules.IsSymbolTrading(sig.Symbol) {
		m.reject("symbol_not_trading", "%s is not in TRADING status", sig.Symbol)
		return
	}

	// Gate 3: volatility must be measurable. No fallback stop distance.
	klines, err := m.gateway.GetKlines(ctx, sig.Symbol, m.cfg.ATRTimeframe, m.cfg.ATRWarmupCandles)
	if err != nil {
		m.reject("no_market_data", "klines for %s: %v", sig.Symbol, err)
		return
	}
	atr, err := averageTrueRange(klines, m.cfg.ATRPeriod)
	if err != nil {
		m.reject("atr_unavailable", "%s: %v", sig.Symbol, err)
		return
	}
	currentPrice := klines[len(klines)-1].Close

	// Gate 4: funded account.
	balance, err := m.gateway.AvailableBalance(ctx, m.cfg.QuoteAsset)
	if err != nil {
		m.reject("balance_unavailable", "%v", err)
		return
	}
	if !balance.IsPositive() {
		m.reject("no_balance", "free %s balance is %s", m.cfg.QuoteAsset, balance)
		return
	}

	// Gate 5: sizing. The target sits farther from price than the stop, so
	// risk:reward is asymmetric by construction.
	slDistance := atr.Mul(m.cfg.SLMultiplier)
	tpDistance := atr.Mul(m.cfg.TPMultiplier)

	var slPrice, tpPrice decimal.Decimal
	if sig.Side == models.SideBuy {
		slPrice = currentPrice.Sub(slDistance)
		tpPrice = currentPrice.Add(tpDistance)
	} else {
		slPrice = currentPrice.Add(slDistance)
		tpPrice = currentPrice.Sub(tpDistance)
	}
	slPrice = m.rules.AdjustPriceToTick(sig.Symbol, slPrice)
	tpPrice = m.rules.AdjustPriceToTick(sig.Symbol, tpPrice)

	riskBudget := balance.Mul(m.cfg.RiskPerTrade)
	riskPerUnit := currentPrice.Sub(slPrice).Abs()
	if riskPerUnit.IsZero() {
		m.reject("stop_collapsed", "stop price equals current price for %s", sig.Symbol)
		return
	}
	quantity := riskBudget.Div(riskPerUnit)

	// Gate 6: exchange rule conformance.
	quantity = m.rules.AdjustQuantityToStep(sig.Symbol, quantity)
	if quantity.IsZero() {
		m.reject("lot_rounds_to_zero", "%s qty rounded to zero by lot step", sig.Symbol)
		return
	}
	if !m.rules.ValidateMinNotional(sig.Symbol, quantity, currentPrice) {
		m.reject("below_min_notional", "%s qty=%s px=%s", sig.Symbol, quantity, currentPrice)
		return
	}

	sl, _ := slPrice.Float64()
	tp, _ := tpPrice.Float64()
	qty, _ := quantity.Float64()

	req := models.OrderRequest{
		Symbol:        sig.Symbol,
		Side:          sig.Side,
		OrderType:     models.TypeMarket,
		Quantity:      qty,
		ClientOrderID: newClientOrderID(sig.Side, sig.Symbol),
		SLPrice:       &sl,
		TPPrice:       &tp,
		Strategy:      sig.Strategy,
	}

	logger.Info("signal approved: %s %s qty=%s px≈%s sl=%s tp=%s risk=%s %s",
		sig.Side, sig.Symbol, quantity, currentPrice, slPrice, tpPrice, riskBudget, m.cfg.QuoteAsset)

	if err := m.bus.Publish(ctx, models.TopicOrderRequest, req); err != nil {
		logger.Error("publishing order request %s: %v", req.ClientOrderID, err)
		return
	}
	metrics.SignalsApproved.WithLabelValues(sig.Symbol, string(sig.Side)).Inc()
}

// newClientOrderID builds the pipeline-wide idempotency key. Nanosecond
// resolution keeps concurrent signals for the same symbol/side distinct.
func newClientOrderID(side models.OrderSide, symbol string) string {
	return fmt.Sprintf("ord_%s_%s_%d", side, symbol, time.Now().UnixNano())
}
