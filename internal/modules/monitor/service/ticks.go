package service

import (
	"context"
	"fmt"
	"time"

	"trade_core/internal/models"
	"trade_core/pkg/logger"
	"trade_core/pkg/metrics"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

// CheckPosition recomputes unrealized P/L for one watched symbol and fires
// the exit request when the price crosses the stop or target.
func (m *Monitor) CheckPosition(ctx context.Context, symbol string, price float64) {
	raw, err := m.store.Get(ctx, models.PositionsCollection, symbol)
	if err != nil {
		logger.Error("reading position %s on tick: %v", symbol, err)
		return
	}
	if raw == nil {
		// Store is the source of truth; the watch-set entry was stale.
		m.unwatch(symbol)
		return
	}
	var pos models.Position
	if err := sonic.Unmarshal(raw, &pos); err != nil {
		logger.Error("stored position %s is unreadable on tick: %v", symbol, err)
		return
	}

	// Unrealized P/L is best effort: a missed update is not fatal.
	pnl := unrealizedPnl(&pos, price)
	if err := m.bus.Publish(ctx, models.TopicPnlUpdate, &models.PnlUpdate{
		Symbol: symbol,
		Pnl:    pnl,
		Price:  price,
	}); err != nil {
		logger.Warn("publishing pnl_update for %s: %v", symbol, err)
	}

	triggered, reason := exitTriggered(&pos, price)
	if !triggered {
		return
	}
	logger.Info("exit trigger: %s hit %s @ %v", symbol, reason, price)
	metrics.ExitTriggers.WithLabelValues(symbol, reason).Inc()

	// Leave the watch-set before anything else so the next tick cannot
	// trigger a second exit for the same position.
	if !m.unwatch(symbol) {
		return
	}

	req := models.OrderRequest{
		Symbol:        symbol,
		Side:          pos.Side.Opposite(),
		OrderType:     models.TypeMarket,
		Quantity:      pos.Quantity,
		ClientOrderID: newExitOrderID(pos.Side, symbol),
		Strategy:      fmt.Sprintf("Exit (%s)", reason),
	}
	if err := m.bus.Publish(ctx, models.TopicOrderRequest, &req); err != nil {
		// The position is now open with nobody watching it.
		logger.Critical("publishing exit order for %s (%s) FAILED, position may stay open unmonitored: %v",
			symbol, reason, err)
	}
}

const (
	reasonStopLoss   = "stop_loss"
	reasonTakeProfit = "take_profit"
)

// exitTriggered applies the side-correct comparisons: a long stops out on
// price <= stop and takes profit on price >= target; a short mirrors both.
func exitTriggered(pos *models.Position, price float64) (bool, string) {
	if pos.Side == models.SideBuy {
		if price <= pos.SLPrice {
			return true, reasonStopLoss
		}
		if pos.TPPrice != nil && price >= *pos.TPPrice {
			return true, reasonTakeProfit
		}
		return false, ""
	}
	if price >= pos.SLPrice {
		return true, reasonStopLoss
	}
	if pos.TPPrice != nil && price <= *pos.TPPrice {
		return true, reasonTakeProfit
	}
	return false, ""
}

func unrealizedPnl(pos *models.Position, price float64) float64 {
	cur := decimal.NewFromFloat(price)
	entry := decimal.NewFromFloat(pos.EntryPrice)
	qty := decimal.NewFromFloat(pos.Quantity)

	var pnl decimal.Decimal
	if pos.Side == models.SideBuy {
		pnl = cur.Sub(entry).Mul(qty)
	} else {
		pnl = entry.Sub(cur).Mul(qty)
	}
	f, _ := pnl.Float64()
	return f
}

func newExitOrderID(side models.OrderSide, symbol string) string {
	return fmt.Sprintf("exit_%s_%s_%d", side, symbol, time.Now().UnixNano())
}
