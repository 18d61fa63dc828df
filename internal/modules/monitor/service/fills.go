package service

import (
	"context"

	"trade_core/internal/exchange"
	"trade_core/internal/models"
	"trade_core/pkg/logger"
	"trade_core/pkg/metrics"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

// HandleExecutionReport applies one push-stream event to the state machine.
func (m *Monitor) HandleExecutionReport(ctx context.Context, r exchange.ExecutionReport) {
	switch {
	case r.IsTerminalNonFill():
		// The order is dead: drop its tracking record, nothing else moves.
		logger.Warn("order %s for %s: %s", r.ClientOrderID, r.Symbol, r.Status)
		if r.ClientOrderID == "" {
			return
		}
		if err := m.store.Delete(ctx, models.PendingOrdersCollection, r.ClientOrderID); err != nil {
			logger.Error("cleaning pending order %s after %s: %v", r.ClientOrderID, r.Status, err)
		}
	case r.IsFilled():
		m.processFill(ctx, r)
	}
}

func (m *Monitor) processFill(ctx context.Context, r exchange.ExecutionReport) {
	if r.ClientOrderID == "" || r.Symbol == "" {
		logger.Error("fill report missing id or symbol: %+v", r)
		return
	}
	logger.Info("order filled: %s (%s)", r.ClientOrderID, r.Symbol)

	// Attribute the fill. A fill we cannot attribute is an invariant
	// violation, not something to guess about.
	raw, err := m.store.Get(ctx, models.PendingOrdersCollection, r.ClientOrderID)
	if err != nil {
		logger.Critical("reading pending order %s for fill: %v", r.ClientOrderID, err)
		return
	}
	if raw == nil {
		logger.Critical("fill for %s has no pending order entry, cannot attribute", r.ClientOrderID)
		return
	}
	var req models.OrderRequest
	if err := sonic.Unmarshal(raw, &req); err != nil {
		logger.Critical("pending order %s is unreadable: %v", r.ClientOrderID, err)
		return
	}

	// Consume the cache entry exactly once.
	if err := m.store.Delete(ctx, models.PendingOrdersCollection, r.ClientOrderID); err != nil {
		logger.Error("deleting consumed pending order %s: %v", r.ClientOrderID, err)
	}

	// Entry iff the filled side matches the request side and the request
	// carried a stop loss; exit requests are built without one.
	if r.Side == req.Side && req.IsEntry() {
		m.openPosition(ctx, r, &req)
	} else {
		m.closePosition(ctx, r)
	}
}

func (m *Monitor) openPosition(ctx context.Context, r exchange.ExecutionReport, req *models.OrderRequest) {
	logger.Info("%s entry filled @ %v", r.Symbol, r.FillPrice)

	strategy := req.Strategy
	if strategy == "" {
		strategy = "Unknown"
	}
	pos := models.Position{
		Symbol:          r.Symbol,
		Strategy:        strategy,
		Side:            r.Side,
		Quantity:        r.FillQty,
		EntryPrice:      r.FillPrice,
		EntryTimestamp:  r.FillTime,
		SLPrice:         *req.SLPrice,
		TPPrice:         req.TPPrice,
		TSLHighestPrice: r.FillPrice,
	}

	raw, err := sonic.Marshal(&pos)
	if err != nil {
		logger.Critical("marshal position %s: %v", r.Symbol, err)
		return
	}
	if err := m.store.Set(ctx, models.PositionsCollection, r.Symbol, raw); err != nil {
		// Never watch a symbol whose position write is unconfirmed.
		m.unwatch(r.Symbol)
		logger.Critical("saving position %s after fill failed, position will NOT be monitored: %v", r.Symbol, err)
		return
	}
	m.watch(r.Symbol)

	if err := m.bus.Publish(ctx, models.TopicPositionOpened, &pos); err != nil {
		logger.Error("publishing position_opened for %s: %v", r.Symbol, err)
	}
	logger.Info("position %s opened: %s qty=%v sl=%v", r.Symbol, pos.Side, pos.Quantity, pos.SLPrice)
}

func (m *Monitor) closePosition(ctx context.Context, r exchange.ExecutionReport) {
	logger.Info("%s exit filled @ %v", r.Symbol, r.FillPrice)

	raw, err := m.store.Get(ctx, models.PositionsCollection, r.Symbol)
	if err != nil {
		logger.Critical("reading position %s for exit fill: %v", r.Symbol, err)
		return
	}
	if raw == nil {
		// Exit fill with no open position: the alarm case, never silently
		// healed.
		logger.Critical("exit fill %s for %s but no open position in store", r.ClientOrderID, r.Symbol)
		return
	}
	var pos models.Position
	if err := sonic.Unmarshal(raw, &pos); err != nil {
		logger.Critical("stored position %s is unreadable: %v", r.Symbol, err)
		return
	}

	pnl, pnlPercent := realizedPnl(&pos, r.FillPrice)
	trade := models.TradeLog{
		Symbol:     pos.Symbol,
		Strategy:   pos.Strategy,
		Side:       pos.Side,
		Quantity:   pos.Quantity,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  r.FillPrice,
		Pnl:        pnl,
		PnlPercent: pnlPercent,
		EntryTime:  pos.EntryTimestamp,
		ExitTime:   r.FillTime,
	}

	// Trade log first, then delete: a crash between the two leaves a closed
	// position still in the store, which replays safely, instead of a
	// realized trade that was never recorded.
	if err := m.trades.Append(ctx, trade); err != nil {
		logger.Critical("appending trade log for %s: %v", r.Symbol, err)
	}

	if err := m.store.Delete(ctx, models.PositionsCollection, r.Symbol); err != nil {
		logger.Error("deleting closed position %s: %v", r.Symbol, err)
	}
	m.unwatch(r.Symbol)
	metrics.RecordTradeClosed(r.Symbol, pnl)

	if err := m.bus.Publish(ctx, models.TopicPositionClosed, &trade); err != nil {
		logger.Error("publishing position_closed for %s: %v", r.Symbol, err)
	}
	logger.Info("position %s closed: pnl=%.8f (%.4f%%)", r.Symbol, pnl, pnlPercent)
}

// realizedPnl computes P/L and P/L percent of entry value on the decimal
// path; floats only at the boundary.
func realizedPnl(pos *models.Position, exitPrice float64) (float64, float64) {
	exit := decimal.NewFromFloat(exitPrice)
	entry := decimal.NewFromFloat(pos.EntryPrice)
	qty := decimal.NewFromFloat(pos.Quantity)

	var pnl decimal.Decimal
	if pos.Side == models.SideBuy {
		pnl = exit.Sub(entry).Mul(qty)
	} else {
		pnl = entry.Sub(exit).Mul(qty)
	}

	entryValue := entry.Mul(qty)
	pct := decimal.Zero
	if !entryValue.IsZero() {
		pct = pnl.Div(entryValue).Mul(decimal.NewFromInt(100))
	}

	pnlF, _ := pnl.Float64()
	pctF, _ := pct.Float64()
	return pnlF, pctF
}
