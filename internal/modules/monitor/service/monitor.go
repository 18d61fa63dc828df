package service

import (
	"context"
	"sync"

	"trade_core/internal/bus"
	"trade_core/internal/exchange"
	"trade_core/internal/models"
	"trade_core/internal/state"
	"trade_core/pkg/logger"
	"trade_core/pkg/metrics"

	"github.com/bytedance/sonic"
)

// TradeLogger appends closed trades to the durable trade log.
type TradeLogger interface {
	Append(ctx context.Context, log models.TradeLog) error
}

// Monitor owns the position lifecycle: it is the only component that writes
// the positions collection. It converts fills into open/closed positions,
// enforces SL/TP from market ticks and publishes P/L.
//
// Per-symbol state machine: unwatched → (entry fill) → watched/open →
// (exit fill, possibly via an SL/TP-triggered exit request) → unwatched.
type Monitor struct {
	bus     bus.Bus
	store   state.Store
	gateway exchange.Gateway
	trades  TradeLogger

	mu      sync.Mutex
	watched map[string]struct{}
}

func New(b bus.Bus, s state.Store, g exchange.Gateway, t TradeLogger) *Monitor {
	return &Monitor{
		bus:     b,
		store:   s,
		gateway: g,
		trades:  t,
		watched: make(map[string]struct{}),
	}
}

// Run recovers open positions and starts both stream consumers. Stream
// reconnection lives inside the gateway; the channels stay open until ctx is
// done.
func (m *Monitor) Run(ctx context.Context) {
	m.LoadPositions(ctx)

	go func() {
		for report := range m.gateway.ExecutionReports(ctx) {
			r := report
			go m.HandleExecutionReport(ctx, r)
		}
	}()
	go func() {
		for tick := range m.gateway.MarketTicks(ctx) {
			t := tick
			if m.isWatched(t.Symbol) {
				// Distinct symbols hold distinct store keys, so checks may
				// run concurrently.
				go m.CheckPosition(ctx, t.Symbol, t.Close)
			}
		}
	}()
	logger.Info("monitor streams started")
}

// LoadPositions seeds the watch-set from the store after a restart:
// positions persist independently of process lifetime.
func (m *Monitor) LoadPositions(ctx context.Context) {
	all, err := m.store.Collection(ctx, models.PositionsCollection)
	if err != nil {
		logger.Critical("loading open positions at startup: %v", err)
		return
	}

	count := 0
	for symbol, raw := range all {
		var pos models.Position
		if err := sonic.Unmarshal(raw, &pos); err != nil {
			logger.Error("invalid stored position for %s, skipping: %v", symbol, err)
			continue
		}
		m.watch(symbol)
		count++
	}
	logger.Info("recovered %d open positions", count)
}

func (m *Monitor) isWatched(symbol string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.watched[symbol]
	return ok
}

func (m *Monitor) watch(symbol string) {
	m.mu.Lock()
	m.watched[symbol] = struct{}{}
	metrics.PositionsOpen.Set(float64(len(m.watched)))
	m.mu.Unlock()
}

// unwatch removes symbol and reports whether it was present. Used to win
// the race between two ticks both seeing a trigger.
func (m *Monitor) unwatch(symbol string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.watched[symbol]; !ok {
		return false
	}
	delete(m.watched, symbol)
	metrics.PositionsOpen.Set(float64(len(m.watched)))
	return true
}
