package handlers

import (
	"context"
	"net/http"
	"strconv"

	"trade_core/internal/models"
	"trade_core/internal/state"
	"trade_core/pkg/logger"

	"github.com/bytedance/sonic"
)

const defaultTradeLimit = 50

// TradeSource reads closed trades, newest first.
type TradeSource interface {
	LastN(ctx context.Context, limit int) ([]models.TradeLog, error)
}

// Handlers serves the read-only reporting endpoints. Nothing here mutates
// state: it reads the trade log and the positions collection.
type Handlers struct {
	trades TradeSource
	store  state.Store
}

func New(trades TradeSource, store state.Store) *Handlers {
	return &Handlers{trades: trades, store: store}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Trades returns the last N closed trades, newest first.
func (h *Handlers) Trades(w http.ResponseWriter, r *http.Request) {
	limit := defaultTradeLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be in 1..1000"})
			return
		}
		limit = n
	}

	trades, err := h.trades.LastN(r.Context(), limit)
	if err != nil {
		logger.Error("reading trade logs: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if trades == nil {
		trades = []models.TradeLog{}
	}
	writeJSON(w, http.StatusOK, trades)
}

// Positions returns all currently open positions.
func (h *Handlers) Positions(w http.ResponseWriter, r *http.Request) {
	raw, err := h.store.Collection(r.Context(), models.PositionsCollection)
	if err != nil {
		logger.Error("reading positions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	positions := make([]models.Position, 0, len(raw))
	for symbol, data := range raw {
		var pos models.Position
		if err := sonic.Unmarshal(data, &pos); err != nil {
			logger.Error("unreadable position %s: %v", symbol, err)
			continue
		}
		positions = append(positions, pos)
	}
	writeJSON(w, http.StatusOK, positions)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data, err := sonic.Marshal(body)
	if err != nil {
		return
	}
	_, _ = w.Write(data)
}
