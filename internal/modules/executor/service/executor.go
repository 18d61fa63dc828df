package service

import (
	"context"

	"trade_core/internal/bus"
	"trade_core/internal/exchange"
	"trade_core/internal/models"
	"trade_core/internal/state"
	"trade_core/pkg/logger"
	"trade_core/pkg/metrics"

	"github.com/bytedance/sonic"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
)

// Executor submits order requests to the exchange, at most once per client
// order id. It records the request in the pending-order cache before any
// submission: an in-flight exchange order with no tracking record is the one
// state this component must never produce. Positions and P/L are never
// touched here; the monitor is their single writer.
type Executor struct {
	bus     bus.Bus
	store   state.Store
	gateway exchange.Gateway
}

func New(b bus.Bus, s state.Store, g exchange.Gateway) *Executor {
	return &Executor{bus: b, store: s, gateway: g}
}

// Run subscribes to the order-request topic.
func (e *Executor) Run(ctx context.Context) {
	e.bus.Subscribe(ctx, models.TopicOrderRequest, func(ctx context.Context, payload []byte) {
		var req models.OrderRequest
		if err := sonic.Unmarshal(payload, &req); err != nil {
			logger.Warn("ignoring malformed order request: %v", err)
			return
		}
		e.OnOrderRequest(ctx, req)
	})
}

// OnOrderRequest handles one request. Every failure is terminal for that
// request; retries for transient transport problems live in the gateway, not
// here.
func (e *Executor) OnOrderRequest(ctx context.Context, req models.OrderRequest) {
	id := req.ClientOrderID
	if id == "" {
		metrics.OrdersSubmitted.WithLabelValues("invalid").Inc()
		logger.Error("order request without client order id: %s %s", req.Side, req.Symbol)
		return
	}
	logger.Info("order request: %s (%s %s qty=%v)", id, req.Side, req.Symbol, req.Quantity)

	span := opentracing.StartSpan("executor.submit")
	span.SetTag("client_order_id", id)
	span.SetTag("symbol", req.Symbol)
	defer span.Finish()

	// 1. Cache before send. If this write fails the order is not submitted.
	if err := e.cachePending(ctx, &req); err != nil {
		metrics.OrdersSubmitted.WithLabelValues("cache_failed").Inc()
		logger.Critical("saving pending order %s failed, order will NOT be sent: %v", id, err)
		return
	}

	// 2. Precondition: a LIMIT order without a price is a rejection, never a
	// defaulted submission.
	if req.OrderType == models.TypeLimit && req.Price == nil {
		metrics.OrdersSubmitted.WithLabelValues("invalid").Inc()
		logger.Error("limit order %s without price, dropping", id)
		e.dropPending(ctx, id)
		return
	}

	// 3. Submit, propagating the client order id as the exchange-side
	// idempotency token.
	ack, err := e.gateway.CreateOrder(ctx, exchange.CreateOrderParams{
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.OrderType,
		Quantity:      req.Quantity,
		ClientOrderID: id,
		Price:         req.Price,
	})
	if err != nil {
		var apiErr *exchange.APIError
		if errors.As(err, &apiErr) {
			metrics.OrdersSubmitted.WithLabelValues("rejected").Inc()
			logger.Error("exchange rejected order %s: %v", id, apiErr)
		} else {
			metrics.OrdersSubmitted.WithLabelValues("error").Inc()
			logger.Critical("unexpected error submitting order %s: %v", id, err)
		}
		// Fail safe toward "not tracked": an untracked pending entry would
		// make the monitor attribute a fill that never comes.
		e.dropPending(ctx, id)
		return
	}

	metrics.OrdersSubmitted.WithLabelValues("submitted").Inc()
	logger.Info("order %s submitted, initial status %s", id, ack.Status)
}

func (e *Executor) cachePending(ctx context.Context, req *models.OrderRequest) error {
	raw, err := sonic.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "marshal order request")
	}
	return e.store.Set(ctx, models.PendingOrdersCollection, req.ClientOrderID, raw)
}

func (e *Executor) dropPending(ctx context.Context, id string) {
	if err := e.store.Delete(ctx, models.PendingOrdersCollection, id); err != nil {
		logger.Error("cleaning pending order %s: %v", id, err)
	}
}
