package exchange

import (
	"context"
	"strconv"
	"time"

	"trade_core/internal/models"
	"trade_core/pkg/logger"
	"trade_core/pkg/metrics"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

// reconnectDelay is the fixed supervised-restart backoff for both push
// streams. Unbounded retries: a dead stream means no fill confirmation and
// no SL/TP monitoring, so we keep trying until killed.
const (
	reconnectDelay     = 10 * time.Second
	listenKeyKeepAlive = 30 * time.Minute
	wsPingInterval     = 20 * time.Second
)

// ExecutionReports streams executionReport events from the user-data socket.
func (c *Client) ExecutionReports(ctx context.Context) <-chan ExecutionReport {
	ch := make(chan ExecutionReport)
	go func() {
		defer close(ch)
		for {
			if err := c.runUserDataStream(ctx, ch); err != nil {
				logger.Critical("user-data stream failed: %v. no order confirmations until reconnect", err)
				metrics.StreamRestarts.WithLabelValues("user_data").Inc()
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
		}
	}()
	return ch
}

func (c *Client) runUserDataStream(ctx context.Context, out chan<- ExecutionReport) error {
	key, err := c.createListenKey(ctx)
	if err != nil {
		return err
	}

	conn, _, err := c.wsDialer.DialContext(ctx, c.wsURL+"/ws/"+key, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go c.userDataKeepAlive(ctx, stop, conn, key)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var frame struct {
			Event         string `json:"e"`
			Symbol        string `json:"s"`
			ClientOrderID string `json:"c"`
			Side          string `json:"S"`
			Status        string `json:"X"`
			LastFillPrice string `json:"L"`
			Quantity      string `json:"q"`
			TradeTime     int64  `json:"T"`
		}
		if err := sonic.Unmarshal(msg, &frame); err != nil {
			continue
		}
		if frame.Event != "executionReport" {
			continue
		}

		price, _ := strconv.ParseFloat(frame.LastFillPrice, 64)
		qty, _ := strconv.ParseFloat(frame.Quantity, 64)

		report := ExecutionReport{
			Status:        frame.Status,
			Symbol:        frame.Symbol,
			ClientOrderID: frame.ClientOrderID,
			Side:          models.OrderSide(frame.Side),
			FillPrice:     price,
			FillQty:       qty,
			FillTime:      time.UnixMilli(frame.TradeTime).UTC(),
		}

		select {
		case out <- report:
		case <-ctx.Done():
			return nil
		}
	}
}

// userDataKeepAlive pings the socket and refreshes the listen key so the
// exchange does not drop the stream.
func (c *Client) userDataKeepAlive(ctx context.Context, stop <-chan struct{}, conn *websocket.Conn, key string) {
	ping := time.NewTicker(wsPingInterval)
	refresh := time.NewTicker(listenKeyKeepAlive)
	defer ping.Stop()
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ping.C:
			_ = conn.WriteMessage(websocket.PingMessage, nil)
		case <-refresh.C:
			if err := c.keepAliveListenKey(ctx, key); err != nil {
				logger.Error("listen key keep-alive failed: %v", err)
			}
		}
	}
}

// MarketTicks streams close prices for all symbols from the mini-ticker
// feed.
func (c *Client) MarketTicks(ctx context.Context) <-chan MarketTick {
	ch := make(chan MarketTick)
	go func() {
		defer close(ch)
		for {
			if err := c.runMiniTickerStream(ctx, ch); err != nil {
				logger.Critical("market-data stream failed: %v. no SL/TP monitoring until reconnect", err)
				metrics.StreamRestarts.WithLabelValues("mini_ticker").Inc()
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
		}
	}()
	return ch
}

func (c *Client) runMiniTickerStream(ctx context.Context, out chan<- MarketTick) error {
	conn, _, err := c.wsDialer.DialContext(ctx, c.wsURL+"/ws/!miniTicker@arr", nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	stopPing := make(chan struct{})
	defer close(stopPing)
	go func() {
		t := time.NewTicker(wsPingInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopPing:
				return
			case <-t.C:
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var ticks []struct {
			Symbol string `json:"s"`
			Close  string `json:"c"`
		}
		if err := sonic.Unmarshal(msg, &ticks); err != nil {
			continue
		}
		for _, t := range ticks {
			price, err := strconv.ParseFloat(t.Close, 64)
			if err != nil || price <= 0 {
				continue
			}
			select {
			case out <- MarketTick{Symbol: t.Symbol, Close: price}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
