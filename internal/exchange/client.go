package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trade_core/internal/models"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Client talks to a Binance-style spot REST/WebSocket API. Credentials are
// only needed for the signed endpoints (account, order, listen key).
type Client struct {
	baseURL string
	wsURL   string

	apiKey    string
	apiSecret string

	http     *http.Client
	wsDialer *websocket.Dialer
}

type ClientConfig struct {
	BaseURL   string
	WSURL     string
	APIKey    string
	APISecret string
}

func NewClient(cfg ClientConfig) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		wsURL:     cfg.WSURL,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		http:      &http.Client{Timeout: 15 * time.Second},
		wsDialer:  websocket.DefaultDialer,
	}
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.request(ctx, http.MethodGet, "/api/v3/ping", nil, false)
	return err
}

func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	body, err := c.request(ctx, http.MethodGet, "/api/v3/klines?"+q.Encode(), nil, false)
	if err != nil {
		return nil, err
	}

	// Rows come back as mixed arrays: [openTime, "o","h","l","c","v", ...].
	var rows [][]any
	if err := sonic.Unmarshal(body, &rows); err != nil {
		return nil, errors.Wrap(err, "decode klines")
	}

	klines := make([]Kline, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		ts, ok := row[0].(float64)
		if !ok {
			continue
		}
		k := Kline{OpenTime: time.UnixMilli(int64(ts))}
		fields := []*decimal.Decimal{&k.Open, &k.High, &k.Low, &k.Close, &k.Volume}
		bad := false
		for i, dst := range fields {
			s, ok := row[i+1].(string)
			if !ok {
				bad = true
				break
			}
			d, err := decimal.NewFromString(s)
			if err != nil {
				bad = true
				break
			}
			*dst = d
		}
		if bad {
			continue
		}
		klines = append(klines, k)
	}
	return klines, nil
}

func (c *Client) AvailableBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	body, err := c.request(ctx, http.MethodGet, "/api/v3/account", nil, true)
	if err != nil {
		return decimal.Zero, err
	}

	var acct struct {
		Balances []struct {
			Asset string `json:"asset"`
			Free  string `json:"free"`
		} `json:"balances"`
	}
	if err := sonic.Unmarshal(body, &acct); err != nil {
		return decimal.Zero, errors.Wrap(err, "decode account info")
	}
	for _, b := range acct.Balances {
		if b.Asset != asset {
			continue
		}
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "parse free balance %q", b.Free)
		}
		return free, nil
	}
	return decimal.Zero, nil
}

func (c *Client) CreateOrder(ctx context.Context, p CreateOrderParams) (OrderAck, error) {
	q := url.Values{}
	q.Set("symbol", p.Symbol)
	q.Set("side", string(p.Side))
	q.Set("type", string(p.Type))
	q.Set("quantity", strconv.FormatFloat(p.Quantity, 'f', -1, 64))
	q.Set("newClientOrderId", p.ClientOrderID)
	if p.Type == models.TypeLimit {
		if p.Price == nil {
			return OrderAck{}, errors.New("limit order without price")
		}
		q.Set("price", strconv.FormatFloat(*p.Price, 'f', -1, 64))
		q.Set("timeInForce", "GTC")
	}

	body, err := c.request(ctx, http.MethodPost, "/api/v3/order?"+q.Encode(), nil, true)
	if err != nil {
		return OrderAck{}, err
	}

	var ack struct {
		OrderID       int64  `json:"orderId"`
		ClientOrderID string `json:"clientOrderId"`
		Status        string `json:"status"`
	}
	if err := sonic.Unmarshal(body, &ack); err != nil {
		return OrderAck{}, errors.Wrap(err, "decode order ack")
	}
	return OrderAck{OrderID: ack.OrderID, ClientOrderID: ack.ClientOrderID, Status: ack.Status}, nil
}

func (c *Client) GetExchangeInfo(ctx context.Context) (ExchangeInfo, error) {
	body, err := c.request(ctx, http.MethodGet, "/api/v3/exchangeInfo", nil, false)
	if err != nil {
		return ExchangeInfo{}, err
	}
	var info ExchangeInfo
	if err := sonic.Unmarshal(body, &info); err != nil {
		return ExchangeInfo{}, errors.Wrap(err, "decode exchange info")
	}
	return info, nil
}

func (c *Client) createListenKey(ctx context.Context) (string, error) {
	body, err := c.request(ctx, http.MethodPost, "/api/v3/userDataStream", nil, false)
	if err != nil {
		return "", err
	}
	var resp struct {
		ListenKey string `json:"listenKey"`
	}
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return "", errors.Wrap(err, "decode listen key")
	}
	if resp.ListenKey == "" {
		return "", errors.New("empty listen key")
	}
	return resp.ListenKey, nil
}

func (c *Client) keepAliveListenKey(ctx context.Context, key string) error {
	_, err := c.request(ctx, http.MethodPut, "/api/v3/userDataStream?listenKey="+url.QueryEscape(key), nil, false)
	return err
}

// request performs one REST call. Signed endpoints get a recvWindow,
// timestamp and HMAC signature appended to the query string.
func (c *Client) request(ctx context.Context, method, path string, body io.Reader, signed bool) ([]byte, error) {
	full := c.baseURL + path
	if signed {
		u, err := url.Parse(full)
		if err != nil {
			return nil, errors.Wrap(err, "parse url")
		}
		q := u.Query()
		q.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		q.Set("recvWindow", "5000")
		raw := q.Encode()
		u.RawQuery = raw + "&signature=" + c.sign(raw)
		full = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, method, full, body)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	if c.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	rb, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		_ = sonic.Unmarshal(rb, &apiErr)
		return nil, &APIError{HTTPStatus: resp.StatusCode, Code: apiErr.Code, Msg: apiErr.Msg}
	}
	return rb, nil
}

func (c *Client) sign(query string) string {
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}
