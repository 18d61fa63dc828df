package exchange

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"trade_core/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{
		BaseURL:   srv.URL,
		WSURL:     "ws://unused",
		APIKey:    "test-key",
		APISecret: "test-secret",
	})
}

func TestGetKlinesParsesRows(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "15m", r.URL.Query().Get("interval"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))

		_, _ = w.Write([]byte(`[
			[1700000000000, "19950", "20050", "19900", "20000", "12.5", 1700000899999],
			[1700000900000, "20000", "20100", "19950", "20050", "8.1", 1700001799999]
		]`))
	})

	klines, err := c.GetKlines(t.Context(), "BTCUSDT", "15m", 50)
	require.NoError(t, err)
	require.Len(t, klines, 2)

	assert.True(t, klines[0].Close.Equal(decimal.NewFromInt(20000)))
	assert.True(t, klines[1].High.Equal(decimal.NewFromInt(20100)))
	assert.Equal(t, int64(1700000000000), klines[0].OpenTime.UnixMilli())
}

func TestGetKlinesSkipsMalformedRows(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			[1700000000000, "19950", "20050", "19900", "20000", "12.5"],
			[1700000900000, "not-a-number", "20100", "19950", "20050", "8.1"],
			[1700001800000]
		]`))
	})

	klines, err := c.GetKlines(t.Context(), "BTCUSDT", "15m", 50)
	require.NoError(t, err)
	assert.Len(t, klines, 1)
}

func TestAvailableBalance(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-MBX-APIKEY"))
		assert.NotEmpty(t, r.URL.Query().Get("signature"))
		assert.NotEmpty(t, r.URL.Query().Get("timestamp"))

		_, _ = w.Write([]byte(`{"balances":[
			{"asset":"BTC","free":"0.5","locked":"0"},
			{"asset":"USDT","free":"1000.25","locked":"10"}
		]}`))
	})

	free, err := c.AvailableBalance(t.Context(), "USDT")
	require.NoError(t, err)
	assert.True(t, free.Equal(decimal.NewFromFloat(1000.25)), "got %s", free)
}

func TestAvailableBalanceUnknownAssetIsZero(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"balances":[]}`))
	})

	free, err := c.AvailableBalance(t.Context(), "USDT")
	require.NoError(t, err)
	assert.True(t, free.IsZero())
}

func TestCreateOrderPropagatesClientOrderID(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "ord_BUY_BTCUSDT_1", r.URL.Query().Get("newClientOrderId"))
		assert.Equal(t, "MARKET", r.URL.Query().Get("type"))

		_, _ = w.Write([]byte(`{"orderId":42,"clientOrderId":"ord_BUY_BTCUSDT_1","status":"NEW"}`))
	})

	ack, err := c.CreateOrder(t.Context(), CreateOrderParams{
		Symbol:        "BTCUSDT",
		Side:          models.SideBuy,
		Type:          models.TypeMarket,
		Quantity:      0.0333,
		ClientOrderID: "ord_BUY_BTCUSDT_1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), ack.OrderID)
	assert.Equal(t, "NEW", ack.Status)
}

func TestCreateOrderRejectionIsAPIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-2010,"msg":"Account has insufficient balance"}`))
	})

	_, err := c.CreateOrder(t.Context(), CreateOrderParams{
		Symbol:        "BTCUSDT",
		Side:          models.SideBuy,
		Type:          models.TypeMarket,
		Quantity:      1,
		ClientOrderID: "ord_1",
	})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
	assert.Equal(t, -2010, apiErr.Code)
}

func TestLimitOrderRequiresPrice(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("request must not reach the exchange")
	})

	_, err := c.CreateOrder(t.Context(), CreateOrderParams{
		Symbol:        "BTCUSDT",
		Side:          models.SideBuy,
		Type:          models.TypeLimit,
		Quantity:      1,
		ClientOrderID: "ord_1",
	})
	assert.Error(t, err)
}
