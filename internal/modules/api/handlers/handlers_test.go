package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"trade_core/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrades struct {
	trades    []models.TradeLog
	err       error
	lastLimit int
}

func (f *fakeTrades) LastN(_ context.Context, limit int) ([]models.TradeLog, error) {
	f.lastLimit = limit
	return f.trades, f.err
}

type fakeStore struct {
	data map[string]map[string][]byte
	err  error
}

func (s *fakeStore) Set(_ context.Context, collection, key string, value []byte) error {
	if s.data[collection] == nil {
		s.data[collection] = make(map[string][]byte)
	}
	s.data[collection][key] = value
	return nil
}

func (s *fakeStore) Get(_ context.Context, collection, key string) ([]byte, error) {
	return s.data[collection][key], nil
}

func (s *fakeStore) Delete(_ context.Context, collection, key string) error {
	delete(s.data[collection], key)
	return nil
}

func (s *fakeStore) Collection(_ context.Context, collection string) (map[string][]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.data[collection], nil
}

func TestHealth(t *testing.T) {
	h := New(&fakeTrades{}, &fakeStore{})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestTradesDefaultLimit(t *testing.T) {
	trades := &fakeTrades{trades: []models.TradeLog{{Symbol: "BTCUSDT", Pnl: 16.65}}}
	h := New(trades, &fakeStore{})

	rec := httptest.NewRecorder()
	h.Trades(rec, httptest.NewRequest(http.MethodGet, "/api/v1/trades", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, trades.lastLimit)

	var out []models.TradeLog
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "BTCUSDT", out[0].Symbol)
}

func TestTradesLimitValidation(t *testing.T) {
	h := New(&fakeTrades{}, &fakeStore{})

	for _, q := range []string{"?limit=0", "?limit=-5", "?limit=1001", "?limit=abc"} {
		rec := httptest.NewRecorder()
		h.Trades(rec, httptest.NewRequest(http.MethodGet, "/api/v1/trades"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}

	rec := httptest.NewRecorder()
	h.Trades(rec, httptest.NewRequest(http.MethodGet, "/api/v1/trades?limit=10", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTradesEmptyIsJSONArray(t *testing.T) {
	h := New(&fakeTrades{}, &fakeStore{})

	rec := httptest.NewRecorder()
	h.Trades(rec, httptest.NewRequest(http.MethodGet, "/api/v1/trades", nil))

	assert.Equal(t, "[]", rec.Body.String())
}

func TestTradesRepoError(t *testing.T) {
	h := New(&fakeTrades{err: errors.New("db down")}, &fakeStore{})

	rec := httptest.NewRecorder()
	h.Trades(rec, httptest.NewRequest(http.MethodGet, "/api/v1/trades", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPositions(t *testing.T) {
	pos := models.Position{Symbol: "BTCUSDT", Side: models.SideBuy, Quantity: 0.0333}
	raw, err := sonic.Marshal(&pos)
	require.NoError(t, err)

	store := &fakeStore{data: map[string]map[string][]byte{
		models.PositionsCollection: {"BTCUSDT": raw},
	}}
	h := New(&fakeTrades{}, store)

	rec := httptest.NewRecorder()
	h.Positions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var out []models.Position
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "BTCUSDT", out[0].Symbol)
}

func TestPositionsStoreError(t *testing.T) {
	h := New(&fakeTrades{}, &fakeStore{err: errors.New("redis down")})

	rec := httptest.NewRecorder()
	h.Positions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
