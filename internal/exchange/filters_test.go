package exchange

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFilters(t *testing.T) *Filters {
	t.Helper()
	return NewFilters(ExchangeInfo{
		Symbols: []SymbolInfo{
			{
				Symbol: "BTCUSDT",
				Status: "TRADING",
				Filters: []SymbolFilter{
					{FilterType: "LOT_SIZE", StepSize: "0.0001"},
					{FilterType: "PRICE_FILTER", TickSize: "0.01"},
					{FilterType: "MIN_NOTIONAL", MinNotional: "10"},
				},
			},
			{
				Symbol: "HALTUSDT",
				Status: "BREAK",
			},
		},
	})
}

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func TestAdjustQuantityToStepFloors(t *testing.T) {
	f := testFilters(t)

	got := f.AdjustQuantityToStep("BTCUSDT", d(t, "0.033399"))
	assert.True(t, got.Equal(d(t, "0.0333")), "got %s", got)

	got = f.AdjustQuantityToStep("BTCUSDT", d(t, "0.0001"))
	assert.True(t, got.Equal(d(t, "0.0001")), "got %s", got)

	got = f.AdjustQuantityToStep("BTCUSDT", d(t, "0.00009"))
	assert.True(t, got.IsZero(), "sub-step quantity must floor to zero, got %s", got)
}

func TestAdjustQuantityToStepIdempotent(t *testing.T) {
	f := testFilters(t)

	once := f.AdjustQuantityToStep("BTCUSDT", d(t, "1.23456789"))
	twice := f.AdjustQuantityToStep("BTCUSDT", once)
	assert.True(t, once.Equal(twice), "once=%s twice=%s", once, twice)
}

func TestAdjustPriceToTickRoundsHalfUp(t *testing.T) {
	f := testFilters(t)

	got := f.AdjustPriceToTick("BTCUSDT", d(t, "100.004"))
	assert.True(t, got.Equal(d(t, "100.00")), "got %s", got)

	got = f.AdjustPriceToTick("BTCUSDT", d(t, "100.005"))
	assert.True(t, got.Equal(d(t, "100.01")), "exact half must round up, got %s", got)

	got = f.AdjustPriceToTick("BTCUSDT", d(t, "100.006"))
	assert.True(t, got.Equal(d(t, "100.01")), "got %s", got)
}

func TestValidateMinNotionalStrict(t *testing.T) {
	f := testFilters(t)

	// 0.001 * 9999 = 9.999, just under the minimum of 10.
	assert.False(t, f.ValidateMinNotional("BTCUSDT", d(t, "0.001"), d(t, "9999")))

	// Exactly at the minimum passes.
	assert.True(t, f.ValidateMinNotional("BTCUSDT", d(t, "0.001"), d(t, "10000")))
	assert.True(t, f.ValidateMinNotional("BTCUSDT", d(t, "0.001"), d(t, "10001")))
}

func TestUnknownSymbolIsPassThrough(t *testing.T) {
	f := testFilters(t)

	q := d(t, "0.123456789")
	assert.True(t, q.Equal(f.AdjustQuantityToStep("NOPEUSDT", q)))

	p := d(t, "42.424242")
	assert.True(t, p.Equal(f.AdjustPriceToTick("NOPEUSDT", p)))

	assert.True(t, f.ValidateMinNotional("NOPEUSDT", q, p))
}

func TestIsSymbolTrading(t *testing.T) {
	f := testFilters(t)

	assert.True(t, f.IsSymbolTrading("BTCUSDT"))
	assert.False(t, f.IsSymbolTrading("HALTUSDT"))
	assert.False(t, f.IsSymbolTrading("NOPEUSDT"))
}
