package service

import (
	"testing"

	"trade_core/internal/exchange"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constantRangeKlines builds candles with identical close and a fixed
// high-low range, so every true range equals rng.
func constantRangeKlines(n int, close, rng float64) []exchange.Kline {
	half := decimal.NewFromFloat(rng / 2)
	c := decimal.NewFromFloat(close)
	klines := make([]exchange.Kline, n)
	for i := range klines {
		klines[i] = exchange.Kline{
			Open:  c,
			High:  c.Add(half),
			Low:   c.Sub(half),
			Close: c,
		}
	}
	return klines
}

func TestATRConstantRange(t *testing.T) {
	klines := constantRangeKlines(50, 20000, 100)

	atr, err := averageTrueRange(klines, 14)
	require.NoError(t, err)
	assert.True(t, atr.Equal(decimal.NewFromInt(100)), "got %s", atr)
}

func TestATRNeedsPeriodPlusOneCandles(t *testing.T) {
	klines := constantRangeKlines(14, 20000, 100)

	_, err := averageTrueRange(klines, 14)
	assert.Error(t, err)

	_, err = averageTrueRange(constantRangeKlines(15, 20000, 100), 14)
	assert.NoError(t, err)
}

func TestATRZeroIsError(t *testing.T) {
	// Flat candles: every true range is zero.
	_, err := averageTrueRange(constantRangeKlines(50, 20000, 0), 14)
	assert.Error(t, err)
}

func TestATRUsesGapToPreviousClose(t *testing.T) {
	// A gap between candles widens the true range beyond high-low.
	prev := exchange.Kline{
		High:  decimal.NewFromInt(101),
		Low:   decimal.NewFromInt(99),
		Close: decimal.NewFromInt(100),
	}
	gapped := exchange.Kline{
		High:  decimal.NewFromInt(111),
		Low:   decimal.NewFromInt(110),
		Close: decimal.NewFromInt(110),
	}

	atr, err := averageTrueRange([]exchange.Kline{prev, gapped}, 1)
	require.NoError(t, err)
	// TR = max(111-110, |111-100|, |110-100|) = 11.
	assert.True(t, atr.Equal(decimal.NewFromInt(11)), "got %s", atr)
}
