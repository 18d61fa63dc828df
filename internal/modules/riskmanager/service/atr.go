package service

import (
	"trade_core/internal/exchange"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// averageTrueRange computes Wilder's ATR over the final `period` candles.
// Returns an error when there is not enough history or the result is zero
// (warm-up or flat/bad data); callers must reject in that case rather than
// fabricate a stop distance.
func averageTrueRange(klines []exchange.Kline, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, errors.New("atr period must be positive")
	}
	if len(klines) < period+1 {
		return decimal.Zero, errors.Errorf("need %d candles for atr, have %d", period+1, len(klines))
	}

	trs := make([]decimal.Decimal, 0, len(klines)-1)
	for i := 1; i < len(klines); i++ {
		prevClose := klines[i-1].Close
		high, low := klines[i].High, klines[i].Low

		tr := high.Sub(low)
		if hc := high.Sub(prevClose).Abs(); hc.GreaterThan(tr) {
			tr = hc
		}
		if lc := low.Sub(prevClose).Abs(); lc.GreaterThan(tr) {
			tr = lc
		}
		trs = append(trs, tr)
	}

	// Seed with a simple average, then Wilder smoothing over the rest.
	atr := decimal.Zero
	for _, tr := range trs[:period] {
		atr = atr.Add(tr)
	}
	p := decimal.NewFromInt(int64(period))
	atr = atr.Div(p)

	pm1 := decimal.NewFromInt(int64(period - 1))
	for _, tr := range trs[period:] {
		atr = atr.Mul(pm1).Add(tr).Div(p)
	}

	if atr.IsZero() {
		return decimal.Zero, errors.New("atr is zero")
	}
	return atr, nil
}
