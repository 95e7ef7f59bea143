package indicator

import (
	"github.com/raykavin/niftybot/core"
)

// SuperTrend calculates the SuperTrend indicator from basic volatility bands:
// band = hl2 ± multiplier*ATR(period). The direction at index i is +1 when
// the close breaks above the previous upper band, -1 when it breaks below
// the previous lower band, and otherwise carries the previous direction
// (seeded bullish). The line trails the price on the side of the trend.
// Returns the line and the direction; both are undefined for index < period.
func SuperTrend(high, low, close core.Series[float64], period int, multiplier float64) (line, direction core.Series[float64]) {
	n := len(close)
	line, direction = undefined(n), undefined(n)
	if n <= period {
		return line, direction
	}

	atr := ATR(high, low, close, period)

	upper := make([]float64, n)
	lower := make([]float64, n)
	for i := 0; i < n; i++ {
		hl2 := (high[i] + low[i]) / 2
		upper[i] = hl2 + multiplier*atr[i]
		lower[i] = hl2 - multiplier*atr[i]
	}

	for i := period; i < n; i++ {
		switch {
		case close[i] > upper[i-1]:
			direction[i] = 1
		case close[i] < lower[i-1]:
			direction[i] = -1
		case i > period:
			direction[i] = direction[i-1]
		default:
			direction[i] = 1
		}

		if direction[i] == 1 {
			line[i] = lower[i]
		} else {
			line[i] = upper[i]
		}
	}

	return line, direction
}
