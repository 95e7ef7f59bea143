// Package indicator provides pure functions over OHLCV columns. Positions
// where an indicator has not warmed up yet hold NaN; use Defined before
// consuming a value.
package indicator

import (
	"math"

	"github.com/raykavin/niftybot/core"
)

// Defined reports whether v carries an indicator value
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

// DefinedAll reports whether every given value is defined
func DefinedAll(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// undefined returns a series of n missing values
func undefined(n int) core.Series[float64] {
	out := make(core.Series[float64], n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// markMissing overwrites the first lookback positions with the missing
// sentinel. The talib port fills warmup positions with zeros, which are
// indistinguishable from real values.
func markMissing(values core.Series[float64], lookback int) core.Series[float64] {
	if lookback > len(values) {
		lookback = len(values)
	}
	for i := 0; i < lookback; i++ {
		values[i] = math.NaN()
	}
	return values
}
