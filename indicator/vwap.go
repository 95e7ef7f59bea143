package indicator

import (
	"math"

	"github.com/raykavin/niftybot/core"
)

// VWAP calculates the Volume Weighted Average Price, cumulative over the
// whole window: sum(typical*volume)/sum(volume) with typical = (H+L+C)/3.
// Positions with zero cumulative volume are undefined.
func VWAP(high, low, close, volume core.Series[float64]) core.Series[float64] {
	out := make(core.Series[float64], len(close))

	var cumPV, cumVolume float64
	for i := range close {
		typical := (high[i] + low[i] + close[i]) / 3
		cumPV += typical * volume[i]
		cumVolume += volume[i]

		if cumVolume == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = cumPV / cumVolume
	}

	return out
}
