package strategy

import (
	"github.com/raykavin/niftybot/core"
	"github.com/raykavin/niftybot/indicator"
)

// SuperTrend builds the trend-flip strategy: buy when the direction flips
// from bearish to bullish, sell on the opposite flip.
func SuperTrend(period int, multiplier float64) Strategy {
	return Strategy{
		Key:    KeySuperTrend,
		Name:   "SuperTrend",
		Weight: 1.2,
		Verdict: func(w *core.Window) int {
			if w.Len() < 2 {
				return VerdictHold
			}

			_, direction := indicator.SuperTrend(w.High, w.Low, w.Close, period, multiplier)
			if !indicator.DefinedAll(direction.Last(0), direction.Last(1)) {
				return VerdictHold
			}

			if direction.Last(0) > 0 && direction.Last(1) < 0 {
				return VerdictBuy
			}
			if direction.Last(0) < 0 && direction.Last(1) > 0 {
				return VerdictSell
			}
			return VerdictHold
		},
	}
}
