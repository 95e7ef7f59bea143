package strategy

import (
	"github.com/raykavin/niftybot/core"
	"github.com/raykavin/niftybot/indicator"
)

// BollingerBands builds the band mean-reversion strategy: buy when the close
// breaks below the lower band, sell when it breaks above the upper band.
func BollingerBands(period int, stdDev float64) Strategy {
	return Strategy{
		Key:    KeyBollinger,
		Name:   "Bollinger Bands",
		Weight: 0.7,
		Verdict: func(w *core.Window) int {
			if w.Len() < 2 {
				return VerdictHold
			}

			upper, _, lower := indicator.BB(w.Close, period, stdDev, indicator.TypeSMA)
			if !indicator.DefinedAll(upper.Last(0), lower.Last(0)) {
				return VerdictHold
			}

			if w.Close.Crossunder(lower) {
				return VerdictBuy
			}
			if w.Close.Crossover(upper) {
				return VerdictSell
			}
			return VerdictHold
		},
	}
}
