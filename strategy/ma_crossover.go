package strategy

import (
	"github.com/raykavin/niftybot/core"
	"github.com/raykavin/niftybot/indicator"
)

// MACrossover builds the golden/death cross strategy: buy when the short
// moving average crosses above the long one, sell on the opposite cross.
// With useEMA the averages are exponential and the strategy registers
// under its own key.
func MACrossover(shortPeriod, longPeriod int, useEMA bool) Strategy {
	key, name, weight := KeyMACrossover, "Moving Average Crossover", 1.0
	if useEMA {
		key, name = KeyEMACrossover, "EMA Crossover"
	}

	return Strategy{
		Key:    key,
		Name:   name,
		Weight: weight,
		Verdict: func(w *core.Window) int {
			if w.Len() < 2 {
				return VerdictHold
			}

			var short, long core.Series[float64]
			if useEMA {
				short = indicator.EMA(w.Close, shortPeriod)
				long = indicator.EMA(w.Close, longPeriod)
			} else {
				short = indicator.SMA(w.Close, shortPeriod)
				long = indicator.SMA(w.Close, longPeriod)
			}

			if !indicator.DefinedAll(short.Last(0), long.Last(0)) {
				return VerdictHold
			}

			if short.Crossover(long) {
				return VerdictBuy
			}
			if short.Crossunder(long) {
				return VerdictSell
			}
			return VerdictHold
		},
	}
}
