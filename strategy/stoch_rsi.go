package strategy

import (
	"github.com/raykavin/niftybot/core"
	"github.com/raykavin/niftybot/indicator"
)

// StochRSI builds the double-oversold strategy: both the RSI and the
// stochastic %K must sit in their extreme zones at the same time.
func StochRSI(rsiPeriod, stochPeriod int) Strategy {
	return Strategy{
		Key:    KeyStochRSI,
		Name:   "Stochastic RSI",
		Weight: 0.8,
		Verdict: func(w *core.Window) int {
			if w.Len() < 2 {
				return VerdictHold
			}

			rsi := indicator.RSI(w.Close, rsiPeriod)
			k, _ := indicator.Stoch(w.High, w.Low, w.Close, stochPeriod, 3, 3)
			if !indicator.DefinedAll(rsi.Last(0), k.Last(0)) {
				return VerdictHold
			}

			if rsi.Last(0) < 30 && k.Last(0) < 20 {
				return VerdictBuy
			}
			if rsi.Last(0) > 70 && k.Last(0) > 80 {
				return VerdictSell
			}
			return VerdictHold
		},
	}
}
