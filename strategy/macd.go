package strategy

import (
	"github.com/raykavin/niftybot/core"
	"github.com/raykavin/niftybot/indicator"
)

// MACDCross builds the MACD line / signal line crossover strategy.
func MACDCross(fast, slow, signalPeriod int) Strategy {
	return Strategy{
		Key:    KeyMACD,
		Name:   "MACD",
		Weight: 1.0,
		Verdict: func(w *core.Window) int {
			if w.Len() < 2 {
				return VerdictHold
			}

			macd, signal, _ := indicator.MACD(w.Close, fast, slow, signalPeriod)
			if !indicator.DefinedAll(macd.Last(0), signal.Last(0), macd.Last(1), signal.Last(1)) {
				return VerdictHold
			}

			if macd.Crossover(signal) {
				return VerdictBuy
			}
			if macd.Crossunder(signal) {
				return VerdictSell
			}
			return VerdictHold
		},
	}
}
