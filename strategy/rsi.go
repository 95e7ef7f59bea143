package strategy

import (
	"github.com/raykavin/niftybot/core"
	"github.com/raykavin/niftybot/indicator"
)

// RSIMeanReversion builds the RSI mean-reversion strategy: buy when the RSI
// drops into the oversold zone, sell when it rises into the overbought zone.
// Only the bar that enters the zone signals; staying inside it does not.
func RSIMeanReversion(period int, overbought, oversold float64) Strategy {
	return Strategy{
		Key:    KeyRSI,
		Name:   "RSI Mean Reversion",
		Weight: 0.8,
		Verdict: func(w *core.Window) int {
			if w.Len() < 2 {
				return VerdictHold
			}

			rsi := indicator.RSI(w.Close, period)
			if !indicator.Defined(rsi.Last(0)) {
				return VerdictHold
			}

			current, prev := rsi.Last(0), rsi.Last(1)
			if current < oversold && prev >= oversold {
				return VerdictBuy
			}
			if current > overbought && prev <= overbought {
				return VerdictSell
			}
			return VerdictHold
		},
	}
}
