package strategy

import (
	"github.com/raykavin/niftybot/core"
	"github.com/raykavin/niftybot/indicator"
)

// VWAPCross builds the intraday VWAP crossover strategy. Buys need volume
// confirmation: the current bar must trade at least volumeThreshold times the
// 20 bar average volume. Sells fire on the bare crossunder.
func VWAPCross(volumeThreshold float64) Strategy {
	return Strategy{
		Key:    KeyVWAP,
		Name:   "VWAP",
		Weight: 0.9,
		Verdict: func(w *core.Window) int {
			if w.Len() < 2 {
				return VerdictHold
			}

			vwap := indicator.VWAP(w.High, w.Low, w.Close, w.Volume)
			if !indicator.DefinedAll(vwap.Last(0), vwap.Last(1)) {
				return VerdictHold
			}

			if w.Close.Crossover(vwap) {
				avgVolume := indicator.SMA(w.Volume, 20)
				if indicator.Defined(avgVolume.Last(0)) && w.Volume.Last(0) > avgVolume.Last(0)*volumeThreshold {
					return VerdictBuy
				}
				return VerdictHold
			}
			if w.Close.Crossunder(vwap) {
				return VerdictSell
			}
			return VerdictHold
		},
	}
}
