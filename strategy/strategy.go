// Package strategy provides the trading strategies and the weighted voting
// engine that combines them into a single verdict per window.
package strategy

import (
	"github.com/raykavin/niftybot/core"
)

// Verdict values returned by strategies
const (
	VerdictSell = -1
	VerdictHold = 0
	VerdictBuy  = 1
)

// Strategy is a pure verdict function over a window together with the
// identity the engine and the configuration store know it by.
type Strategy struct {
	Key     string
	Name    string
	Weight  float64
	Verdict func(w *core.Window) int
}
