package strategy

import "github.com/raykavin/niftybot/core"

// Threshold is the weighted score magnitude the combined vote must exceed
// before it becomes an actionable verdict.
const Threshold = 0.3

// Engine evaluates a set of strategies over a candle window and combines
// their votes into a single verdict.
type Engine struct {
	registry Registry
}

func NewEngine(registry Registry) *Engine {
	return &Engine{registry: registry}
}

// Vote runs the active strategies against w and returns the combined verdict
// together with each strategy's individual vote. Keys missing from the
// registry vote hold and carry no weight.
func (e *Engine) Vote(w *core.Window, activeKeys []string) (int, map[string]int) {
	votes := make(map[string]int, len(activeKeys))

	var score, totalWeight float64
	for _, key := range activeKeys {
		s, ok := e.registry[key]
		if !ok {
			votes[key] = VerdictHold
			continue
		}

		v := s.Verdict(w)
		votes[key] = v
		score += float64(v) * s.Weight
		totalWeight += s.Weight
	}

	if totalWeight == 0 {
		return VerdictHold, votes
	}

	switch weighted := score / totalWeight; {
	case weighted > Threshold:
		return VerdictBuy, votes
	case weighted < -Threshold:
		return VerdictSell, votes
	default:
		return VerdictHold, votes
	}
}

// Confidence reports the share of votes agreeing with the combined verdict.
// Hold verdicts have zero confidence.
func Confidence(votes map[string]int, combined int) float64 {
	if combined == VerdictHold || len(votes) == 0 {
		return 0
	}

	agreeing := 0
	for _, v := range votes {
		if v == combined {
			agreeing++
		}
	}
	return float64(agreeing) / float64(len(votes))
}
