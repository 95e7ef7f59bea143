package risk

import "math"

// Kelly returns the half-Kelly fraction of capital to commit to the next
// trade, clamped to [0, maxFraction]. winRate is a percentage, avgWin and
// avgLoss the mean realized results of winning and losing trades.
func Kelly(winRate, avgWin, avgLoss, maxFraction float64) float64 {
	if avgLoss == 0 {
		return 0
	}

	b := avgWin / math.Abs(avgLoss)
	if b <= 0 {
		return 0
	}

	p := winRate / 100
	q := 1 - p
	half := (b*p - q) / b / 2

	return math.Max(0, math.Min(half, maxFraction))
}

// KellyFraction derives the Kelly inputs from the session's own closed
// trades. It needs at least one win and one loss to estimate an edge and
// never exceeds the configured position size fraction.
func (m *Manager) KellyFraction() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var wins, losses int
	var winSum, lossSum float64
	for _, t := range m.closedTrades {
		switch {
		case t.ProfitLoss > 0:
			wins++
			winSum += t.ProfitLoss
		case t.ProfitLoss < 0:
			losses++
			lossSum += t.ProfitLoss
		}
	}
	if wins == 0 || losses == 0 {
		return 0
	}

	winRate := float64(wins) / float64(len(m.closedTrades)) * 100
	avgWin := winSum / float64(wins)
	avgLoss := lossSum / float64(losses)

	return Kelly(winRate, avgWin, avgLoss, m.cfg.PositionSizePct/100)
}

// KellySize converts the current Kelly fraction into a share count at the
// given price, at least one share whenever an edge exists.
func (m *Manager) KellySize(price float64) float64 {
	fraction := m.KellyFraction()
	if fraction == 0 || price <= 0 {
		return 0
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	shares := math.Floor(m.currentCapital * fraction / price)
	return math.Max(1, shares)
}
