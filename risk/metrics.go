package risk

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// tradingDaysPerYear annualizes the per-snapshot Sharpe ratio.
const tradingDaysPerYear = 252

// Metrics is a snapshot of the session's risk and performance figures.
type Metrics struct {
	TotalCapital     float64 `json:"total_capital"`
	AvailableCapital float64 `json:"available_capital"`
	DailyPnL         float64 `json:"daily_pnl"`
	DailyTrades      int     `json:"daily_trades"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	WinRate          float64 `json:"win_rate"`
	ProfitFactor     float64 `json:"profit_factor"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
}

// RiskMetrics computes the session metrics from the trade history and the
// equity curve. Without closed trades every performance figure stays zero.
func (m *Manager) RiskMetrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	metrics := Metrics{
		TotalCapital:     m.initialCapital,
		AvailableCapital: m.currentCapital,
		DailyPnL:         m.dailyPnL,
		DailyTrades:      m.dailyTrades,
	}
	if len(m.closedTrades) == 0 {
		return metrics
	}

	var wins int
	var grossProfit, grossLoss float64
	for _, t := range m.closedTrades {
		switch {
		case t.ProfitLoss > 0:
			wins++
			grossProfit += t.ProfitLoss
		case t.ProfitLoss < 0:
			grossLoss += -t.ProfitLoss
		}
	}

	metrics.WinRate = float64(wins) / float64(len(m.closedTrades)) * 100
	metrics.ProfitFactor = profitFactor(grossProfit, grossLoss)
	metrics.MaxDrawdown = maxDrawdown(m.equityCurve)
	metrics.SharpeRatio = sharpeRatio(equityReturns(m.equityCurve))

	return metrics
}

// profitFactor is gross profit over gross loss. Profits without losses make
// the factor infinite; neither makes it zero.
func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}

// maxDrawdown returns the deepest peak-to-trough decline of the equity
// curve as a percentage of the peak, always >= 0.
func maxDrawdown(curve []float64) float64 {
	var peak, worst float64
	for _, equity := range curve {
		if equity > peak {
			peak = equity
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - equity) / peak * 100; dd > worst {
			worst = dd
		}
	}
	return worst
}

// equityReturns converts the equity curve into per-snapshot percentage returns.
func equityReturns(curve []float64) []float64 {
	if len(curve) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if curve[i-1] == 0 {
			continue
		}
		returns = append(returns, curve[i]/curve[i-1]-1)
	}
	return returns
}

// sharpeRatio annualizes mean over stdev of the per-snapshot returns. A
// single return or a flat curve carries no information and yields zero.
func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(tradingDaysPerYear)
}
