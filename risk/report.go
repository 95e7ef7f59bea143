package risk

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// WriteReport renders the open positions and the session metrics as text
// tables, in the style of an end-of-day desk report.
func (m *Manager) WriteReport(w io.Writer) {
	positions := m.OpenPositions()
	metrics := m.RiskMetrics()
	closed := m.ClosedTrades()

	if len(positions) > 0 {
		fmt.Fprintln(w, "OPEN POSITIONS")
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Symbol", "Side", "Qty", "Entry", "Stop", "Target", "Trailing"})
		for _, p := range positions {
			trailing := "-"
			if p.TrailingArmed() {
				trailing = fmt.Sprintf("%.2f", p.TrailingStop)
			}
			table.Append([]string{
				p.Symbol,
				string(p.Side),
				strconv.FormatFloat(p.Quantity, 'f', -1, 64),
				fmt.Sprintf("%.2f", p.EntryPrice),
				fmt.Sprintf("%.2f", p.StopLoss),
				fmt.Sprintf("%.2f", p.TakeProfit),
				trailing,
			})
		}
		table.Render()
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "SESSION METRICS")
	summary := tablewriter.NewWriter(w)
	summary.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	summary.AppendBulk([][]string{
		{"Initial Capital", fmt.Sprintf("%.2f", metrics.TotalCapital)},
		{"Available Capital", fmt.Sprintf("%.2f", metrics.AvailableCapital)},
		{"Daily PnL", fmt.Sprintf("%.2f", metrics.DailyPnL)},
		{"Daily Trades", strconv.Itoa(metrics.DailyTrades)},
		{"Closed Trades", strconv.Itoa(len(closed))},
		{"Win Rate", fmt.Sprintf("%.1f %%", metrics.WinRate)},
		{"Profit Factor", formatRatio(metrics.ProfitFactor)},
		{"Max Drawdown", fmt.Sprintf("%.2f %%", metrics.MaxDrawdown)},
		{"Sharpe Ratio", fmt.Sprintf("%.2f", metrics.SharpeRatio)},
		{"Kelly Fraction", fmt.Sprintf("%.3f", m.KellyFraction())},
	})
	summary.Render()
}

func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}
