// Package backtest replays historical candles through a single strategy and
// summarizes the simulated trades.
package backtest

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"

	"github.com/raykavin/niftybot/core"
	"github.com/raykavin/niftybot/logger"
	"github.com/raykavin/niftybot/metric"
	"github.com/raykavin/niftybot/strategy"
)

const (
	// historyBars is how much history one replay requests
	historyBars = 500

	// warmupBars are consumed before the first verdict so every indicator
	// has data
	warmupBars = 50

	// positionFraction is the fixed sizing used by replays: 2% of current
	// capital per entry. The live engine sizes through the risk manager
	// instead.
	positionFraction = 0.02

	bootstrapIterations = 10000
	bootstrapConfidence = 0.95
)

// Trade is one completed round trip of a replay
type Trade struct {
	Symbol     string
	Side       core.PositionSide
	Quantity   float64
	EntryPrice float64
	ExitPrice  float64
	EntryTime  time.Time
	ExitTime   time.Time
	ProfitLoss float64
}

// Return is the trade's profit relative to its entry cost
func (t Trade) Return() float64 {
	cost := t.EntryPrice * t.Quantity
	if cost == 0 {
		return 0
	}
	return t.ProfitLoss / cost
}

// Result aggregates one replay run
type Result struct {
	Symbol         string
	Strategy       string
	Bars           int
	Trades         []Trade
	Wins           int
	Losses         int
	TotalPnL       float64
	InitialCapital float64
	FinalCapital   float64
}

// WinRate is the percentage of trades closed with a profit
func (r *Result) WinRate() float64 {
	if len(r.Trades) == 0 {
		return 0
	}
	return float64(r.Wins) / float64(len(r.Trades)) * 100
}

// ProfitFactor is gross profit over gross loss. It is +Inf for a run that
// never lost and 0 for a run that never traded.
func (r *Result) ProfitFactor() float64 {
	var grossProfit, grossLoss float64
	for _, trade := range r.Trades {
		if trade.ProfitLoss > 0 {
			grossProfit += trade.ProfitLoss
		} else {
			grossLoss -= trade.ProfitLoss
		}
	}

	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}

// Returns lists every trade's return, in close order
func (r *Result) Returns() []float64 {
	return lo.Map(r.Trades, func(trade Trade, _ int) float64 {
		return trade.Return()
	})
}

// Backtester replays historical windows through one strategy at a time
type Backtester struct {
	feeder   core.Feeder
	log      logger.Logger
	capital  float64
	progress bool
}

// Option is a function that configures a backtester instance
type Option func(*Backtester)

// WithProgress renders a progress bar on stderr while replaying
func WithProgress() Option {
	return func(b *Backtester) {
		b.progress = true
	}
}

// WithInitialCapital overrides the starting capital
func WithInitialCapital(capital float64) Option {
	return func(b *Backtester) {
		b.capital = capital
	}
}

func New(feeder core.Feeder, log logger.Logger, options ...Option) *Backtester {
	b := &Backtester{
		feeder:  feeder,
		log:     log,
		capital: core.DefaultSettings().InitialCapital,
	}
	for _, option := range options {
		option(b)
	}
	return b
}

// Run replays symbol's history through st. Entries open on the first
// non-hold verdict while flat and close on the opposite verdict; whatever
// is still open at the end closes at the last price.
func (b *Backtester) Run(ctx context.Context, st strategy.Strategy, symbol, timeframe string) (*Result, error) {
	w, err := b.feeder.Candles(ctx, symbol, timeframe, historyBars)
	if err != nil {
		return nil, fmt.Errorf("fetch candles for %s: %w", symbol, err)
	}
	if w.Len() <= warmupBars {
		return nil, fmt.Errorf("%s: need more than %d bars, got %d", symbol, warmupBars, w.Len())
	}

	b.log.WithFields(map[string]any{
		"symbol":   symbol,
		"strategy": st.Key,
		"bars":     w.Len(),
	}).Info("starting backtest")

	capital := b.capital
	result := &Result{
		Symbol:         symbol,
		Strategy:       st.Key,
		Bars:           w.Len(),
		InitialCapital: capital,
	}

	var bar *progressbar.ProgressBar
	if b.progress {
		bar = progressbar.Default(int64(w.Len() - warmupBars))
	}

	var open *Trade
	for i := warmupBars; i < w.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		view := w.Prefix(i + 1)
		price := view.LastPrice()
		at := view.Bar(view.Len() - 1).Time
		verdict := st.Verdict(view)

		switch {
		case open == nil && verdict != strategy.VerdictHold:
			quantity := math.Floor(capital * positionFraction / price)
			if quantity >= 1 {
				open = &Trade{
					Symbol:     symbol,
					Side:       core.EntrySide(verdict).Direction(),
					Quantity:   quantity,
					EntryPrice: price,
					EntryTime:  at,
				}
			}
		case open != nil && reverses(open.Side, verdict):
			capital += result.close(open, price, at)
			open = nil
		}

		if bar != nil {
			if err := bar.Add(1); err != nil {
				b.log.WithError(err).Warn("progress bar update failed")
			}
		}
	}

	if open != nil {
		capital += result.close(open, w.LastPrice(), w.Bar(w.Len()-1).Time)
	}
	result.FinalCapital = capital

	b.log.WithFields(map[string]any{
		"trades": len(result.Trades),
		"pnl":    result.TotalPnL,
	}).Info("backtest finished")

	return result, nil
}

// reverses reports whether the verdict points against the open side
func reverses(side core.PositionSide, verdict int) bool {
	if side == core.PositionSideLong {
		return verdict < 0
	}
	return verdict > 0
}

// close books the open trade at price and returns its profit
func (r *Result) close(open *Trade, price float64, at time.Time) float64 {
	pnl := (price - open.EntryPrice) * open.Quantity
	if open.Side == core.PositionSideShort {
		pnl = -pnl
	}

	open.ExitPrice = price
	open.ExitTime = at
	open.ProfitLoss = pnl

	r.Trades = append(r.Trades, *open)
	r.TotalPnL += pnl
	if pnl > 0 {
		r.Wins++
	} else {
		r.Losses++
	}
	return pnl
}

// WriteSummary renders the run as a table, a histogram of per-trade returns
// and bootstrap confidence intervals for the usual ratios.
func (r *Result) WriteSummary(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Symbol", "Strategy", "Trades", "Win", "Loss", "% Win", "Pr Fact.", "Profit", "Final Capital"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})
	table.Append([]string{
		r.Symbol,
		r.Strategy,
		strconv.Itoa(len(r.Trades)),
		strconv.Itoa(r.Wins),
		strconv.Itoa(r.Losses),
		fmt.Sprintf("%.1f %%", r.WinRate()),
		formatRatio(r.ProfitFactor()),
		fmt.Sprintf("%.2f", r.TotalPnL),
		fmt.Sprintf("%.2f", r.FinalCapital),
	})
	table.Render()

	returns := r.Returns()
	if len(returns) == 0 {
		fmt.Fprintln(w, "No trades were closed.")
		return
	}

	fmt.Fprintln(w, "------ RETURN -------")
	returnsPercent := lo.Map(returns, func(v float64, _ int) float64 { return v * 100 })
	hist := histogram.Hist(15, returnsPercent)
	if err := histogram.Fprint(w, hist, histogram.Linear(10)); err != nil {
		fmt.Fprintf(w, "histogram unavailable: %v\n", err)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "------ CONFIDENCE INTERVAL (%.0f%%) -------\n", bootstrapConfidence*100)
	returnsInterval := metric.Bootstrap(returns, metric.Mean, bootstrapIterations, bootstrapConfidence)
	payoffInterval := metric.Bootstrap(returns, metric.Payoff, bootstrapIterations, bootstrapConfidence)
	profitFactorInterval := metric.Bootstrap(returns, metric.ProfitFactor, bootstrapIterations, bootstrapConfidence)

	fmt.Fprintf(w, "RETURN:      %.2f%% (%.2f%% ~ %.2f%%)\n",
		returnsInterval.Mean*100, returnsInterval.Lower*100, returnsInterval.Upper*100)
	fmt.Fprintf(w, "PAYOFF:      %.2f (%.2f ~ %.2f)\n",
		payoffInterval.Mean, payoffInterval.Lower, payoffInterval.Upper)
	fmt.Fprintf(w, "PROF.FACTOR: %.2f (%.2f ~ %.2f)\n",
		profitFactorInterval.Mean, profitFactorInterval.Lower, profitFactorInterval.Upper)
}

func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.3f", v)
}
