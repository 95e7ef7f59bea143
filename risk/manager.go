// Package risk implements the money manager: volatility-aware position
// sizing, daily trading limits, protective stop bookkeeping and session
// statistics. All state lives behind one manager so concurrent symbol
// scans observe a consistent portfolio.
package risk

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/raykavin/niftybot/core"
)

// Manager owns the trading capital and every open position.
type Manager struct {
	mu sync.RWMutex

	cfg            core.RiskSettings
	initialCapital float64
	currentCapital float64

	positions    map[string]*core.Position
	closedTrades []core.ClosedTrade
	equityCurve  []float64

	dailyPnL    float64
	dailyTrades int
	lastReset   time.Time

	now func() time.Time
}

// Option defines an option function to configure the Manager
type Option func(*Manager)

// WithClock replaces the time source used for entry timestamps and the
// daily counter reset
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a money manager holding initialCapital
func NewManager(initialCapital float64, cfg core.RiskSettings, options ...Option) *Manager {
	m := &Manager{
		cfg:            cfg,
		initialCapital: initialCapital,
		currentCapital: initialCapital,
		positions:      make(map[string]*core.Position),
		equityCurve:    []float64{initialCapital},
		now:            time.Now,
	}

	for _, option := range options {
		option(m)
	}
	m.lastReset = dateOf(m.now())

	return m
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// resetDailyStats zeroes the daily counters once the calendar date advances.
// Callers must hold the write lock.
func (m *Manager) resetDailyStats() {
	today := dateOf(m.now())
	if today.After(m.lastReset) {
		m.dailyPnL = 0
		m.dailyTrades = 0
		m.lastReset = today
	}
}

// CanTrade reports whether a new entry is allowed right now. The reason is
// empty when trading is allowed, otherwise one of the block reason codes.
func (m *Manager) CanTrade() (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetDailyStats()

	if m.dailyPnL <= -m.initialCapital*m.cfg.DailyLossPct/100 {
		return false, core.BlockReasonDailyLoss
	}
	if m.dailyTrades >= m.cfg.MaxDailyTrades {
		return false, core.BlockReasonMaxTrades
	}
	return true, ""
}

// PositionSize returns the share count for a new entry, risking
// PositionSizePct of current capital against a two ATR stop. Zero means
// the trade should be skipped.
func (m *Manager) PositionSize(price, atr float64) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if price <= 0 {
		return 0
	}

	riskAmount := m.currentCapital * m.cfg.PositionSizePct / 100
	stopDistance := atr * 2
	if stopDistance <= 0 {
		stopDistance = price * m.cfg.StopLossPct / 100
	}

	var shares float64
	if stopDistance > 0 {
		shares = math.Floor(riskAmount / stopDistance)
	} else {
		shares = math.Floor(riskAmount / price)
	}
	if shares < 1 {
		shares = 1
	}
	if affordable := math.Floor(m.currentCapital / price); shares > affordable {
		shares = affordable
	}
	if shares < 0 {
		return 0
	}
	return shares
}

// OpenPosition registers a filled entry, reserving its cost and arming the
// protective stop at two ATR and the target at four ATR from the entry.
func (m *Manager) OpenPosition(symbol string, side core.PositionSide, quantity, price, atr float64) (core.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.positions[symbol]; ok {
		return core.Position{}, core.ErrPositionExists
	}
	if quantity <= 0 {
		return core.Position{}, core.ErrInvalidQuantity
	}
	if quantity*price > m.currentCapital {
		return core.Position{}, core.ErrInsufficientFunds
	}

	p := &core.Position{
		Symbol:       symbol,
		Side:         side,
		Quantity:     quantity,
		EntryPrice:   price,
		EntryTime:    m.now(),
		TrailingStop: math.NaN(),
		HighestPrice: math.NaN(),
		LowestPrice:  math.NaN(),
	}
	if side == core.PositionSideLong {
		p.StopLoss = price - atr*2
		p.TakeProfit = price + atr*4
		p.HighestPrice = price
	} else {
		p.StopLoss = price + atr*2
		p.TakeProfit = price - atr*4
		p.LowestPrice = price
	}

	m.positions[symbol] = p
	m.currentCapital -= quantity * price
	m.dailyTrades++

	return *p, nil
}

// UpdateTrailingStop ratchets the trailing stop when the price makes a new
// favorable extreme. The stop never loosens.
func (m *Manager) UpdateTrailingStop(symbol string, currentPrice float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateTrailingStop(symbol, currentPrice)
}

func (m *Manager) updateTrailingStop(symbol string, currentPrice float64) {
	p, ok := m.positions[symbol]
	if !ok {
		return
	}

	distance := p.EntryPrice * m.cfg.TrailingStopPct / 100

	if p.Side == core.PositionSideLong {
		if math.IsNaN(p.HighestPrice) || currentPrice > p.HighestPrice {
			p.HighestPrice = currentPrice
			if stop := currentPrice - distance; !p.TrailingArmed() || stop > p.TrailingStop {
				p.TrailingStop = stop
			}
		}
		return
	}

	if math.IsNaN(p.LowestPrice) || currentPrice < p.LowestPrice {
		p.LowestPrice = currentPrice
		if stop := currentPrice + distance; !p.TrailingArmed() || stop < p.TrailingStop {
			p.TrailingStop = stop
		}
	}
}

// ShouldExit refreshes the trailing stop and reports whether any exit rule
// fires at currentPrice. Rules are checked in order: stop loss, trailing
// stop, take profit.
func (m *Manager) ShouldExit(symbol string, currentPrice float64) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.positions[symbol]
	if !ok {
		return false, ""
	}

	m.updateTrailingStop(symbol, currentPrice)

	if p.Side == core.PositionSideLong {
		switch {
		case currentPrice <= p.StopLoss:
			return true, core.ExitReasonStopLoss
		case p.TrailingArmed() && currentPrice <= p.TrailingStop:
			return true, core.ExitReasonTrailingStop
		case currentPrice >= p.TakeProfit:
			return true, core.ExitReasonTakeProfit
		}
		return false, ""
	}

	switch {
	case currentPrice >= p.StopLoss:
		return true, core.ExitReasonStopLoss
	case p.TrailingArmed() && currentPrice >= p.TrailingStop:
		return true, core.ExitReasonTrailingStop
	case currentPrice <= p.TakeProfit:
		return true, core.ExitReasonTakeProfit
	}
	return false, ""
}

// ClosePosition realizes the position at exitPrice, releasing its cost plus
// the result back into capital and appending an equity snapshot.
func (m *Manager) ClosePosition(symbol string, exitPrice float64, reason string) (core.ClosedTrade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.positions[symbol]
	if !ok {
		return core.ClosedTrade{}, core.ErrNoPosition
	}

	pnl := p.ProfitLoss(exitPrice)
	m.currentCapital += p.Cost() + pnl
	m.dailyPnL += pnl
	m.equityCurve = append(m.equityCurve, m.currentCapital)

	trade := core.ClosedTrade{
		Symbol:     p.Symbol,
		Side:       p.Side,
		Quantity:   p.Quantity,
		EntryPrice: p.EntryPrice,
		ExitPrice:  exitPrice,
		EntryTime:  p.EntryTime,
		ExitTime:   m.now(),
		ProfitLoss: pnl,
		Reason:     reason,
	}
	m.closedTrades = append(m.closedTrades, trade)
	delete(m.positions, symbol)

	return trade, nil
}

// Position returns a copy of the open position on symbol, if any
func (m *Manager) Position(symbol string) (core.Position, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.positions[symbol]
	if !ok {
		return core.Position{}, false
	}
	return *p, true
}

// OpenPositions returns copies of every open position, ordered by symbol
func (m *Manager) OpenPositions() []core.Position {
	m.mu.RLock()
	defer m.mu.RUnlock()

	positions := make([]core.Position, 0, len(m.positions))
	for _, p := range m.positions {
		positions = append(positions, *p)
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})
	return positions
}

// ClosedTrades returns a copy of the session trade history
func (m *Manager) ClosedTrades() []core.ClosedTrade {
	m.mu.RLock()
	defer m.mu.RUnlock()

	trades := make([]core.ClosedTrade, len(m.closedTrades))
	copy(trades, m.closedTrades)
	return trades
}

// EquityCurve returns a copy of the capital snapshots, starting with the
// initial capital
func (m *Manager) EquityCurve() []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	curve := make([]float64, len(m.equityCurve))
	copy(curve, m.equityCurve)
	return curve
}

// InitialCapital returns the capital the manager started with
func (m *Manager) InitialCapital() float64 {
	return m.initialCapital
}

// Snapshot is a point-in-time copy of the mutable manager counters.
type Snapshot struct {
	CurrentCapital float64
	DailyPnL       float64
	DailyTrades    int
	OpenPositions  int
}

// Snapshot returns the current counters under one lock acquisition
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		CurrentCapital: m.currentCapital,
		DailyPnL:       m.dailyPnL,
		DailyTrades:    m.dailyTrades,
		OpenPositions:  len(m.positions),
	}
}
