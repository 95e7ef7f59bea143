package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raykavin/niftybot/core"
)

func testSettings() core.RiskSettings {
	return core.RiskSettings{
		PositionSizePct: 2.0,
		DailyLossPct:    5.0,
		MaxDailyTrades:  50,
		StopLossPct:     1.5,
		TakeProfitPct:   3.0,
		TrailingStopPct: 1.0,
	}
}

func TestManager_PositionSize(t *testing.T) {
	m := NewManager(100000, testSettings())

	// 2% of capital risked over a two ATR stop distance.
	require.Equal(t, 200.0, m.PositionSize(100, 5))

	// Zero ATR falls back to a 1.5% stop distance.
	require.Equal(t, 1333.0, m.PositionSize(100, 0))

	// Fractional share counts round down to at least one share.
	require.Equal(t, 1.0, m.PositionSize(50000, 10000))

	// Invalid price sizes to zero.
	require.Equal(t, 0.0, m.PositionSize(0, 5))
	require.Equal(t, 0.0, m.PositionSize(-10, 5))
}

func TestManager_PositionSize_AffordabilityClamp(t *testing.T) {
	m := NewManager(100, testSettings())

	// Risk math asks for ten shares but only three are affordable.
	require.Equal(t, 3.0, m.PositionSize(30, 0.1))

	// Not even one share is affordable.
	require.Equal(t, 0.0, m.PositionSize(200, 1))
}

func TestManager_OpenClose_RoundTrip(t *testing.T) {
	m := NewManager(100000, testSettings())

	p, err := m.OpenPosition("RELIANCE", core.PositionSideLong, 100, 100, 5)
	require.NoError(t, err)
	require.Equal(t, 90.0, p.StopLoss)
	require.Equal(t, 120.0, p.TakeProfit)
	require.False(t, p.TrailingArmed())
	require.Equal(t, 100.0, p.HighestPrice)

	snap := m.Snapshot()
	require.Equal(t, 90000.0, snap.CurrentCapital)
	require.Equal(t, 1, snap.DailyTrades)
	require.Equal(t, 1, snap.OpenPositions)

	trade, err := m.ClosePosition("RELIANCE", 110, core.ExitReasonTakeProfit)
	require.NoError(t, err)
	require.Equal(t, 1000.0, trade.ProfitLoss)
	require.Equal(t, core.ExitReasonTakeProfit, trade.Reason)

	snap = m.Snapshot()
	require.Equal(t, 101000.0, snap.CurrentCapital)
	require.Equal(t, 1000.0, snap.DailyPnL)
	require.Equal(t, 0, snap.OpenPositions)

	require.Equal(t, []float64{100000, 101000}, m.EquityCurve())
	require.Len(t, m.ClosedTrades(), 1)

	_, ok := m.Position("RELIANCE")
	require.False(t, ok)
}

func TestManager_OpenPosition_Rejections(t *testing.T) {
	m := NewManager(100000, testSettings())

	_, err := m.OpenPosition("TCS", core.PositionSideLong, 100, 100, 5)
	require.NoError(t, err)

	_, err = m.OpenPosition("TCS", core.PositionSideLong, 10, 100, 5)
	require.ErrorIs(t, err, core.ErrPositionExists)

	_, err = m.OpenPosition("INFY", core.PositionSideLong, 0, 100, 5)
	require.ErrorIs(t, err, core.ErrInvalidQuantity)

	// 90000 left after the first entry, the next one costs 100000.
	_, err = m.OpenPosition("INFY", core.PositionSideLong, 1000, 100, 5)
	require.ErrorIs(t, err, core.ErrInsufficientFunds)

	_, err = m.ClosePosition("INFY", 100, core.ExitReasonStopLoss)
	require.ErrorIs(t, err, core.ErrNoPosition)
}

func TestManager_TrailingStop_Long(t *testing.T) {
	m := NewManager(100000, testSettings())

	_, err := m.OpenPosition("INFY", core.PositionSideLong, 10, 100, 5)
	require.NoError(t, err)

	// A new high at 110 arms the stop one percent of entry below it.
	m.UpdateTrailingStop("INFY", 110)
	p, _ := m.Position("INFY")
	require.True(t, p.TrailingArmed())
	require.Equal(t, 109.0, p.TrailingStop)

	// A pullback is not a new high and never loosens the stop.
	m.UpdateTrailingStop("INFY", 105)
	p, _ = m.Position("INFY")
	require.Equal(t, 109.0, p.TrailingStop)
	require.Equal(t, 110.0, p.HighestPrice)

	m.UpdateTrailingStop("INFY", 112)
	p, _ = m.Position("INFY")
	require.Equal(t, 111.0, p.TrailingStop)

	exit, reason := m.ShouldExit("INFY", 110.5)
	require.True(t, exit)
	require.Equal(t, core.ExitReasonTrailingStop, reason)
}

func TestManager_TrailingStop_Short(t *testing.T) {
	m := NewManager(100000, testSettings())

	_, err := m.OpenPosition("SBIN", core.PositionSideShort, 10, 100, 5)
	require.NoError(t, err)

	m.UpdateTrailingStop("SBIN", 92)
	p, _ := m.Position("SBIN")
	require.Equal(t, 93.0, p.TrailingStop)

	m.UpdateTrailingStop("SBIN", 95)
	p, _ = m.Position("SBIN")
	require.Equal(t, 93.0, p.TrailingStop)

	exit, reason := m.ShouldExit("SBIN", 93.5)
	require.True(t, exit)
	require.Equal(t, core.ExitReasonTrailingStop, reason)
}

func TestManager_ShouldExit_Unarmed(t *testing.T) {
	m := NewManager(100000, testSettings())

	_, err := m.OpenPosition("TCS", core.PositionSideLong, 10, 100, 5)
	require.NoError(t, err)

	// No new high yet, so only the hard stop and the target apply.
	exit, reason := m.ShouldExit("TCS", 95)
	require.False(t, exit)
	require.Empty(t, reason)

	exit, reason = m.ShouldExit("TCS", 89)
	require.True(t, exit)
	require.Equal(t, core.ExitReasonStopLoss, reason)
}

func TestManager_ShouldExit_Priority(t *testing.T) {
	m := NewManager(100000, testSettings())

	_, err := m.OpenPosition("ITC", core.PositionSideLong, 10, 100, 2)
	require.NoError(t, err)

	// Stop loss wins over an armed trailing stop.
	m.UpdateTrailingStop("ITC", 101)
	exit, reason := m.ShouldExit("ITC", 95)
	require.True(t, exit)
	require.Equal(t, core.ExitReasonStopLoss, reason)

	m2 := NewManager(100000, testSettings())
	_, err = m2.OpenPosition("ITC", core.PositionSideLong, 10, 100, 5)
	require.NoError(t, err)

	// Trailing stop wins over the take profit once both are crossed.
	m2.UpdateTrailingStop("ITC", 126)
	exit, reason = m2.ShouldExit("ITC", 121)
	require.True(t, exit)
	require.Equal(t, core.ExitReasonTrailingStop, reason)

	exit, reason = m2.ShouldExit("ITC", 125.5)
	require.True(t, exit)
	require.Equal(t, core.ExitReasonTakeProfit, reason)
}

func TestManager_CanTrade_DailyLossLimit(t *testing.T) {
	m := NewManager(100000, testSettings())

	ok, reason := m.CanTrade()
	require.True(t, ok)
	require.Empty(t, reason)

	// Realize a loss just above the 5% limit.
	_, err := m.OpenPosition("SBIN", core.PositionSideLong, 100, 100, 1)
	require.NoError(t, err)
	_, err = m.ClosePosition("SBIN", 50.25, core.ExitReasonStopLoss)
	require.NoError(t, err)

	ok, _ = m.CanTrade()
	require.True(t, ok)

	// Reaching the limit exactly blocks further entries.
	_, err = m.OpenPosition("SBIN", core.PositionSideLong, 100, 50, 1)
	require.NoError(t, err)
	_, err = m.ClosePosition("SBIN", 49.75, core.ExitReasonStopLoss)
	require.NoError(t, err)

	ok, reason = m.CanTrade()
	require.False(t, ok)
	require.Equal(t, core.BlockReasonDailyLoss, reason)
}

func TestManager_CanTrade_MaxDailyTrades(t *testing.T) {
	cfg := testSettings()
	cfg.MaxDailyTrades = 2
	m := NewManager(100000, cfg)

	_, err := m.OpenPosition("TCS", core.PositionSideLong, 10, 100, 5)
	require.NoError(t, err)
	_, err = m.OpenPosition("INFY", core.PositionSideLong, 10, 100, 5)
	require.NoError(t, err)

	ok, reason := m.CanTrade()
	require.False(t, ok)
	require.Equal(t, core.BlockReasonMaxTrades, reason)
}

func TestManager_DailyReset(t *testing.T) {
	day := time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC)
	m := NewManager(100000, testSettings(), WithClock(func() time.Time { return day }))

	_, err := m.OpenPosition("ITC", core.PositionSideLong, 100, 100, 1)
	require.NoError(t, err)
	_, err = m.ClosePosition("ITC", 40, core.ExitReasonStopLoss)
	require.NoError(t, err)

	ok, reason := m.CanTrade()
	require.False(t, ok)
	require.Equal(t, core.BlockReasonDailyLoss, reason)

	// The next calendar day clears the daily counters but not the history.
	day = day.Add(24 * time.Hour)
	ok, reason = m.CanTrade()
	require.True(t, ok)
	require.Empty(t, reason)

	snap := m.Snapshot()
	require.Zero(t, snap.DailyPnL)
	require.Zero(t, snap.DailyTrades)
	require.Len(t, m.ClosedTrades(), 1)
	require.Equal(t, 94000.0, snap.CurrentCapital)
}
