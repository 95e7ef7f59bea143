package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	at := time.Date(2024, 3, 11, 11, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestSimFeed_Candles_Shape(t *testing.T) {
	f := NewSimFeed(testLogger(t), WithFeedClock(fixedClock()))

	w, err := f.Candles(context.Background(), "RELIANCE", "5m", 100)
	require.NoError(t, err)
	require.Equal(t, 100, w.Len())
	require.Equal(t, "RELIANCE", w.Symbol)

	// Bars are spaced by the timeframe and end at the clock time.
	require.Equal(t, fixedClock()(), w.Time[99])
	for i := 1; i < w.Len(); i++ {
		require.Equal(t, 5*time.Minute, w.Time[i].Sub(w.Time[i-1]))
	}

	for i := 0; i < w.Len(); i++ {
		bar := w.Bar(i)
		require.Greater(t, bar.Close, 0.0)
		require.GreaterOrEqual(t, bar.High, bar.Open)
		require.GreaterOrEqual(t, bar.High, bar.Close)
		require.LessOrEqual(t, bar.Low, bar.Open)
		require.LessOrEqual(t, bar.Low, bar.Close)
		require.GreaterOrEqual(t, bar.Volume, float64(simVolumeMin))
		require.Less(t, bar.Volume, float64(simVolumeMax))
	}

	// Each bar opens where the previous one closed.
	for i := 1; i < w.Len(); i++ {
		require.Equal(t, w.Close[i-1], w.Open[i])
	}
}

func TestSimFeed_DeterministicPerSymbol(t *testing.T) {
	a := NewSimFeed(testLogger(t), WithFeedClock(fixedClock()))
	b := NewSimFeed(testLogger(t), WithFeedClock(fixedClock()))

	wa, err := a.Candles(context.Background(), "INFY", "5m", 50)
	require.NoError(t, err)
	wb, err := b.Candles(context.Background(), "INFY", "5m", 50)
	require.NoError(t, err)

	require.Equal(t, []float64(wa.Close), []float64(wb.Close))
	require.Equal(t, wa.Time, wb.Time)
}

func TestSimFeed_SymbolsAnchoredApart(t *testing.T) {
	require.GreaterOrEqual(t, basePrice("RELIANCE"), 1000.0)
	require.Less(t, basePrice("RELIANCE"), 6000.0)
	require.NotEqual(t, basePrice("RELIANCE"), basePrice("TCS"))

	f := NewSimFeed(testLogger(t), WithFeedClock(fixedClock()))
	w, err := f.Candles(context.Background(), "RELIANCE", "5m", 10)
	require.NoError(t, err)
	require.Equal(t, basePrice("RELIANCE"), w.Open[0])
}

func TestSimFeed_ConsecutiveFetchesDiffer(t *testing.T) {
	f := NewSimFeed(testLogger(t), WithFeedClock(fixedClock()))

	first, err := f.Candles(context.Background(), "SBIN", "5m", 50)
	require.NoError(t, err)
	second, err := f.Candles(context.Background(), "SBIN", "5m", 50)
	require.NoError(t, err)

	require.Equal(t, first.Open[0], second.Open[0])
	require.NotEqual(t, []float64(first.Close), []float64(second.Close))
}

func TestSimFeed_InvalidInputs(t *testing.T) {
	f := NewSimFeed(testLogger(t))

	_, err := f.Candles(context.Background(), "TCS", "bogus", 10)
	require.Error(t, err)

	_, err = f.Candles(context.Background(), "TCS", "5m", 0)
	require.Error(t, err)
}

func TestSimFeed_LastQuote(t *testing.T) {
	f := NewSimFeed(testLogger(t), WithFeedClock(fixedClock()))

	quote, err := f.LastQuote(context.Background(), "ITC")
	require.NoError(t, err)
	require.Greater(t, quote, 0.0)
	require.InEpsilon(t, basePrice("ITC"), quote, 0.05)
}
