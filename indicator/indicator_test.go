package indicator

import (
	"math"
	"testing"

	"github.com/raykavin/niftybot/core"
	"github.com/stretchr/testify/require"
)

func series(values ...float64) core.Series[float64] {
	return core.Series[float64](values)
}

func constant(value float64, n int) core.Series[float64] {
	out := make(core.Series[float64], n)
	for i := range out {
		out[i] = value
	}
	return out
}

func ramp(start, step float64, n int) core.Series[float64] {
	out := make(core.Series[float64], n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func offset(s core.Series[float64], delta float64) core.Series[float64] {
	out := make(core.Series[float64], len(s))
	for i := range s {
		out[i] = s[i] + delta
	}
	return out
}

func TestDefined(t *testing.T) {
	require.True(t, Defined(1.5))
	require.True(t, Defined(0))
	require.False(t, Defined(math.NaN()))

	require.True(t, DefinedAll(1, 2, 3))
	require.False(t, DefinedAll(1, math.NaN(), 3))
}

func TestSMA(t *testing.T) {
	sma := SMA(series(1, 2, 3, 4, 5, 6), 3)

	require.Len(t, sma, 6)
	require.False(t, Defined(sma[0]))
	require.False(t, Defined(sma[1]))
	require.Equal(t, 2.0, sma[2])
	require.Equal(t, 5.0, sma[5])
}

func TestSMA_ShortInput(t *testing.T) {
	sma := SMA(series(1, 2), 3)

	require.Len(t, sma, 2)
	require.False(t, Defined(sma[0]))
	require.False(t, Defined(sma[1]))
}

func TestEMA(t *testing.T) {
	ema := EMA(series(1, 2, 3, 4), 3)

	require.False(t, Defined(ema[1]))
	require.Equal(t, 2.0, ema[2]) // seeded by the first 3-mean
	require.InDelta(t, 3.0, ema[3], 1e-9)

	flat := EMA(constant(5, 10), 3)
	for i := 2; i < 10; i++ {
		require.Equal(t, 5.0, flat[i])
	}
}

func TestRSI(t *testing.T) {
	gains := RSI(ramp(100, 1, 20), 14)
	require.False(t, Defined(gains[13]))
	require.InDelta(t, 100.0, gains[14], 1e-9)
	require.InDelta(t, 100.0, gains[19], 1e-9)

	losses := RSI(ramp(100, -1, 20), 14)
	require.InDelta(t, 0.0, losses[19], 1e-9)
}

func TestATR(t *testing.T) {
	n := 20
	close := constant(100, n)
	high := offset(close, 5)
	low := offset(close, -5)

	atr := ATR(high, low, close, 14)
	require.False(t, Defined(atr[13]))
	require.InDelta(t, 10.0, atr[14], 1e-9)
	require.InDelta(t, 10.0, atr[19], 1e-9)
}

func TestBB(t *testing.T) {
	upper, middle, lower := BB(constant(50, 25), 20, 2, TypeSMA)

	require.False(t, DefinedAll(upper[18], middle[18], lower[18]))
	for i := 19; i < 25; i++ {
		require.InDelta(t, 50.0, upper[i], 1e-9)
		require.InDelta(t, 50.0, middle[i], 1e-9)
		require.InDelta(t, 50.0, lower[i], 1e-9)
	}
}

func TestMACD(t *testing.T) {
	macd, signal, hist := MACD(constant(100, 40), 12, 26, 9)

	// warmup is slow+signal-2 positions for all three outputs
	require.False(t, Defined(macd[32]))
	require.False(t, Defined(signal[32]))
	require.False(t, Defined(hist[32]))

	require.InDelta(t, 0.0, macd[33], 1e-9)
	require.InDelta(t, 0.0, signal[33], 1e-9)
	require.InDelta(t, 0.0, hist[39], 1e-9)
}

func TestStoch(t *testing.T) {
	n := 30
	close := ramp(100, 1, n)
	high := offset(close, 1)
	low := offset(close, -1)

	k, d := Stoch(high, low, close, 14, 3, 3)

	require.False(t, Defined(k[16]))
	require.False(t, Defined(d[16]))

	// a steady climb keeps %K pinned at 14/15 of the range
	for i := 17; i < n; i++ {
		require.InDelta(t, 100.0*14/15, k[i], 1e-9)
		require.InDelta(t, 100.0*14/15, d[i], 1e-9)
	}
}

func TestSuperTrend(t *testing.T) {
	var high, low, close core.Series[float64]
	for i := 0; i < 20; i++ {
		close = append(close, 100)
		high = append(high, 101)
		low = append(low, 99)
	}
	// breakdown bar through the lower band
	close = append(close, 93)
	high = append(high, 94)
	low = append(low, 92)

	line, direction := SuperTrend(high, low, close, 10, 3)

	require.False(t, Defined(direction[9]))
	require.Equal(t, 1.0, direction[10]) // seeded bullish
	require.Equal(t, 1.0, direction[19])
	require.Equal(t, 94.0, line[19]) // lower band while bullish

	require.Equal(t, -1.0, direction[20])
	// ATR moves to (2*9+8)/10 = 2.6, so the line flips to 93 + 3*2.6
	require.InDelta(t, 100.8, line[20], 1e-9)
}

func TestVWAP(t *testing.T) {
	high := series(12, 24)
	low := series(8, 16)
	close := series(10, 20)
	volume := series(100, 300)

	vwap := VWAP(high, low, close, volume)
	require.Equal(t, 10.0, vwap[0])
	require.Equal(t, 17.5, vwap[1])
}

func TestVWAP_ZeroVolume(t *testing.T) {
	vwap := VWAP(series(12), series(8), series(10), series(0))
	require.False(t, Defined(vwap[0]))
}
