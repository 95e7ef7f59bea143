package strategy

import (
	"testing"
	"time"

	"github.com/raykavin/niftybot/core"
	"github.com/raykavin/niftybot/indicator"
	"github.com/stretchr/testify/require"
)

var fixtureStart = time.Date(2025, 1, 15, 9, 15, 0, 0, time.UTC)

// windowFromCloses builds a RELIANCE 5m window whose highs and lows sit band
// points around each close, with constant volume.
func windowFromCloses(closes []float64, band float64) *core.Window {
	w := core.NewWindow("RELIANCE", "5m")
	for i, c := range closes {
		w.Append(core.Bar{
			Time:   fixtureStart.Add(time.Duration(i) * 5 * time.Minute),
			Open:   c,
			High:   c + band,
			Low:    c - band,
			Close:  c,
			Volume: 10000,
		})
	}
	return w
}

// appendBar extends w with one fully specified bar.
func appendBar(w *core.Window, high, low, close, volume float64) {
	w.Append(core.Bar{
		Time:   fixtureStart.Add(time.Duration(w.Len()) * 5 * time.Minute),
		Open:   close,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	})
}

// goldenCrossCloses declines half a point per bar for sixty bars, then
// recovers at the same pace just long enough for the 20 bar average to
// overtake the 50 bar average on the final bar and not a bar sooner.
func goldenCrossCloses() []float64 {
	closes := make([]float64, 0, 83)
	for i := 0; i < 60; i++ {
		closes = append(closes, 100-0.5*float64(i))
	}
	for i := 60; i < 83; i++ {
		closes = append(closes, 70.5+0.5*float64(i-59))
	}
	return closes
}

func mirrored(closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i, c := range closes {
		out[i] = 200 - c
	}
	return out
}

func TestMACrossover_GoldenCross(t *testing.T) {
	w := windowFromCloses(goldenCrossCloses(), 5)

	s := MACrossover(20, 50, false)
	require.Equal(t, KeyMACrossover, s.Key)
	require.Equal(t, "Moving Average Crossover", s.Name)
	require.Equal(t, VerdictBuy, s.Verdict(w))

	// One bar earlier the short average is still below the long one.
	require.Equal(t, VerdictHold, s.Verdict(w.Prefix(w.Len()-1)))
}

func TestMACrossover_DeathCross(t *testing.T) {
	w := windowFromCloses(mirrored(goldenCrossCloses()), 5)

	s := MACrossover(20, 50, false)
	require.Equal(t, VerdictSell, s.Verdict(w))
	require.Equal(t, VerdictHold, s.Verdict(w.Prefix(w.Len()-1)))
}

func TestMACrossover_EMAVariant(t *testing.T) {
	w := windowFromCloses(goldenCrossCloses(), 5)

	s := MACrossover(12, 26, true)
	require.Equal(t, KeyEMACrossover, s.Key)
	require.Equal(t, "EMA Crossover", s.Name)

	// The faster averages crossed during the recovery, well before the
	// final bar.
	require.Equal(t, VerdictHold, s.Verdict(w))

	short := indicator.EMA(w.Close, 12)
	long := indicator.EMA(w.Close, 26)
	cross := -1
	for i := 60; i < w.Len(); i++ {
		if short[i] > long[i] && short[i-1] <= long[i-1] {
			cross = i
			break
		}
	}
	require.NotEqual(t, -1, cross, "recovery must produce an EMA cross")
	require.Equal(t, VerdictBuy, s.Verdict(w.Prefix(cross+1)))
}

func TestRSIMeanReversion_Oversold(t *testing.T) {
	closes := make([]float64, 0, 60)
	for i := 0; i < 20; i++ {
		closes = append(closes, 100+0.1*float64(i))
	}
	top := closes[len(closes)-1]
	for i := 1; i <= 40; i++ {
		closes = append(closes, top-2*float64(i))
	}
	w := windowFromCloses(closes, 1)

	rsi := indicator.RSI(w.Close, 14)
	cross := -1
	for i := 15; i < w.Len(); i++ {
		if indicator.DefinedAll(rsi[i], rsi[i-1]) && rsi[i] < 30 && rsi[i-1] >= 30 {
			cross = i
			break
		}
	}
	require.NotEqual(t, -1, cross, "decline must cross the oversold line")

	s := RSIMeanReversion(14, 70, 30)
	require.Equal(t, VerdictBuy, s.Verdict(w.Prefix(cross+1)))
	require.Equal(t, VerdictHold, s.Verdict(w.Prefix(cross)))
}

func TestRSIMeanReversion_Overbought(t *testing.T) {
	closes := make([]float64, 0, 60)
	for i := 0; i < 20; i++ {
		closes = append(closes, 100-0.1*float64(i))
	}
	bottom := closes[len(closes)-1]
	for i := 1; i <= 40; i++ {
		closes = append(closes, bottom+2*float64(i))
	}
	w := windowFromCloses(closes, 1)

	rsi := indicator.RSI(w.Close, 14)
	cross := -1
	for i := 15; i < w.Len(); i++ {
		if indicator.DefinedAll(rsi[i], rsi[i-1]) && rsi[i] > 70 && rsi[i-1] <= 70 {
			cross = i
			break
		}
	}
	require.NotEqual(t, -1, cross, "rally must cross the overbought line")

	s := RSIMeanReversion(14, 70, 30)
	require.Equal(t, VerdictSell, s.Verdict(w.Prefix(cross+1)))
}

func TestBollingerBands_LowerBreak(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	w := windowFromCloses(closes, 1)
	appendBar(w, 100, 98, 99, 10000)

	s := BollingerBands(20, 2.0)
	require.Equal(t, VerdictBuy, s.Verdict(w))
}

func TestBollingerBands_UpperBreak(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	w := windowFromCloses(closes, 1)
	appendBar(w, 102, 100, 101, 10000)

	s := BollingerBands(20, 2.0)
	require.Equal(t, VerdictSell, s.Verdict(w))
}

func TestBollingerBands_FlatHolds(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	w := windowFromCloses(closes, 1)

	// All bands collapse onto the close, and crossings must be strict.
	s := BollingerBands(20, 2.0)
	require.Equal(t, VerdictHold, s.Verdict(w))
}

func TestMACDCross_BullishCross(t *testing.T) {
	closes := make([]float64, 0, 80)
	for i := 0; i < 50; i++ {
		closes = append(closes, 100-0.5*float64(i))
	}
	for i := 1; i <= 30; i++ {
		closes = append(closes, 75.5+0.5*float64(i))
	}
	w := windowFromCloses(closes, 1)

	macd, signal, _ := indicator.MACD(w.Close, 12, 26, 9)
	cross := -1
	for i := 34; i < w.Len(); i++ {
		if !indicator.DefinedAll(macd[i], signal[i], macd[i-1], signal[i-1]) {
			continue
		}
		if macd[i] > signal[i] && macd[i-1] <= signal[i-1] {
			cross = i
			break
		}
	}
	require.NotEqual(t, -1, cross, "recovery must produce a bullish cross")

	s := MACDCross(12, 26, 9)
	require.Equal(t, VerdictBuy, s.Verdict(w.Prefix(cross+1)))
	require.Equal(t, VerdictHold, s.Verdict(w.Prefix(cross)))
}

func TestMACDCross_BearishCross(t *testing.T) {
	closes := make([]float64, 0, 80)
	for i := 0; i < 50; i++ {
		closes = append(closes, 100+0.5*float64(i))
	}
	for i := 1; i <= 30; i++ {
		closes = append(closes, 124.5-0.5*float64(i))
	}
	w := windowFromCloses(closes, 1)

	macd, signal, _ := indicator.MACD(w.Close, 12, 26, 9)
	cross := -1
	for i := 34; i < w.Len(); i++ {
		if !indicator.DefinedAll(macd[i], signal[i], macd[i-1], signal[i-1]) {
			continue
		}
		if macd[i] < signal[i] && macd[i-1] >= signal[i-1] {
			cross = i
			break
		}
	}
	require.NotEqual(t, -1, cross, "reversal must produce a bearish cross")

	s := MACDCross(12, 26, 9)
	require.Equal(t, VerdictSell, s.Verdict(w.Prefix(cross+1)))
}

func TestMACDCross_ConstantHolds(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	w := windowFromCloses(closes, 1)

	s := MACDCross(12, 26, 9)
	require.Equal(t, VerdictHold, s.Verdict(w))
}

func TestVWAPCross_ConfirmedBreakout(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	w := windowFromCloses(closes, 0)
	appendBar(w, 120, 120, 120, 50000)

	s := VWAPCross(1.5)
	require.Equal(t, VerdictBuy, s.Verdict(w))
}

func TestVWAPCross_LowVolumeHolds(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	w := windowFromCloses(closes, 0)
	appendBar(w, 120, 120, 120, 10000)

	s := VWAPCross(1.5)
	require.Equal(t, VerdictHold, s.Verdict(w))
}

func TestVWAPCross_Breakdown(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	w := windowFromCloses(closes, 0)
	appendBar(w, 80, 80, 80, 10000)

	// Breakdowns need no volume confirmation.
	s := VWAPCross(1.5)
	require.Equal(t, VerdictSell, s.Verdict(w))
}

func TestSuperTrend_FlipDown(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	w := windowFromCloses(closes, 1)
	appendBar(w, 94, 92, 93, 10000)

	s := SuperTrend(10, 3.0)
	require.Equal(t, VerdictSell, s.Verdict(w))
}

func TestSuperTrend_FlipUp(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	w := windowFromCloses(closes, 1)
	appendBar(w, 94, 92, 93, 10000)
	appendBar(w, 106, 104, 105, 10000)

	s := SuperTrend(10, 3.0)
	require.Equal(t, VerdictBuy, s.Verdict(w))
}

func TestSuperTrend_TrendHolds(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	w := windowFromCloses(closes, 1)

	s := SuperTrend(10, 3.0)
	require.Equal(t, VerdictHold, s.Verdict(w))
}

func TestStochRSI_DoubleOversold(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	w := windowFromCloses(closes, 1)

	s := StochRSI(14, 14)
	require.Equal(t, VerdictBuy, s.Verdict(w))
}

func TestStochRSI_DoubleOverbought(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	w := windowFromCloses(closes, 1)

	s := StochRSI(14, 14)
	require.Equal(t, VerdictSell, s.Verdict(w))
}

func TestStochRSI_NeutralHolds(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
		if i%2 == 1 {
			closes[i] = 100.5
		}
	}
	w := windowFromCloses(closes, 1)

	s := StochRSI(14, 14)
	require.Equal(t, VerdictHold, s.Verdict(w))
}

func TestStrategies_ShortWindowHolds(t *testing.T) {
	w := windowFromCloses([]float64{100}, 1)
	for key, s := range NewRegistry(core.DefaultSettings().Strategy) {
		require.Equal(t, VerdictHold, s.Verdict(w), key)
	}
}

func TestStrategies_WarmupHolds(t *testing.T) {
	w := windowFromCloses([]float64{100, 101, 102}, 1)
	for key, s := range NewRegistry(core.DefaultSettings().Strategy) {
		require.Equal(t, VerdictHold, s.Verdict(w), key)
	}
}
