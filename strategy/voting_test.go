package strategy

import (
	"fmt"
	"testing"

	"github.com/raykavin/niftybot/core"
	"github.com/stretchr/testify/require"
)

func stub(key string, weight float64, verdict int) Strategy {
	return Strategy{
		Key:    key,
		Name:   key,
		Weight: weight,
		Verdict: func(*core.Window) int {
			return verdict
		},
	}
}

func TestEngine_Vote_ThresholdBoundary(t *testing.T) {
	w := windowFromCloses([]float64{100, 101}, 1)

	reg := Registry{}
	keys := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("s%d", i)
		verdict := VerdictHold
		if i < 3 {
			verdict = VerdictBuy
		}
		reg[key] = stub(key, 1.0, verdict)
		keys = append(keys, key)
	}
	e := NewEngine(reg)

	// Three of ten equal weights score exactly 0.3, which does not clear
	// the strict threshold.
	combined, votes := e.Vote(w, keys)
	require.Equal(t, VerdictHold, combined)
	require.Len(t, votes, 10)

	reg["s3"] = stub("s3", 1.0, VerdictBuy)
	combined, _ = e.Vote(w, keys)
	require.Equal(t, VerdictBuy, combined)
}

func TestEngine_Vote_SellSide(t *testing.T) {
	w := windowFromCloses([]float64{100, 101}, 1)

	reg := Registry{}
	keys := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("s%d", i)
		verdict := VerdictHold
		if i < 4 {
			verdict = VerdictSell
		}
		reg[key] = stub(key, 1.0, verdict)
		keys = append(keys, key)
	}

	combined, _ := NewEngine(reg).Vote(w, keys)
	require.Equal(t, VerdictSell, combined)
}

func TestEngine_Vote_Weighted(t *testing.T) {
	w := windowFromCloses([]float64{100, 101}, 1)

	reg := Registry{
		"a": stub("a", 1.0, VerdictBuy),
		"b": stub("b", 0.8, VerdictSell),
		"c": stub("c", 1.0, VerdictBuy),
	}

	// (1.0 - 0.8 + 1.0) / 2.8 is about 0.43, above the threshold.
	combined, votes := NewEngine(reg).Vote(w, []string{"a", "b", "c"})
	require.Equal(t, VerdictBuy, combined)
	require.Equal(t, map[string]int{"a": 1, "b": -1, "c": 1}, votes)
}

func TestEngine_Vote_UnknownKeys(t *testing.T) {
	w := windowFromCloses([]float64{100, 101}, 1)

	reg := Registry{"a": stub("a", 1.0, VerdictBuy)}
	combined, votes := NewEngine(reg).Vote(w, []string{"a", "mystery"})
	require.Equal(t, VerdictBuy, combined)
	require.Equal(t, map[string]int{"a": 1, "mystery": 0}, votes)

	// Only unknown keys leaves no weight behind the vote.
	combined, votes = NewEngine(reg).Vote(w, []string{"mystery"})
	require.Equal(t, VerdictHold, combined)
	require.Equal(t, map[string]int{"mystery": 0}, votes)
}

func TestEngine_Vote_GoldenCross(t *testing.T) {
	w := windowFromCloses(goldenCrossCloses(), 5)
	e := NewEngine(NewRegistry(core.DefaultSettings().Strategy))

	combined, votes := e.Vote(w, []string{KeyMACrossover})
	require.Equal(t, VerdictBuy, combined)
	require.Equal(t, map[string]int{KeyMACrossover: VerdictBuy}, votes)

	// Three holds dilute the same cross below the threshold.
	combined, votes = e.Vote(w, DefaultKeys)
	require.Equal(t, VerdictHold, combined)
	require.Equal(t, VerdictBuy, votes[KeyMACrossover])
	require.Equal(t, VerdictHold, votes[KeyRSI])
	require.Equal(t, VerdictHold, votes[KeyMACD])
	require.Equal(t, VerdictHold, votes[KeySuperTrend])
}

func TestConfidence(t *testing.T) {
	votes := map[string]int{"a": 1, "b": 1, "c": 0, "d": -1}

	require.InDelta(t, 0.5, Confidence(votes, VerdictBuy), 1e-9)
	require.InDelta(t, 0.25, Confidence(votes, VerdictSell), 1e-9)
	require.Zero(t, Confidence(votes, VerdictHold))
	require.Zero(t, Confidence(nil, VerdictBuy))
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry(core.DefaultSettings().Strategy)
	require.Len(t, reg, 8)

	weights := map[string]float64{
		KeyMACrossover:  1.0,
		KeyEMACrossover: 1.0,
		KeyRSI:          0.8,
		KeyBollinger:    0.7,
		KeyMACD:         1.0,
		KeyVWAP:         0.9,
		KeySuperTrend:   1.2,
		KeyStochRSI:     0.8,
	}
	for key, want := range weights {
		s, ok := reg[key]
		require.True(t, ok, key)
		require.Equal(t, key, s.Key)
		require.Equal(t, want, s.Weight, key)
		require.NotNil(t, s.Verdict, key)
	}
}

func TestKeysFromNames(t *testing.T) {
	keys := KeysFromNames([]string{"Stochastic RSI", "RSI Mean Reversion"})
	require.Equal(t, []string{KeyStochRSI, KeyRSI}, keys)

	keys = KeysFromNames([]string{"RSI Mean Reversion", "RSI Divergence"})
	require.Equal(t, []string{KeyRSI}, keys)

	keys = KeysFromNames([]string{"Ichimoku Cloud"})
	require.Empty(t, keys)
}

func TestKeysFromNames_SeedRoundTrip(t *testing.T) {
	keys := KeysFromNames(SeedNames())
	require.Equal(t, []string{
		KeyMACrossover,
		KeyEMACrossover,
		KeyRSI,
		KeyBollinger,
		KeyMACD,
		KeyVWAP,
		KeySuperTrend,
		KeyStochRSI,
	}, keys)
}

func TestDefaultKeys(t *testing.T) {
	require.Equal(t, []string{KeyMACrossover, KeyRSI, KeyMACD, KeySuperTrend}, DefaultKeys)
	require.Equal(t, []string{KeyMACrossover, KeyRSI, KeyMACD}, FallbackKeys)
}
