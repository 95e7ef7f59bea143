package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raykavin/niftybot/core"
)

func TestSignalLog_RingCap(t *testing.T) {
	l := &signalLog{}
	for i := 0; i < signalCap+10; i++ {
		l.append(core.SignalEvent{Symbol: "RELIANCE", Price: float64(i)})
	}

	require.Equal(t, signalCap, l.size())

	all := l.last("", 0)
	require.Len(t, all, signalCap)
	require.Equal(t, 10.0, all[0].Price)
	require.Equal(t, float64(signalCap+9), all[len(all)-1].Price)
}

func TestSignalLog_FilterAndLimit(t *testing.T) {
	l := &signalLog{}
	for i := 0; i < 10; i++ {
		symbol := "RELIANCE"
		if i%2 == 1 {
			symbol = "TCS"
		}
		l.append(core.SignalEvent{Symbol: symbol, Price: float64(i)})
	}

	reliance := l.last("RELIANCE", 0)
	require.Len(t, reliance, 5)
	require.Equal(t, 0.0, reliance[0].Price)
	require.Equal(t, 8.0, reliance[4].Price)

	recent := l.last("RELIANCE", 2)
	require.Len(t, recent, 2)
	require.Equal(t, 6.0, recent[0].Price)
	require.Equal(t, 8.0, recent[1].Price)

	require.Empty(t, l.last("INFY", 0))
}
