package exchange

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raykavin/niftybot/core"
)

var errFeedDown = errors.New("feed down")

// flakyFeeder fails the first failures calls of each method, then succeeds.
type flakyFeeder struct {
	failures int
	calls    int
}

func (f *flakyFeeder) Candles(_ context.Context, symbol, timeframe string, limit int) (*core.Window, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errFeedDown
	}

	w := core.NewWindow(symbol, timeframe)
	for i := 0; i < limit; i++ {
		w.Append(core.Bar{Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000})
	}
	return w, nil
}

func (f *flakyFeeder) LastQuote(context.Context, string) (float64, error) {
	f.calls++
	if f.calls <= f.failures {
		return 0, errFeedDown
	}
	return 100, nil
}

func fastRetry(feeder core.Feeder, t *testing.T) *RetryFeeder {
	return NewRetryFeeder(feeder, testLogger(t), WithRetryPolicy(time.Millisecond, 2*time.Millisecond, 3))
}

func TestRetryFeeder_RecoversAfterTransientFailures(t *testing.T) {
	flaky := &flakyFeeder{failures: 2}
	r := fastRetry(flaky, t)

	w, err := r.Candles(context.Background(), "TCS", "5m", 10)
	require.NoError(t, err)
	require.Equal(t, 10, w.Len())
	require.Equal(t, 3, flaky.calls)
}

func TestRetryFeeder_GivesUp(t *testing.T) {
	flaky := &flakyFeeder{failures: 100}
	r := fastRetry(flaky, t)

	_, err := r.Candles(context.Background(), "TCS", "5m", 10)
	require.ErrorIs(t, err, errFeedDown)
	require.Contains(t, err.Error(), "after 3 attempts")
	require.Equal(t, 3, flaky.calls)
}

func TestRetryFeeder_QuotePassthrough(t *testing.T) {
	flaky := &flakyFeeder{failures: 1}
	r := fastRetry(flaky, t)

	quote, err := r.LastQuote(context.Background(), "TCS")
	require.NoError(t, err)
	require.Equal(t, 100.0, quote)
}

func TestRetryFeeder_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	flaky := &flakyFeeder{failures: 100}
	r := fastRetry(flaky, t)

	_, err := r.Candles(ctx, "TCS", "5m", 10)
	require.ErrorIs(t, err, context.Canceled)
}
