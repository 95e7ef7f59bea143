package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/jpillora/backoff"

	"github.com/raykavin/niftybot/core"
	"github.com/raykavin/niftybot/logger"
)

// RetryFeeder decorates a Feeder with bounded retries and jittered
// exponential backoff, for data sources that fail transiently.
type RetryFeeder struct {
	feeder core.Feeder
	log    logger.Logger

	min      time.Duration
	max      time.Duration
	attempts int
}

type RetryOption func(*RetryFeeder)

// WithRetryPolicy overrides the backoff bounds and the attempt budget
func WithRetryPolicy(min, max time.Duration, attempts int) RetryOption {
	return func(r *RetryFeeder) {
		r.min = min
		r.max = max
		r.attempts = attempts
	}
}

func NewRetryFeeder(feeder core.Feeder, log logger.Logger, options ...RetryOption) *RetryFeeder {
	r := &RetryFeeder{
		feeder:   feeder,
		log:      log,
		min:      500 * time.Millisecond,
		max:      10 * time.Second,
		attempts: 3,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Candles implements core.Feeder
func (r *RetryFeeder) Candles(ctx context.Context, symbol, timeframe string, limit int) (*core.Window, error) {
	var w *core.Window
	err := r.retry(ctx, "candles", symbol, func() error {
		var err error
		w, err = r.feeder.Candles(ctx, symbol, timeframe, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// LastQuote implements core.Feeder
func (r *RetryFeeder) LastQuote(ctx context.Context, symbol string) (float64, error) {
	var quote float64
	err := r.retry(ctx, "quote", symbol, func() error {
		var err error
		quote, err = r.feeder.LastQuote(ctx, symbol)
		return err
	})
	if err != nil {
		return 0, err
	}
	return quote, nil
}

func (r *RetryFeeder) retry(ctx context.Context, op, symbol string, fn func() error) error {
	policy := &backoff.Backoff{
		Min:    r.min,
		Max:    r.max,
		Factor: 2,
		Jitter: true,
	}

	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == r.attempts {
			break
		}

		wait := policy.Duration()
		r.log.WithError(err).Warnf("%s %s failed, retrying in %s", op, symbol, wait)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%s %s after %d attempts: %w", op, symbol, r.attempts, err)
}
