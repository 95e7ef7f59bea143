package exchange

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/raykavin/niftybot/core"
	"github.com/raykavin/niftybot/logger"
)

// Shape of the simulated walk.
const (
	simVolatility = 0.001
	simBaseFloor  = 1000
	simBaseSpread = 5000
	simVolumeMin  = 1000
	simVolumeMax  = 100000
)

// SimFeed serves synthetic OHLCV windows built from a geometric random walk.
// The base price is derived from the symbol name, so a symbol always quotes
// in the same price region, while consecutive fetches produce fresh walks.
type SimFeed struct {
	log logger.Logger
	now func() time.Time

	mu      sync.Mutex
	fetches map[string]int64
}

type FeedOption func(*SimFeed)

// WithFeedClock overrides the bar timestamp source
func WithFeedClock(now func() time.Time) FeedOption {
	return func(f *SimFeed) {
		f.now = now
	}
}

func NewSimFeed(log logger.Logger, options ...FeedOption) *SimFeed {
	f := &SimFeed{
		log:     log,
		now:     time.Now,
		fetches: make(map[string]int64),
	}
	for _, option := range options {
		option(f)
	}
	return f
}

func symbolHash(symbol string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return h.Sum64()
}

// basePrice anchors a symbol to a stable region in [1000, 6000)
func basePrice(symbol string) float64 {
	return float64(simBaseFloor + symbolHash(symbol)%simBaseSpread)
}

// Candles returns limit bars ending at the current time, spaced by the
// given timeframe. Every call advances a per-symbol sequence, so repeated
// fetches see the market move while staying anchored to the same base.
func (f *SimFeed) Candles(ctx context.Context, symbol, timeframe string, limit int) (*core.Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("invalid candle limit %d", limit)
	}

	step, err := str2duration.ParseDuration(timeframe)
	if err != nil {
		return nil, fmt.Errorf("parse timeframe %q: %w", timeframe, err)
	}

	f.mu.Lock()
	f.fetches[symbol]++
	seq := f.fetches[symbol]
	end := f.now()
	f.mu.Unlock()

	rng := rand.New(rand.NewSource(int64(symbolHash(symbol)) + seq))

	w := core.NewWindow(symbol, timeframe)
	price := basePrice(symbol)
	at := end.Add(-time.Duration(limit-1) * step)

	for i := 0; i < limit; i++ {
		next := price * math.Exp(rng.NormFloat64()*simVolatility)
		high := math.Max(price, next) * (1 + rng.Float64()*0.01)
		low := math.Min(price, next) * (1 - rng.Float64()*0.01)
		volume := float64(simVolumeMin + rng.Intn(simVolumeMax-simVolumeMin))

		w.Append(core.Bar{
			Time:   at,
			Open:   price,
			High:   high,
			Low:    low,
			Close:  next,
			Volume: volume,
		})

		price = next
		at = at.Add(step)
	}

	return w, nil
}

// LastQuote returns the close of the freshest simulated bar
func (f *SimFeed) LastQuote(ctx context.Context, symbol string) (float64, error) {
	w, err := f.Candles(ctx, symbol, "1m", 2)
	if err != nil {
		return 0, err
	}
	return w.LastPrice(), nil
}
