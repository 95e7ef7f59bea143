// Package engine implements the periodic scanner that turns candle windows
// into weighted strategy votes, orders and managed positions. One Engine
// owns the whole trade lifecycle: every entry it opens is watched by the
// risk manager's exit rules on the following ticks, and stopping the engine
// flattens whatever is still open.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raykavin/niftybot/core"
	"github.com/raykavin/niftybot/indicator"
	"github.com/raykavin/niftybot/logger"
	"github.com/raykavin/niftybot/metric"
	"github.com/raykavin/niftybot/risk"
	"github.com/raykavin/niftybot/strategy"
)

// ErrAlreadyRunning is returned by Run when the scan loop is active
var ErrAlreadyRunning = errors.New("engine already running")

const (
	// atrPeriod is the lookback of the volatility estimate behind stops
	// and position sizing.
	atrPeriod = 14

	// minWindowBars is the smallest window the strategies can vote on.
	minWindowBars = 50

	// faultPause replaces the scan interval after a failed cycle.
	faultPause = 10 * time.Second

	// idlePause is the nap between market-hours checks while closed.
	idlePause = time.Minute
)

// Engine is the trading scan loop
type Engine struct {
	settings core.Settings
	feeder   core.Feeder
	broker   core.Broker
	riskman  *risk.Manager
	voting   *strategy.Engine
	log      logger.Logger

	storage    core.TradeStorage
	collectors *metric.EngineCollectors
	mode       string
	now        func() time.Time

	signals *signalLog
	feed    *SignalFeed

	// entryMu serializes the gate-submit-open sequence so concurrent
	// symbol scans cannot overshoot the daily limits or the capital.
	entryMu sync.Mutex

	mu         sync.RWMutex
	running    bool
	activeKeys []string
	scanCount  int64
	lastScan   time.Time
	stopCh     chan struct{}
	doneCh     chan struct{}
}

type Option func(*Engine)

// WithStorage persists executed trades and sources the active strategy set
func WithStorage(storage core.TradeStorage) Option {
	return func(e *Engine) {
		e.storage = storage
	}
}

// WithCollectors exports scan and portfolio metrics
func WithCollectors(collectors *metric.EngineCollectors) Option {
	return func(e *Engine) {
		e.collectors = collectors
	}
}

// WithMode sets the execution mode label reported by Status
func WithMode(mode string) Option {
	return func(e *Engine) {
		e.mode = mode
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func New(settings core.Settings, feeder core.Feeder, broker core.Broker,
	riskman *risk.Manager, voting *strategy.Engine, log logger.Logger, options ...Option) *Engine {

	e := &Engine{
		settings:   settings,
		feeder:     feeder,
		broker:     broker,
		riskman:    riskman,
		voting:     voting,
		log:        log,
		mode:       core.ModeSimulation,
		now:        time.Now,
		signals:    &signalLog{},
		feed:       NewSignalFeed(),
		activeKeys: strategy.DefaultKeys,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Run executes scan cycles until Stop is called or ctx is cancelled. On the
// way out the book is flattened with reason ENGINE_STOP. Only one loop may
// run at a time.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.running = true
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	e.stopCh = stopCh
	e.doneCh = doneCh
	e.mu.Unlock()

	e.feed.Start()
	e.log.WithFields(map[string]any{
		"mode":     e.mode,
		"symbols":  len(e.settings.Symbols),
		"interval": e.settings.ScanInterval.String(),
	}).Info("engine started")

	defer func() {
		e.closeAllPositions()
		e.feed.Stop()

		e.mu.Lock()
		e.running = false
		e.stopCh = nil
		e.mu.Unlock()

		close(doneCh)
		e.log.Info("engine stopped")
	}()

	for {
		pause := e.settings.ScanInterval

		if e.marketOpen(e.now()) {
			if err := e.tick(ctx); err != nil {
				e.log.WithError(err).Error("scan cycle failed")
				pause = faultPause
			}
		} else {
			e.log.Debug("market closed, standing by")
			pause = idlePause
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-time.After(pause):
		}
	}
}

// Stop signals the loop to flatten the book and exit, blocking until the
// shutdown completes. Stopping an idle engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running || e.stopCh == nil {
		e.mu.Unlock()
		return
	}
	stopCh, doneCh := e.stopCh, e.doneCh
	e.stopCh = nil
	e.mu.Unlock()

	close(stopCh)
	<-doneCh
}

// tick refreshes the active strategy set and scans every symbol
// concurrently. A symbol failure is contained to that symbol; tick reports
// it so the loop can back off before the next cycle.
func (e *Engine) tick(ctx context.Context) error {
	e.reloadStrategies(ctx)

	var failures atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for _, symbol := range e.settings.Symbols {
		symbol := symbol
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					e.log.WithField("symbol", symbol).Errorf("scan panic: %v", r)
					failures.Add(1)
				}
			}()

			if err := e.processSymbol(gctx, symbol); err != nil {
				e.log.WithField("symbol", symbol).WithError(err).Error("symbol scan failed")
				failures.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	e.mu.Lock()
	e.scanCount++
	scan := e.scanCount
	e.lastScan = e.now()
	e.mu.Unlock()

	snap := e.riskman.Snapshot()
	e.collectors.ObserveScan()
	e.collectors.SetPortfolio(snap.OpenPositions, snap.CurrentCapital, snap.DailyPnL)

	e.log.WithFields(map[string]any{
		"scan":      scan,
		"positions": snap.OpenPositions,
		"capital":   snap.CurrentCapital,
		"daily_pnl": snap.DailyPnL,
	}).Debug("scan cycle complete")

	if n := failures.Load(); n > 0 {
		return fmt.Errorf("%d of %d symbols failed", n, len(e.settings.Symbols))
	}
	return nil
}

// processSymbol runs the exit-before-entry pipeline for one symbol,
// appending exactly one signal event describing the outcome. Transient data
// failures skip the symbol without touching any state.
func (e *Engine) processSymbol(ctx context.Context, symbol string) error {
	ctx, cancel := context.WithTimeout(ctx, e.ioTimeout())
	defer cancel()

	w, err := e.feeder.Candles(ctx, symbol, e.settings.Timeframe, e.settings.WindowSize)
	if err != nil {
		e.log.WithField("symbol", symbol).WithError(err).Warn("candle fetch failed, skipping")
		return nil
	}
	if w.Len() < minWindowBars {
		e.log.WithField("symbol", symbol).Debugf("window too short: %d bars", w.Len())
		return nil
	}

	price := w.LastPrice()
	atr := lastATR(w)

	// Exit rules run before any entry logic, so a symbol never exits and
	// re-enters within one tick.
	if _, ok := e.riskman.Position(symbol); ok {
		if exit, reason := e.riskman.ShouldExit(symbol, price); exit {
			return e.closePosition(ctx, symbol, price, reason)
		}
	}

	verdict, votes := e.voting.Vote(w, e.ActiveStrategyKeys())

	event := core.SignalEvent{
		Time:              e.now(),
		Symbol:            symbol,
		Verdict:           verdict,
		Label:             core.VerdictLabel(verdict),
		Price:             price,
		Votes:             votes,
		Confidence:        strategy.Confidence(votes, verdict),
		SuggestedQuantity: e.riskman.PositionSize(price, atr),
	}
	if verdict == strategy.VerdictBuy {
		event.StopLoss = price - atr*2
		event.TakeProfit = price + atr*4
	} else {
		event.StopLoss = price + atr*2
		event.TakeProfit = price - atr*4
	}

	if verdict == strategy.VerdictHold {
		event.Action = core.ActionHold
		e.publish(event)
		return nil
	}

	e.entryMu.Lock()
	defer e.entryMu.Unlock()

	if ok, reason := e.riskman.CanTrade(); !ok {
		e.log.WithFields(map[string]any{"symbol": symbol, "reason": reason}).Warn("entry blocked")
		event.Action = core.ActionBlocked(reason)
		e.publish(event)
		return nil
	}

	if _, ok := e.riskman.Position(symbol); ok {
		event.Action = core.ActionAlreadyInPosition
		e.publish(event)
		return nil
	}

	// Resize against the capital left after any entries that won the lock
	// earlier in this tick.
	event.SuggestedQuantity = e.riskman.PositionSize(price, atr)
	if event.SuggestedQuantity <= 0 {
		event.Action = core.ActionBlocked(core.BlockReasonNoCapital)
		e.publish(event)
		return nil
	}

	side := core.EntrySide(verdict)
	if err := e.broker.SubmitOrder(ctx, side, symbol, event.SuggestedQuantity, price); err != nil {
		e.log.WithFields(map[string]any{"symbol": symbol, "side": side}).
			WithError(err).Error("entry order rejected")
		event.Action = core.ActionExecutionFailed
		e.publish(event)
		return nil
	}

	position, err := e.riskman.OpenPosition(symbol, side.Direction(), event.SuggestedQuantity, price, atr)
	if err != nil {
		return fmt.Errorf("open position %s: %w", symbol, err)
	}

	e.recordTrade(ctx, symbol, side, position.Quantity, price, core.TradeStatusExecuted, 0)

	event.Action = core.ActionTradeExecuted
	event.StopLoss = position.StopLoss
	event.TakeProfit = position.TakeProfit
	e.publish(event)

	e.log.WithFields(map[string]any{
		"symbol":   symbol,
		"side":     side,
		"quantity": position.Quantity,
		"price":    price,
		"stop":     position.StopLoss,
		"target":   position.TakeProfit,
	}).Info("position opened")

	return nil
}

// closePosition submits the flattening order and realizes the position.
// The internal book closes even when the order is rejected, so the risk
// manager never tracks an exposure the engine has given up on.
func (e *Engine) closePosition(ctx context.Context, symbol string, price float64, reason string) error {
	position, ok := e.riskman.Position(symbol)
	if !ok {
		return core.ErrNoPosition
	}

	side := position.ExitSide()
	if err := e.broker.SubmitOrder(ctx, side, symbol, position.Quantity, price); err != nil {
		e.log.WithField("symbol", symbol).WithError(err).Error("exit order rejected, closing book anyway")
	}

	trade, err := e.riskman.ClosePosition(symbol, price, reason)
	if err != nil {
		return fmt.Errorf("close position %s: %w", symbol, err)
	}

	e.recordTrade(ctx, symbol, side, trade.Quantity, price, core.TradeStatusExternalClosed, trade.ProfitLoss)

	e.publish(core.SignalEvent{
		Time:    e.now(),
		Symbol:  symbol,
		Verdict: strategy.VerdictHold,
		Label:   core.VerdictLabel(strategy.VerdictHold),
		Price:   price,
		Votes:   map[string]int{},
		Action:  core.ActionPositionClosed(reason, trade.ProfitLoss),
	})

	e.log.WithFields(map[string]any{
		"symbol": symbol,
		"reason": reason,
		"pnl":    trade.ProfitLoss,
	}).Info("position closed")

	return nil
}

// closeAllPositions flattens the book on shutdown. Symbols without a live
// quote close at their entry price so the book always empties.
func (e *Engine) closeAllPositions() {
	positions := e.riskman.OpenPositions()
	if len(positions) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.ioTimeout())
	defer cancel()

	e.log.Infof("closing %d open positions", len(positions))
	for _, position := range positions {
		price, err := e.feeder.LastQuote(ctx, position.Symbol)
		if err != nil {
			e.log.WithField("symbol", position.Symbol).
				WithError(err).Warn("no quote for close, using entry price")
			price = position.EntryPrice
		}

		if err := e.broker.SubmitOrder(ctx, position.ExitSide(), position.Symbol, position.Quantity, price); err != nil {
			e.log.WithField("symbol", position.Symbol).
				WithError(err).Error("exit order rejected, closing book anyway")
		}

		trade, err := e.riskman.ClosePosition(position.Symbol, price, core.ExitReasonEngineStop)
		if err != nil {
			e.log.WithField("symbol", position.Symbol).WithError(err).Error("position not closed")
			continue
		}

		e.recordTrade(ctx, position.Symbol, position.ExitSide(), trade.Quantity, price,
			core.TradeStatusExternalClosed, trade.ProfitLoss)

		e.log.WithFields(map[string]any{
			"symbol": position.Symbol,
			"pnl":    trade.ProfitLoss,
		}).Info("position closed on shutdown")
	}
}

// reloadStrategies refreshes the active strategy set from storage. Without
// storage, or when storage holds nothing usable, the built-in default set
// applies; a storage failure selects the conservative fallback trio.
func (e *Engine) reloadStrategies(ctx context.Context) {
	keys := strategy.DefaultKeys

	if e.storage != nil {
		names, err := e.storage.ActiveStrategyNames(ctx)
		switch {
		case err != nil:
			e.log.WithError(err).Warn("strategy reload failed, using fallback set")
			keys = strategy.FallbackKeys
		case len(names) > 0:
			if mapped := strategy.KeysFromNames(names); len(mapped) > 0 {
				keys = mapped
			}
		}
	}

	e.mu.Lock()
	e.activeKeys = keys
	e.mu.Unlock()
}

// recordTrade persists an executed order. Persistence failures are logged
// and never interrupt the scan.
func (e *Engine) recordTrade(ctx context.Context, symbol string, side core.SideType,
	quantity, price float64, status string, pnl float64) {

	if e.storage == nil {
		return
	}

	trade := &core.TradeRecord{
		UserID:     e.settings.UserID,
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		Price:      price,
		Status:     status,
		ProfitLoss: pnl,
		CreatedAt:  e.now(),
	}
	if err := e.storage.CreateTrade(ctx, trade); err != nil {
		e.log.WithField("symbol", symbol).WithError(err).Error("trade not persisted")
	}
}

// publish appends the event to the ring and fans it out
func (e *Engine) publish(event core.SignalEvent) {
	e.signals.append(event)
	e.feed.Publish(event)
	e.collectors.ObserveSignal(event.Action)
}

// marketOpen reports whether t falls inside the configured trading session
func (e *Engine) marketOpen(t time.Time) bool {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}

	minutes := t.Hour()*60 + t.Minute()
	openAt := e.settings.MarketOpenHour*60 + e.settings.MarketOpenMinute
	closeAt := e.settings.MarketCloseHour*60 + e.settings.MarketCloseMinute
	return minutes >= openAt && minutes <= closeAt
}

// ioTimeout bounds each symbol's feed and broker calls to a slice of the
// scan interval so one slow symbol cannot starve the cycle.
func (e *Engine) ioTimeout() time.Duration {
	timeout := e.settings.ScanInterval * 4 / 5
	if timeout < time.Second {
		return time.Second
	}
	return timeout
}

// lastATR returns the current volatility estimate. While the indicator is
// still warming up, two percent of the last close stands in.
func lastATR(w *core.Window) float64 {
	atr := indicator.ATR(w.High, w.Low, w.Close, atrPeriod).Last(0)
	if !indicator.Defined(atr) {
		return w.LastPrice() * 0.02
	}
	return atr
}

// ActiveStrategyKeys returns the strategy keys voting in the current tick
func (e *Engine) ActiveStrategyKeys() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	keys := make([]string, len(e.activeKeys))
	copy(keys, e.activeKeys)
	return keys
}

// Signals returns up to limit retained signal events, oldest first. An
// empty symbol matches every event.
func (e *Engine) Signals(symbol string, limit int) []core.SignalEvent {
	return e.signals.last(symbol, limit)
}

// SubscribeSignals registers a consumer for a symbol's signal events.
// Subscriptions must be in place before Run starts the feed.
func (e *Engine) SubscribeSignals(symbol string, consumer FeedConsumer) {
	e.feed.Subscribe(symbol, consumer)
}

// Status reports a point-in-time snapshot of the engine and its book
func (e *Engine) Status() Status {
	snap := e.riskman.Snapshot()

	e.mu.RLock()
	defer e.mu.RUnlock()

	return Status{
		Running:          e.running,
		Mode:             e.mode,
		MarketOpen:       e.marketOpen(e.now()),
		Symbols:          e.settings.Symbols,
		ActiveStrategies: append([]string(nil), e.activeKeys...),
		ScanCount:        e.scanCount,
		LastScan:         e.lastScan,
		OpenPositions:    snap.OpenPositions,
		CurrentCapital:   snap.CurrentCapital,
		DailyPnL:         snap.DailyPnL,
		DailyTrades:      snap.DailyTrades,
		SignalCount:      e.signals.size(),
	}
}
