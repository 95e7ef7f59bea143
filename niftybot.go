// Package niftybot assembles the scan engine with its market data,
// execution, persistence and notification ports into a runnable bot.
package niftybot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aybabtme/uniplot/histogram"

	"github.com/raykavin/niftybot/core"
	"github.com/raykavin/niftybot/engine"
	"github.com/raykavin/niftybot/exchange"
	"github.com/raykavin/niftybot/logger"
	"github.com/raykavin/niftybot/metric"
	"github.com/raykavin/niftybot/notification"
	"github.com/raykavin/niftybot/risk"
	"github.com/raykavin/niftybot/storage"
	"github.com/raykavin/niftybot/strategy"
)

// DefaultLog is the default logger instance
var DefaultLog logger.Logger

const defaultDatabase = "niftybot.db"

const (
	bootstrapIterations = 10000
	bootstrapConfidence = 0.95
)

// Bot represents the assembled trading bot
type Bot struct {
	settings core.Settings
	log      logger.Logger

	exchange   core.Exchange
	feeder     core.Feeder
	broker     core.Broker
	store      core.TradeStorage
	collectors *metric.EngineCollectors
	notifiers  []core.Notifier
	telegram   core.NotifierWithStart

	riskman *risk.Manager
	voting  *strategy.Engine
	engine  *engine.Engine

	mode string
}

// NewBot creates a bot from settings. Without options it scans simulated
// market data, fills orders against a simulated broker and persists to a
// local BuntDB file.
func NewBot(ctx context.Context, settings core.Settings, options ...Option) (*Bot, error) {
	bot := &Bot{
		settings: settings,
		log:      DefaultLog,
		mode:     core.ModeSimulation,
	}

	// Apply custom options
	for _, option := range options {
		option(bot)
	}

	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	// A live exchange replaces both simulation ports; its feeder side is
	// wrapped with the retry decorator.
	if bot.exchange != nil {
		bot.feeder = exchange.NewRetryFeeder(bot.exchange, bot.log)
		bot.broker = bot.exchange
		bot.mode = core.ModeLive
	}
	if bot.feeder == nil {
		bot.feeder = exchange.NewSimFeed(bot.log)
	}
	if bot.broker == nil {
		bot.broker = exchange.NewSimBroker(bot.log)
	}

	if err := initializeStorage(ctx, bot); err != nil {
		return nil, err
	}

	bot.riskman = risk.NewManager(settings.InitialCapital, settings.Risk)
	bot.voting = strategy.NewEngine(strategy.NewRegistry(settings.Strategy))
	bot.engine = engine.New(settings, bot.feeder, bot.broker, bot.riskman, bot.voting, bot.log,
		engine.WithStorage(bot.store),
		engine.WithCollectors(bot.collectors),
		engine.WithMode(bot.mode),
	)

	// Initialize notification systems
	if err := initializeNotifications(bot, settings); err != nil {
		return nil, err
	}
	bot.SubscribeSignals(bot.notifiers...)

	return bot, nil
}

// validateSettings rejects configurations the engine cannot run with
func validateSettings(settings core.Settings) error {
	if len(settings.Symbols) == 0 {
		return errors.New("no symbols configured")
	}
	for _, symbol := range settings.Symbols {
		if strings.TrimSpace(symbol) == "" {
			return fmt.Errorf("invalid symbol: %q", symbol)
		}
	}
	if settings.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %.2f", settings.InitialCapital)
	}
	if settings.ScanInterval <= 0 {
		return errors.New("scan interval must be positive")
	}
	return nil
}

// initializeStorage sets up the bot's data storage and seeds the strategy
// configuration rows
func initializeStorage(ctx context.Context, bot *Bot) error {
	if bot.store == nil {
		store, err := storage.NewFromFile(defaultDatabase)
		if err != nil {
			return fmt.Errorf("open default storage: %w", err)
		}
		bot.store = store
	}

	if err := bot.store.SeedStrategies(ctx, strategy.SeedNames()); err != nil {
		return fmt.Errorf("seed strategies: %w", err)
	}
	return nil
}

// initializeNotifications sets up notification systems like Telegram
func initializeNotifications(bot *Bot, settings core.Settings) error {
	if !settings.Telegram.Enabled {
		return nil
	}

	telegram, err := notification.NewTelegram(bot.engine, bot.riskman, settings, bot.log)
	if err != nil {
		return err
	}

	bot.telegram = telegram
	bot.SubscribeSignals(telegram)
	return nil
}

// SubscribeSignals subscribes the given notifiers to signal events for all symbols
func (bot *Bot) SubscribeSignals(notifiers ...core.Notifier) {
	for _, symbol := range bot.settings.Symbols {
		for _, notifier := range notifiers {
			bot.engine.SubscribeSignals(symbol, notifier.OnSignal)
		}
	}
}

// Engine returns the scan engine
func (bot *Bot) Engine() *engine.Engine {
	return bot.engine
}

// RiskManager returns the money-management state
func (bot *Bot) RiskManager() *risk.Manager {
	return bot.riskman
}

// Run starts the notifier and scans until ctx is cancelled or Stop is called
func (bot *Bot) Run(ctx context.Context) error {
	if bot.telegram != nil {
		bot.telegram.Start()
	}

	bot.log.WithFields(map[string]any{
		"mode":    bot.mode,
		"symbols": len(bot.settings.Symbols),
	}).Info("starting engine")

	return bot.engine.Run(ctx)
}

// Stop ends the scan loop and flattens the book
func (bot *Bot) Stop() {
	bot.engine.Stop()
}

// Summary displays open positions, session metrics, the distribution of
// closed-trade returns and bootstrap confidence intervals in stdout
func (bot *Bot) Summary() {
	bot.riskman.WriteReport(os.Stdout)

	returns := closedTradeReturns(bot.riskman.ClosedTrades())
	if len(returns) == 0 {
		return
	}

	fmt.Println("------ RETURN -------")
	returnsPercent := make([]float64, len(returns))
	for i, r := range returns {
		returnsPercent[i] = r * 100
	}
	hist := histogram.Hist(15, returnsPercent)
	if err := histogram.Fprint(os.Stdout, hist, histogram.Linear(10)); err != nil {
		bot.log.WithError(err).Error("failed to render histogram")
	}
	fmt.Println()

	fmt.Printf("------ CONFIDENCE INTERVAL (%.0f%%) -------\n", bootstrapConfidence*100)
	returnsInterval := metric.Bootstrap(returns, metric.Mean, bootstrapIterations, bootstrapConfidence)
	payoffInterval := metric.Bootstrap(returns, metric.Payoff, bootstrapIterations, bootstrapConfidence)
	profitFactorInterval := metric.Bootstrap(returns, metric.ProfitFactor, bootstrapIterations, bootstrapConfidence)

	fmt.Printf("RETURN:      %.2f%% (%.2f%% ~ %.2f%%)\n",
		returnsInterval.Mean*100, returnsInterval.Lower*100, returnsInterval.Upper*100)
	fmt.Printf("PAYOFF:      %.2f (%.2f ~ %.2f)\n",
		payoffInterval.Mean, payoffInterval.Lower, payoffInterval.Upper)
	fmt.Printf("PROF.FACTOR: %.2f (%.2f ~ %.2f)\n",
		profitFactorInterval.Mean, profitFactorInterval.Lower, profitFactorInterval.Upper)
}

// closedTradeReturns converts closed trades to returns on entry cost
func closedTradeReturns(trades []core.ClosedTrade) []float64 {
	returns := make([]float64, 0, len(trades))
	for _, trade := range trades {
		cost := trade.EntryPrice * trade.Quantity
		if cost > 0 {
			returns = append(returns, trade.ProfitLoss/cost)
		}
	}
	return returns
}
