package niftybot

import (
	"github.com/raykavin/niftybot/core"
	"github.com/raykavin/niftybot/logger"
	"github.com/raykavin/niftybot/metric"
)

// Option is a functional option for configuring a Bot instance
type Option func(*Bot)

// WithLogger replaces the process default logger
func WithLogger(log logger.Logger) Option {
	return func(bot *Bot) {
		bot.log = log
	}
}

// WithStorage sets the storage for the bot, by default it uses a local file
// called niftybot.db
func WithStorage(store core.TradeStorage) Option {
	return func(bot *Bot) {
		bot.store = store
	}
}

// WithExchange connects a live market-data and execution venue, replacing
// both simulation ports and switching the engine to LIVE mode.
func WithExchange(exch core.Exchange) Option {
	return func(bot *Bot) {
		bot.exchange = exch
	}
}

// WithFeeder overrides only the market-data side, keeping simulated execution
func WithFeeder(feeder core.Feeder) Option {
	return func(bot *Bot) {
		bot.feeder = feeder
	}
}

// WithBroker overrides only the execution side, keeping simulated market data
func WithBroker(broker core.Broker) Option {
	return func(bot *Bot) {
		bot.broker = broker
	}
}

// WithNotifier registers an additional notifier for signal events
func WithNotifier(notifier core.Notifier) Option {
	return func(bot *Bot) {
		bot.notifiers = append(bot.notifiers, notifier)
	}
}

// WithCollectors exports engine activity through the given prometheus collectors
func WithCollectors(collectors *metric.EngineCollectors) Option {
	return func(bot *Bot) {
		bot.collectors = collectors
	}
}
