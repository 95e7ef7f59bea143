// Package notification provides implementations for various notification services
package notification

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	tb "gopkg.in/tucnak/telebot.v2"

	"github.com/raykavin/niftybot/core"
	"github.com/raykavin/niftybot/engine"
	"github.com/raykavin/niftybot/exchange"
	"github.com/raykavin/niftybot/logger"
	"github.com/raykavin/niftybot/risk"
)

const (
	pollingTimeout = 10 * time.Second

	// sendAttempts bounds the delivery retries for broadcast messages
	sendAttempts = 3

	// signalHistoryLimit is how many events /signals replays per symbol
	signalHistoryLimit = 5
)

// Telegram implements the core.NotifierWithStart interface
type Telegram struct {
	settings    core.Settings
	engine      *engine.Engine
	riskman     *risk.Manager
	defaultMenu *tb.ReplyMarkup
	client      *tb.Bot
	log         logger.Logger
}

// Option is a function that configures a telegram instance
type Option func(telegram *Telegram)

// NewTelegram creates and initializes a new Telegram service
func NewTelegram(eng *engine.Engine, riskman *risk.Manager, settings core.Settings, log logger.Logger, options ...Option) (
	core.NotifierWithStart,
	error,
) {
	menu := &tb.ReplyMarkup{ResizeReplyKeyboard: true}
	poller := &tb.LongPoller{Timeout: pollingTimeout}
	userMiddleware := newAuthMiddleware(poller, settings, log)

	client, err := initializeBotClient(settings, userMiddleware)
	if err != nil {
		return nil, err
	}

	setupKeyboard(menu)
	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	bot := &Telegram{
		engine:      eng,
		riskman:     riskman,
		client:      client,
		settings:    settings,
		defaultMenu: menu,
		log:         log,
	}

	// Apply custom options if provided
	for _, option := range options {
		option(bot)
	}

	registerHandlers(client, bot)

	return bot, nil
}

// initializeBotClient creates and configures the Telegram bot client
func initializeBotClient(settings core.Settings, middleware *tb.MiddlewarePoller) (*tb.Bot, error) {
	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     settings.Telegram.Token,
		Poller:    middleware,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return client, nil
}

// newAuthMiddleware creates a middleware to validate authorized users
func newAuthMiddleware(poller *tb.LongPoller, settings core.Settings, log logger.Logger) *tb.MiddlewarePoller {
	return tb.NewMiddlewarePoller(poller, func(u *tb.Update) bool {
		if u.Message == nil || u.Message.Sender == nil {
			log.Error("message or sender is nil ", u)
			return false
		}

		if slices.Contains(settings.Telegram.Users, int(u.Message.Sender.ID)) {
			return true
		}

		log.Error("unauthorized user ", u.Message.Sender.ID)
		return false
	})
}

// setupKeyboard configures the reply keyboard layout
func setupKeyboard(menu *tb.ReplyMarkup) {
	var (
		statusBtn    = menu.Text("/status")
		positionsBtn = menu.Text("/positions")
		signalsBtn   = menu.Text("/signals")
		metricsBtn   = menu.Text("/metrics")
		stopBtn      = menu.Text("/stop")
		helpBtn      = menu.Text("/help")
	)

	menu.Reply(
		menu.Row(statusBtn, positionsBtn, signalsBtn),
		menu.Row(metricsBtn, stopBtn, helpBtn),
	)
}

// setupCommands configures available bot commands
func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "/help", Description: "Display help instructions"},
		{Text: "/status", Description: "Check engine status"},
		{Text: "/positions", Description: "List open positions"},
		{Text: "/signals", Description: "Show recent signals, optionally for one symbol"},
		{Text: "/metrics", Description: "Session risk metrics"},
		{Text: "/stop", Description: "Stop scanning and close all positions"},
	})
}

// registerHandlers registers all command handlers
func registerHandlers(client *tb.Bot, bot *Telegram) {
	client.Handle("/help", bot.HelpHandle)
	client.Handle("/status", bot.StatusHandle)
	client.Handle("/positions", bot.PositionsHandle)
	client.Handle("/signals", bot.SignalsHandle)
	client.Handle("/metrics", bot.MetricsHandle)
	client.Handle("/stop", bot.StopHandle)
}

// Start begins the Telegram bot and notifies all authorized users
func (t *Telegram) Start() {
	go t.client.Start()
	t.broadcast("Bot initialized.", t.defaultMenu)
}

// Notification methods
// -------------------

// Notify sends a message to all authorized users, retrying transient
// delivery failures with exponential backoff.
func (t *Telegram) Notify(text string) {
	t.broadcast(text)
}

func (t *Telegram) broadcast(text string, options ...any) {
	for _, user := range t.settings.Telegram.Users {
		t.send(&tb.User{ID: int64(user)}, text, options...)
	}
}

func (t *Telegram) send(to *tb.User, text string, options ...any) {
	policy := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    10 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var err error
	for attempt := 0; attempt < sendAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(policy.Duration())
		}
		if _, err = t.client.Send(to, text, options...); err == nil {
			return
		}
	}
	t.log.WithError(err).Error("failed to send notification")
}

// reply answers an interactive command without retrying; the user can
// simply reissue the command.
func (t *Telegram) reply(to *tb.User, text string, options ...any) {
	if _, err := t.client.Send(to, text, options...); err != nil {
		t.log.WithError(err).Error("failed to send message")
	}
}

// Command handlers
// ---------------

// HelpHandle displays available commands
func (t *Telegram) HelpHandle(m *tb.Message) {
	commands, err := t.client.GetCommands()
	if err != nil {
		t.log.WithError(err).Error("failed to get commands")
		t.OnError(err)
		return
	}

	lines := make([]string, 0, len(commands))
	for _, command := range commands {
		lines = append(lines, fmt.Sprintf("/%s - %s", command.Text, command.Description))
	}

	t.reply(m.Sender, strings.Join(lines, "\n"))
}

// StatusHandle displays the current engine status
func (t *Telegram) StatusHandle(m *tb.Message) {
	t.reply(m.Sender, formatStatus(t.engine.Status()))
}

// PositionsHandle lists the open positions
func (t *Telegram) PositionsHandle(m *tb.Message) {
	t.reply(m.Sender, formatPositions(t.riskman.OpenPositions()))
}

// SignalsHandle replays the most recent signal events. An optional
// argument narrows the history to one symbol: /signals RELIANCE
func (t *Telegram) SignalsHandle(m *tb.Message) {
	symbol := ""
	if fields := strings.Fields(m.Text); len(fields) > 1 {
		symbol = strings.ToUpper(fields[1])
	}

	t.reply(m.Sender, formatSignals(t.engine.Signals(symbol, signalHistoryLimit)))
}

// MetricsHandle shows the session risk metrics
func (t *Telegram) MetricsHandle(m *tb.Message) {
	t.reply(m.Sender, formatMetrics(t.riskman.RiskMetrics()))
}

// StopHandle stops the engine and flattens the book
func (t *Telegram) StopHandle(m *tb.Message) {
	if !t.engine.Status().Running {
		t.reply(m.Sender, "Engine is already stopped.", t.defaultMenu)
		return
	}

	t.engine.Stop()
	t.reply(m.Sender, "Engine stopped. All positions were closed.", t.defaultMenu)
}

// Event handlers
// -------------

// OnSignal forwards actionable scan outcomes to the authorized users.
// Holds and already-in-position echoes would flood the chat on every
// scan, so they are dropped.
func (t *Telegram) OnSignal(signal core.SignalEvent) {
	switch signal.Action {
	case core.ActionHold, core.ActionAlreadyInPosition:
		return
	}

	t.Notify(formatSignal(signal))
}

// OnError notifies users about errors
func (t *Telegram) OnError(err error) {
	var sb strings.Builder
	sb.WriteString("🛑 ERROR\n")

	var orderError *exchange.OrderError
	if errors.As(err, &orderError) {
		formatOrderError(&sb, orderError)
		t.Notify(sb.String())
		return
	}

	sb.WriteString("-----\n")
	sb.WriteString(err.Error())

	t.Notify(sb.String())
}

// Formatting helpers
// -----------------

// formatOrderError formats order-specific errors
func formatOrderError(sb *strings.Builder, orderError *exchange.OrderError) {
	sb.WriteString("-----\n")
	fmt.Fprintf(sb, "Symbol: %s\n", orderError.Symbol)
	fmt.Fprintf(sb, "Quantity: %.0f\n", orderError.Quantity)
	sb.WriteString("-----\n")
	sb.WriteString(orderError.Err.Error())
}

// formatSignal renders one scan outcome as a markdown message
func formatSignal(signal core.SignalEvent) string {
	var sb strings.Builder

	switch {
	case strings.HasPrefix(signal.Action, "POSITION_CLOSED"):
		fmt.Fprintf(&sb, "💰 *%s*\n", signal.Symbol)
	case signal.Verdict > 0:
		fmt.Fprintf(&sb, "📈 *%s* - %s\n", signal.Symbol, signal.Label)
	case signal.Verdict < 0:
		fmt.Fprintf(&sb, "📉 *%s* - %s\n", signal.Symbol, signal.Label)
	default:
		fmt.Fprintf(&sb, "ℹ️ *%s* - %s\n", signal.Symbol, signal.Label)
	}

	sb.WriteString("-----\n")
	fmt.Fprintf(&sb, "Price: `%.2f`\n", signal.Price)
	if signal.Confidence > 0 {
		fmt.Fprintf(&sb, "Confidence: `%.0f%%`\n", signal.Confidence*100)
	}
	if signal.SuggestedQuantity > 0 {
		fmt.Fprintf(&sb, "Quantity: `%.0f`\n", signal.SuggestedQuantity)
		fmt.Fprintf(&sb, "Stop: `%.2f` Target: `%.2f`\n", signal.StopLoss, signal.TakeProfit)
	}
	fmt.Fprintf(&sb, "Action: `%s`", signal.Action)

	return sb.String()
}

// formatStatus renders the engine status snapshot
func formatStatus(status engine.Status) string {
	var sb strings.Builder

	sb.WriteString("*STATUS*\n-----\n")
	fmt.Fprintf(&sb, "Running: `%t`\n", status.Running)
	fmt.Fprintf(&sb, "Mode: `%s`\n", status.Mode)
	fmt.Fprintf(&sb, "Market open: `%t`\n", status.MarketOpen)
	fmt.Fprintf(&sb, "Scans: `%d`\n", status.ScanCount)
	fmt.Fprintf(&sb, "Open positions: `%d`\n", status.OpenPositions)
	fmt.Fprintf(&sb, "Capital: `%.2f`\n", status.CurrentCapital)
	fmt.Fprintf(&sb, "Daily PnL: `%.2f`\n", status.DailyPnL)
	fmt.Fprintf(&sb, "Daily trades: `%d`\n", status.DailyTrades)
	fmt.Fprintf(&sb, "Strategies: `%s`", strings.Join(status.ActiveStrategies, ", "))

	return sb.String()
}

// formatMetrics renders the session risk metrics
func formatMetrics(metrics risk.Metrics) string {
	var sb strings.Builder

	sb.WriteString("*SESSION METRICS*\n-----\n")
	fmt.Fprintf(&sb, "Capital: `%.2f`\n", metrics.TotalCapital)
	fmt.Fprintf(&sb, "Available: `%.2f`\n", metrics.AvailableCapital)
	fmt.Fprintf(&sb, "Daily PnL: `%.2f`\n", metrics.DailyPnL)
	fmt.Fprintf(&sb, "Daily trades: `%d`\n", metrics.DailyTrades)
	fmt.Fprintf(&sb, "Win rate: `%.1f%%`\n", metrics.WinRate)
	fmt.Fprintf(&sb, "Profit factor: `%.2f`\n", metrics.ProfitFactor)
	fmt.Fprintf(&sb, "Max drawdown: `%.1f%%`\n", metrics.MaxDrawdown)
	fmt.Fprintf(&sb, "Sharpe: `%.2f`", metrics.SharpeRatio)

	return sb.String()
}

// formatPositions renders the open positions, one block per symbol
func formatPositions(positions []core.Position) string {
	if len(positions) == 0 {
		return "No open positions."
	}

	var sb strings.Builder
	sb.WriteString("*OPEN POSITIONS*")
	for _, position := range positions {
		sb.WriteString("\n-----\n")
		fmt.Fprintf(&sb, "*%s* `%s %.0f @ %.2f`\n", position.Symbol, position.Side, position.Quantity, position.EntryPrice)

		trailing := "-"
		if position.TrailingArmed() {
			trailing = fmt.Sprintf("%.2f", position.TrailingStop)
		}
		fmt.Fprintf(&sb, "Stop: `%.2f` Target: `%.2f` Trailing: `%s`", position.StopLoss, position.TakeProfit, trailing)
	}

	return sb.String()
}

// formatSignals renders a compact one-line-per-event history
func formatSignals(signals []core.SignalEvent) string {
	if len(signals) == 0 {
		return "No signals recorded."
	}

	var sb strings.Builder
	sb.WriteString("*RECENT SIGNALS*\n-----")
	for _, signal := range signals {
		fmt.Fprintf(&sb, "\n`%s` %s %s @ %.2f\n`%s`",
			signal.Time.Format("15:04:05"), signal.Symbol, signal.Label, signal.Price, signal.Action)
	}

	return sb.String()
}
