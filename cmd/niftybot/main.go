package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/raykavin/niftybot"
	"github.com/raykavin/niftybot/backtest"
	"github.com/raykavin/niftybot/exchange"
	"github.com/raykavin/niftybot/metric"
	"github.com/raykavin/niftybot/storage"
	"github.com/raykavin/niftybot/strategy"
)

// Command line flags
var (
	configFile string

	// Backtest command flags
	backtestSymbol    string
	backtestStrategy  string
	backtestTimeframe string
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:     "niftybot",
		Short:   "Autonomous NSE equity scanner and paper trader",
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default ./niftybot.yaml)")

	// Add commands
	rootCmd.AddCommand(buildRunCmd())
	rootCmd.AddCommand(buildBacktestCmd())
	rootCmd.AddCommand(buildStrategiesCmd())

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Scan the market and trade until interrupted",
		RunE:  runEngine,
	}
}

func runEngine(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewFromFile(cfg.database)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	options := []niftybot.Option{niftybot.WithStorage(store)}

	if cfg.metricsAddr != "" {
		collectors := metric.NewEngineCollectors(prometheus.DefaultRegisterer)
		options = append(options, niftybot.WithCollectors(collectors))
		go serveMetrics(cfg.metricsAddr)
	}

	bot, err := niftybot.NewBot(ctx, cfg.settings, options...)
	if err != nil {
		return err
	}

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	bot.Summary()
	return nil
}

// serveMetrics exposes the default prometheus registry over HTTP
func serveMetrics(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, nil); err != nil {
		niftybot.DefaultLog.WithError(err).Error("metrics listener stopped")
	}
}

func buildBacktestCmd() *cobra.Command {
	backtestCmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay simulated history through a single strategy",
		RunE:  runBacktest,
	}

	backtestCmd.Flags().StringVarP(&backtestSymbol, "symbol", "s", "", "Symbol to replay (e.g. RELIANCE)")
	backtestCmd.Flags().StringVarP(&backtestStrategy, "strategy", "k", "", "Strategy key (e.g. macd)")
	backtestCmd.Flags().StringVarP(&backtestTimeframe, "timeframe", "t", "", "Timeframe (defaults to the configured one)")

	// Required flags
	backtestCmd.MarkFlagRequired("symbol")
	backtestCmd.MarkFlagRequired("strategy")

	return backtestCmd
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	registry := strategy.NewRegistry(cfg.settings.Strategy)
	st, ok := registry[backtestStrategy]
	if !ok {
		return fmt.Errorf("unknown strategy %q, valid keys: %s",
			backtestStrategy, strings.Join(registryKeys(registry), ", "))
	}

	timeframe := backtestTimeframe
	if timeframe == "" {
		timeframe = cfg.settings.Timeframe
	}

	tester := backtest.New(
		exchange.NewSimFeed(niftybot.DefaultLog),
		niftybot.DefaultLog,
		backtest.WithProgress(),
		backtest.WithInitialCapital(cfg.settings.InitialCapital),
	)

	result, err := tester.Run(cmd.Context(), st, strings.ToUpper(backtestSymbol), timeframe)
	if err != nil {
		return err
	}

	result.WriteSummary(os.Stdout)
	return nil
}

func registryKeys(registry strategy.Registry) []string {
	keys := lo.Keys(registry)
	sort.Strings(keys)
	return keys
}

func buildStrategiesCmd() *cobra.Command {
	strategiesCmd := &cobra.Command{
		Use:   "strategies",
		Short: "Manage the stored strategy configuration",
	}

	strategiesCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List stored strategies and whether they vote",
			RunE:  runStrategiesList,
		},
		&cobra.Command{
			Use:   "enable <name>",
			Short: "Let the named strategy vote again",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return setStrategyActive(cmd, args[0], true)
			},
		},
		&cobra.Command{
			Use:   "disable <name>",
			Short: "Exclude the named strategy from voting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return setStrategyActive(cmd, args[0], false)
			},
		},
	)

	return strategiesCmd
}

// openSeededStore opens the configured database with the built-in strategy
// rows present
func openSeededStore(cmd *cobra.Command) (*storage.BuntStorage, error) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewFromFile(cfg.database)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	if err := store.SeedStrategies(cmd.Context(), strategy.SeedNames()); err != nil {
		store.Close()
		return nil, fmt.Errorf("seed strategies: %w", err)
	}
	return store, nil
}

func runStrategiesList(cmd *cobra.Command, _ []string) error {
	store, err := openSeededStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	configs, err := store.StrategyConfigs(cmd.Context())
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Active"})
	for _, config := range configs {
		table.Append([]string{config.Name, strconv.FormatBool(config.Active)})
	}
	table.Render()
	return nil
}

func setStrategyActive(cmd *cobra.Command, name string, active bool) error {
	store, err := openSeededStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SetStrategyActive(cmd.Context(), name, active); err != nil {
		return err
	}

	fmt.Printf("%s: active=%t\n", name, active)
	return nil
}
