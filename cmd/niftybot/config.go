package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/raykavin/niftybot/core"
)

const defaultDatabase = "niftybot.db"

// appConfig is everything the commands need beyond core.Settings
type appConfig struct {
	settings    core.Settings
	database    string
	metricsAddr string
}

// loadConfig reads niftybot.yaml (or configFile when given) and the
// NIFTYBOT_* environment, layered over the built-in defaults.
func loadConfig(configFile string) (*appConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("NIFTYBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("niftybot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		// A missing default config is fine; anything else is not.
		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	scanInterval, err := str2duration.ParseDuration(v.GetString("scan_interval"))
	if err != nil {
		return nil, fmt.Errorf("parse scan_interval: %w", err)
	}

	openHour, openMinute, err := parseClock(v.GetString("market.open"))
	if err != nil {
		return nil, err
	}
	closeHour, closeMinute, err := parseClock(v.GetString("market.close"))
	if err != nil {
		return nil, err
	}

	settings := core.Settings{
		UserID:         v.GetInt64("user_id"),
		Symbols:        v.GetStringSlice("symbols"),
		Timeframe:      v.GetString("timeframe"),
		WindowSize:     v.GetInt("window_size"),
		ScanInterval:   scanInterval,
		InitialCapital: v.GetFloat64("initial_capital"),

		MarketOpenHour:    openHour,
		MarketOpenMinute:  openMinute,
		MarketCloseHour:   closeHour,
		MarketCloseMinute: closeMinute,

		Risk: core.RiskSettings{
			PositionSizePct: v.GetFloat64("risk.position_size_pct"),
			DailyLossPct:    v.GetFloat64("risk.daily_loss_pct"),
			MaxDailyTrades:  v.GetInt("risk.max_daily_trades"),
			StopLossPct:     v.GetFloat64("risk.stop_loss_pct"),
			TakeProfitPct:   v.GetFloat64("risk.take_profit_pct"),
			TrailingStopPct: v.GetFloat64("risk.trailing_stop_pct"),
		},
		Strategy: core.StrategySettings{
			RSIPeriod:       v.GetInt("strategy.rsi_period"),
			RSIOverbought:   v.GetFloat64("strategy.rsi_overbought"),
			RSIOversold:     v.GetFloat64("strategy.rsi_oversold"),
			MACDFast:        v.GetInt("strategy.macd_fast"),
			MACDSlow:        v.GetInt("strategy.macd_slow"),
			MACDSignal:      v.GetInt("strategy.macd_signal"),
			BollingerPeriod: v.GetInt("strategy.bollinger_period"),
			BollingerStd:    v.GetFloat64("strategy.bollinger_std"),
			SMAShort:        v.GetInt("strategy.sma_short"),
			SMALong:         v.GetInt("strategy.sma_long"),
			EMAShort:        v.GetInt("strategy.ema_short"),
			EMALong:         v.GetInt("strategy.ema_long"),
		},
		Telegram: core.TelegramSettings{
			Enabled: v.GetBool("telegram.enabled"),
			Token:   v.GetString("telegram.token"),
			Users:   v.GetIntSlice("telegram.users"),
		},
	}

	return &appConfig{
		settings:    settings,
		database:    v.GetString("database"),
		metricsAddr: v.GetString("metrics_addr"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	defaults := core.DefaultSettings()

	v.SetDefault("user_id", defaults.UserID)
	v.SetDefault("symbols", defaults.Symbols)
	v.SetDefault("timeframe", defaults.Timeframe)
	v.SetDefault("window_size", defaults.WindowSize)
	v.SetDefault("scan_interval", defaults.ScanInterval.String())
	v.SetDefault("initial_capital", defaults.InitialCapital)

	v.SetDefault("market.open", fmt.Sprintf("%02d:%02d", defaults.MarketOpenHour, defaults.MarketOpenMinute))
	v.SetDefault("market.close", fmt.Sprintf("%02d:%02d", defaults.MarketCloseHour, defaults.MarketCloseMinute))

	v.SetDefault("risk.position_size_pct", defaults.Risk.PositionSizePct)
	v.SetDefault("risk.daily_loss_pct", defaults.Risk.DailyLossPct)
	v.SetDefault("risk.max_daily_trades", defaults.Risk.MaxDailyTrades)
	v.SetDefault("risk.stop_loss_pct", defaults.Risk.StopLossPct)
	v.SetDefault("risk.take_profit_pct", defaults.Risk.TakeProfitPct)
	v.SetDefault("risk.trailing_stop_pct", defaults.Risk.TrailingStopPct)

	v.SetDefault("strategy.rsi_period", defaults.Strategy.RSIPeriod)
	v.SetDefault("strategy.rsi_overbought", defaults.Strategy.RSIOverbought)
	v.SetDefault("strategy.rsi_oversold", defaults.Strategy.RSIOversold)
	v.SetDefault("strategy.macd_fast", defaults.Strategy.MACDFast)
	v.SetDefault("strategy.macd_slow", defaults.Strategy.MACDSlow)
	v.SetDefault("strategy.macd_signal", defaults.Strategy.MACDSignal)
	v.SetDefault("strategy.bollinger_period", defaults.Strategy.BollingerPeriod)
	v.SetDefault("strategy.bollinger_std", defaults.Strategy.BollingerStd)
	v.SetDefault("strategy.sma_short", defaults.Strategy.SMAShort)
	v.SetDefault("strategy.sma_long", defaults.Strategy.SMALong)
	v.SetDefault("strategy.ema_short", defaults.Strategy.EMAShort)
	v.SetDefault("strategy.ema_long", defaults.Strategy.EMALong)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.users", []int{})

	v.SetDefault("database", defaultDatabase)
	v.SetDefault("metrics_addr", "")
}

// parseClock parses "15:04" style market session boundaries
func parseClock(value string) (int, int, error) {
	at, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid market time %q: %w", value, err)
	}
	return at.Hour(), at.Minute(), nil
}
