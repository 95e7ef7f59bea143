package core

import "time"

type (
	// Settings holds the bot configuration
	Settings struct {
		UserID         int64
		Symbols        []string
		Timeframe      string
		WindowSize     int
		ScanInterval   time.Duration
		InitialCapital float64

		MarketOpenHour    int
		MarketOpenMinute  int
		MarketCloseHour   int
		MarketCloseMinute int

		Risk     RiskSettings
		Strategy StrategySettings
		Telegram TelegramSettings
	}

	// RiskSettings holds the money-management limits, all percentages
	// expressed as whole numbers (2.0 means 2%)
	RiskSettings struct {
		PositionSizePct float64
		DailyLossPct    float64
		MaxDailyTrades  int
		StopLossPct     float64
		TakeProfitPct   float64
		TrailingStopPct float64
	}

	// StrategySettings holds the indicator parameters used by the
	// default strategy registry
	StrategySettings struct {
		RSIPeriod       int
		RSIOverbought   float64
		RSIOversold     float64
		MACDFast        int
		MACDSlow        int
		MACDSignal      int
		BollingerPeriod int
		BollingerStd    float64
		SMAShort        int
		SMALong         int
		EMAShort        int
		EMALong         int
	}

	// TelegramSettings is the configuration for the telegram notifier
	TelegramSettings struct {
		Enabled bool
		Token   string
		Users   []int
	}
)

// DefaultSettings returns the NSE intraday defaults
func DefaultSettings() Settings {
	return Settings{
		UserID: 1,
		Symbols: []string{
			"RELIANCE",
			"TCS",
			"HDFCBANK",
			"INFY",
			"ICICIBANK",
			"HINDUNILVR",
			"SBIN",
			"BHARTIARTL",
			"KOTAKBANK",
			"ITC",
		},
		Timeframe:      "5m",
		WindowSize:     100,
		ScanInterval:   5 * time.Second,
		InitialCapital: 100000,

		MarketOpenHour:    9,
		MarketOpenMinute:  15,
		MarketCloseHour:   15,
		MarketCloseMinute: 30,

		Risk: RiskSettings{
			PositionSizePct: 2.0,
			DailyLossPct:    5.0,
			MaxDailyTrades:  50,
			StopLossPct:     1.5,
			TakeProfitPct:   3.0,
			TrailingStopPct: 1.0,
		},
		Strategy: StrategySettings{
			RSIPeriod:       14,
			RSIOverbought:   70,
			RSIOversold:     30,
			MACDFast:        12,
			MACDSlow:        26,
			MACDSignal:      9,
			BollingerPeriod: 20,
			BollingerStd:    2,
			SMAShort:        20,
			SMALong:         50,
			EMAShort:        12,
			EMALong:         26,
		},
	}
}
