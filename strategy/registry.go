package strategy

import (
	"strings"

	"github.com/raykavin/niftybot/core"
)

// Keys identifying the built-in strategies.
const (
	KeyMACrossover  = "ma_crossover"
	KeyEMACrossover = "ema_crossover"
	KeyRSI          = "rsi"
	KeyBollinger    = "bollinger"
	KeyMACD         = "macd"
	KeyVWAP         = "vwap"
	KeySuperTrend   = "supertrend"
	KeyStochRSI     = "stoch_rsi"
)

// Parameters not exposed through core.StrategySettings.
const (
	vwapVolumeThreshold  = 1.5
	superTrendPeriod     = 10
	superTrendMultiplier = 3.0
	stochRSIPeriod       = 14
	stochPeriod          = 14
)

// DefaultKeys is the active set when no storage backend is configured.
var DefaultKeys = []string{KeyMACrossover, KeyRSI, KeyMACD, KeySuperTrend}

// FallbackKeys is the conservative set used when storage lookups fail.
var FallbackKeys = []string{KeyMACrossover, KeyRSI, KeyMACD}

// Registry maps strategy keys to ready-to-run strategies.
type Registry map[string]Strategy

// NewRegistry builds every built-in strategy from the given settings.
func NewRegistry(cfg core.StrategySettings) Registry {
	return Registry{
		KeyMACrossover:  MACrossover(cfg.SMAShort, cfg.SMALong, false),
		KeyEMACrossover: MACrossover(cfg.EMAShort, cfg.EMALong, true),
		KeyRSI:          RSIMeanReversion(cfg.RSIPeriod, cfg.RSIOverbought, cfg.RSIOversold),
		KeyBollinger:    BollingerBands(cfg.BollingerPeriod, cfg.BollingerStd),
		KeyMACD:         MACDCross(cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal),
		KeyVWAP:         VWAPCross(vwapVolumeThreshold),
		KeySuperTrend:   SuperTrend(superTrendPeriod, superTrendMultiplier),
		KeyStochRSI:     StochRSI(stochRSIPeriod, stochPeriod),
	}
}

// SeedNames returns the display names of every built-in strategy, in a fixed
// order suitable for seeding a storage backend.
func SeedNames() []string {
	return []string{
		"Moving Average Crossover",
		"EMA Crossover",
		"RSI Mean Reversion",
		"Bollinger Bands",
		"MACD",
		"VWAP",
		"SuperTrend",
		"Stochastic RSI",
	}
}

type namePattern struct {
	keyword string
	key     string
}

// namePatterns maps display name fragments to strategy keys. Order matters:
// the MACD and EMA variants must be tested before "moving average", and
// "stochastic" before "rsi" so that "Stochastic RSI" does not resolve to the
// plain RSI strategy.
var namePatterns = []namePattern{
	{"macd", KeyMACD},
	{"ema crossover", KeyEMACrossover},
	{"moving average", KeyMACrossover},
	{"stochastic", KeyStochRSI},
	{"bollinger", KeyBollinger},
	{"supertrend", KeySuperTrend},
	{"vwap", KeyVWAP},
	{"rsi", KeyRSI},
}

// KeysFromNames resolves stored display names to strategy keys. Names that
// match no pattern are skipped, duplicates keep their first position.
func KeysFromNames(names []string) []string {
	keys := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		lower := strings.ToLower(name)
		for _, p := range namePatterns {
			if !strings.Contains(lower, p.keyword) {
				continue
			}
			if !seen[p.key] {
				seen[p.key] = true
				keys = append(keys, p.key)
			}
			break
		}
	}
	return keys
}
