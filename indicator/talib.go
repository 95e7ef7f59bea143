package indicator

import (
	"github.com/markcheno/go-talib"

	"github.com/raykavin/niftybot/core"
)

// MaType represents moving average type
type MaType = talib.MaType

// Moving average type constants
const (
	TypeSMA = talib.SMA // Simple Moving Average
	TypeEMA = talib.EMA // Exponential Moving Average
)

// SMA calculates Simple Moving Average, defined for index >= period-1
func SMA(input core.Series[float64], period int) core.Series[float64] {
	if len(input) < period {
		return undefined(len(input))
	}
	return markMissing(talib.Sma(input, period), period-1)
}

// EMA calculates Exponential Moving Average seeded by the first
// period-mean, defined for index >= period-1
func EMA(input core.Series[float64], period int) core.Series[float64] {
	if len(input) < period {
		return undefined(len(input))
	}
	return markMissing(talib.Ema(input, period), period-1)
}

// RSI calculates Wilder's Relative Strength Index, defined for index >= period
func RSI(input core.Series[float64], period int) core.Series[float64] {
	if len(input) <= period {
		return undefined(len(input))
	}
	return markMissing(talib.Rsi(input, period), period)
}

// ATR calculates Wilder's Average True Range, defined for index >= period
func ATR(high, low, close core.Series[float64], period int) core.Series[float64] {
	if len(close) <= period {
		return undefined(len(close))
	}
	return markMissing(talib.Atr(high, low, close, period), period)
}

// BB calculates Bollinger Bands
// Returns upper, middle, and lower bands, defined for index >= period-1
func BB(input core.Series[float64], period int, deviation float64, maType MaType) (upper, middle, lower core.Series[float64]) {
	if len(input) < period {
		return undefined(len(input)), undefined(len(input)), undefined(len(input))
	}

	u, m, l := talib.BBands(input, period, deviation, deviation, maType)
	return markMissing(u, period-1), markMissing(m, period-1), markMissing(l, period-1)
}

// MACD calculates Moving Average Convergence Divergence
// Returns the MACD line, the signal line and the histogram. All three
// outputs are defined for index >= slow+signalPeriod-2.
func MACD(input core.Series[float64], fast, slow, signalPeriod int) (macd, signal, hist core.Series[float64]) {
	lookback := slow + signalPeriod - 2
	if len(input) <= lookback {
		return undefined(len(input)), undefined(len(input)), undefined(len(input))
	}

	m, s, h := talib.Macd(input, fast, slow, signalPeriod)
	return markMissing(m, lookback), markMissing(s, lookback), markMissing(h, lookback)
}

// Stoch calculates the slow Stochastic Oscillator
// Returns %K and %D, both defined for index >= fastK+slowK+slowD-3
func Stoch(high, low, close core.Series[float64], fastK, slowK, slowD int) (k, d core.Series[float64]) {
	lookback := fastK + slowK + slowD - 3
	if len(close) <= lookback {
		return undefined(len(close)), undefined(len(close))
	}

	sk, sd := talib.Stoch(high, low, close, fastK, slowK, talib.SMA, slowD, talib.SMA)
	return markMissing(sk, lookback), markMissing(sd, lookback)
}
