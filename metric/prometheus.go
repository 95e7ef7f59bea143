package metric

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "niftybot"

// EngineCollectors groups the prometheus instruments fed by the engine.
// A nil receiver is valid and turns every observation into a no-op, so the
// engine never has to branch on whether metrics are enabled.
type EngineCollectors struct {
	ScansTotal    prometheus.Counter
	SignalsTotal  *prometheus.CounterVec
	PositionsOpen prometheus.Gauge
	Equity        prometheus.Gauge
	DailyPnL      prometheus.Gauge
}

// NewEngineCollectors builds the instruments and registers them on reg
func NewEngineCollectors(reg prometheus.Registerer) *EngineCollectors {
	c := &EngineCollectors{
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Completed scan cycles.",
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_total",
			Help:      "Signal events by action taken.",
		}, []string{"action"}),
		PositionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "positions_open",
			Help:      "Currently open positions.",
		}),
		Equity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "equity",
			Help:      "Available capital plus realized results.",
		}),
		DailyPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "daily_pnl",
			Help:      "Realized profit and loss of the current session day.",
		}),
	}

	reg.MustRegister(c.ScansTotal, c.SignalsTotal, c.PositionsOpen, c.Equity, c.DailyPnL)
	return c
}

// ObserveScan counts a completed scan cycle
func (c *EngineCollectors) ObserveScan() {
	if c == nil {
		return
	}
	c.ScansTotal.Inc()
}

// ObserveSignal counts a signal event. Only the leading token of the action
// is used as the label, keeping parametrized actions on a single series.
func (c *EngineCollectors) ObserveSignal(action string) {
	if c == nil {
		return
	}

	label := action
	if fields := strings.Fields(action); len(fields) > 0 {
		label = fields[0]
	}
	c.SignalsTotal.WithLabelValues(label).Inc()
}

// SetPortfolio refreshes the portfolio gauges after a scan
func (c *EngineCollectors) SetPortfolio(openPositions int, equity, dailyPnL float64) {
	if c == nil {
		return
	}
	c.PositionsOpen.Set(float64(openPositions))
	c.Equity.Set(equity)
	c.DailyPnL.Set(dailyPnL)
}
