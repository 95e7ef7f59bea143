package metric

import (
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Interval is a bootstrap confidence interval for a measure
type Interval struct {
	Lower  float64
	Upper  float64
	Mean   float64
	StdDev float64
}

// Bootstrap estimates the confidence interval of measure over values by
// resampling with replacement. confidence is the two-sided level, e.g.
// 0.95 for a 95% interval.
func Bootstrap(values []float64, measure Measure, iterations int, confidence float64) Interval {
	if len(values) == 0 || iterations <= 0 {
		return Interval{}
	}

	stats := make([]float64, 0, iterations)
	sample := make([]float64, len(values))
	for i := 0; i < iterations; i++ {
		for j := range sample {
			sample[j] = lo.Sample(values)
		}
		stats = append(stats, measure(sample))
	}

	sort.Float64s(stats)
	mean, stdDev := stat.MeanStdDev(stats, nil)
	tail := (1 - confidence) / 2

	return Interval{
		Lower:  stat.Quantile(tail, stat.LinInterp, stats, nil),
		Upper:  stat.Quantile(1-tail, stat.LinInterp, stats, nil),
		Mean:   mean,
		StdDev: stdDev,
	}
}
