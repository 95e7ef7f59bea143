// Package metric provides summary statistics over trade results, bootstrap
// confidence intervals for them, and the prometheus instruments exported by
// the engine.
package metric

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Measure summarizes a series of trade results into a single statistic
type Measure func([]float64) float64

// noLossFactor stands in for ratios that would divide by zero losses
const noLossFactor = 10

// Mean is the arithmetic mean of the results
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Payoff is the ratio of the average win to the average loss
func Payoff(values []float64) float64 {
	var wins, losses []float64
	for _, v := range values {
		if v >= 0 {
			wins = append(wins, v)
		} else {
			losses = append(losses, -v)
		}
	}
	if len(losses) == 0 {
		return noLossFactor
	}

	avgLoss := stat.Mean(losses, nil)
	if avgLoss == 0 {
		return noLossFactor
	}
	return math.Abs(stat.Mean(wins, nil) / avgLoss)
}

// ProfitFactor is gross profit over gross loss
func ProfitFactor(values []float64) float64 {
	var grossProfit, grossLoss float64
	for _, v := range values {
		if v >= 0 {
			grossProfit += v
		} else {
			grossLoss -= v
		}
	}
	if grossLoss == 0 {
		return noLossFactor
	}
	return grossProfit / grossLoss
}
