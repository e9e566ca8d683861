package metric

import (
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// BootstrapInterval is a confidence interval estimated by resampling
type BootstrapInterval struct {
	Lower  float64
	Upper  float64
	StdDev float64
	Mean   float64
}

// Contains reports whether v lies within the interval
func (b BootstrapInterval) Contains(v float64) bool {
	return b.Lower <= v && v <= b.Upper
}

// Bootstrap estimates the confidence interval of measure over values by
// drawing samples resamples with replacement
func Bootstrap(values []float64, measure func([]float64) float64, samples int,
	confidence float64) BootstrapInterval {

	if len(values) == 0 || samples < 1 {
		return BootstrapInterval{}
	}

	data := lo.Times(samples, func(int) float64 {
		return measure(lo.Times(len(values), func(int) float64 { return lo.Sample(values) }))
	})
	sort.Float64s(data)

	tail := 1 - confidence
	mean, stdDev := stat.MeanStdDev(data, nil)
	return BootstrapInterval{
		Lower:  stat.Quantile(tail/2, stat.LinInterp, data, nil),
		Upper:  stat.Quantile(1-tail/2, stat.LinInterp, data, nil),
		StdDev: stdDev,
		Mean:   mean,
	}
}

// ExpectancyInterval bootstraps the mean R multiple of the run
func (s Summary) ExpectancyInterval(samples int, confidence float64) BootstrapInterval {
	return Bootstrap(s.RMultiples(), Mean, samples, confidence)
}

// Mean is a bootstrap measure
func Mean(values []float64) float64 {
	return average(values)
}

// Payoff is the average gain over the average loss of values
func Payoff(values []float64) float64 {
	wins := lo.Filter(values, func(v float64, _ int) bool { return v > 0 })
	losses := lo.Filter(values, func(v float64, _ int) bool { return v < 0 })
	if len(wins) == 0 || len(losses) == 0 {
		return 0
	}
	return average(wins) / -average(losses)
}

// ProfitFactor is the sum of gains over the sum of losses of values
func ProfitFactor(values []float64) float64 {
	gains := lo.SumBy(values, func(v float64) float64 { return max(v, 0) })
	losses := lo.SumBy(values, func(v float64) float64 { return max(-v, 0) })
	if losses == 0 {
		return 0
	}
	return gains / losses
}
