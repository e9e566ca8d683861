package indicator

import "github.com/markcheno/go-talib"

// SMA calculates Simple Moving Average
func SMA(input []float64, period int) []float64 {
	return talib.Sma(input, period)
}

// ATR calculates Average True Range
func ATR(high []float64, low []float64, close []float64, period int) []float64 {
	return talib.Atr(high, low, close, period)
}

// NATR calculates Normalized Average True Range
func NATR(high []float64, low []float64, close []float64, period int) []float64 {
	return talib.Natr(high, low, close, period)
}

// AverageShift compares the mean of the last period values with the mean
// of the period values before them. It reports false when fewer than
// 2*period values are available.
func AverageShift(input []float64, period int) (recent, prior float64, ok bool) {
	if period < 1 || len(input) < 2*period {
		return 0, 0, false
	}
	if period == 1 {
		return input[len(input)-1], input[len(input)-2], true
	}

	sma := SMA(input, period)
	return sma[len(sma)-1], sma[len(sma)-1-period], true
}
