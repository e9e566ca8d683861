package marketctx

import (
	"fmt"
	"math"

	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/indicator"
)

// MaxStrength caps the trend strength score
const MaxStrength = 100

// TrendContext is the reading of one timeframe at a cutoff
type TrendContext struct {
	Timeframe core.Timeframe
	Direction core.Direction
	Strength  float64
	Change    float64
	Samples   int
	Available bool
}

func (t TrendContext) String() string {
	if !t.Available {
		return fmt.Sprintf("%s: n/a", t.Timeframe)
	}
	return fmt.Sprintf("%s: %s (%.0f)", t.Timeframe, t.Direction, t.Strength)
}

// Supports reports whether the reading backs a trade on side with at least minStrength
func (t TrendContext) Supports(side core.Side, minStrength float64) bool {
	return t.Available && t.Direction.Supports(side) && t.Strength >= minStrength
}

// readTrend classifies completed candles. Direction compares the mean of the
// last AvgPeriod closes with the mean of the AvgPeriod before them, falling
// back to last against first close on short histories.
func readTrend(tf core.Timeframe, candles []core.Candle, spec TrendSpec) TrendContext {
	result := TrendContext{Timeframe: tf, Samples: len(candles)}
	if len(candles) < spec.MinSamples || len(candles) < 2 {
		return result
	}
	result.Available = true

	closes := core.Closes(candles)
	recent, prior, ok := indicator.AverageShift(closes, spec.AvgPeriod)
	if !ok {
		recent, prior = closes.Last(0), closes.First()
	}

	result.Change = (recent - prior) / prior
	switch {
	case result.Change > spec.Threshold:
		result.Direction = core.Bullish
	case result.Change < -spec.Threshold:
		result.Direction = core.Bearish
	default:
		result.Direction = core.Mixed
	}

	result.Strength = strength(closes, result.Direction)
	return result
}

// strength counts consecutive closes moving in direction, newest first,
// scaled by ten and capped at MaxStrength.
func strength(closes core.Series[float64], direction core.Direction) float64 {
	var step float64
	switch direction {
	case core.Bullish:
		step = 1
	case core.Bearish:
		step = -1
	default:
		return 0
	}

	run := 0
	for i := closes.Length() - 1; i > 0; i-- {
		if (closes[i]-closes[i-1])*step <= 0 {
			break
		}
		run++
	}
	return math.Min(MaxStrength, float64(run*10))
}
