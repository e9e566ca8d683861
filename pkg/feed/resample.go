package feed

import (
	"fmt"
	"math"
	"time"

	"github.com/raykavin/orbrun/pkg/core"
)

// Resample aggregates candles into a longer timeframe. Buckets are aligned to
// UTC boundaries of the target. A trailing bucket whose last source candle
// does not reach the bucket end is dropped as incomplete.
func Resample(candles []core.Candle, from, to core.Timeframe) ([]core.Candle, error) {
	if from == to {
		return candles, nil
	}
	fromDuration, toDuration := from.Duration(), to.Duration()
	if fromDuration <= 0 || toDuration <= fromDuration || toDuration%fromDuration != 0 {
		return nil, fmt.Errorf("cannot resample %s into %s", from, to)
	}
	if len(candles) == 0 {
		return nil, nil
	}

	target := make([]core.Candle, 0, len(candles)/int(toDuration/fromDuration)+1)

	var current core.Candle
	var lastSource time.Time
	inPeriod := false

	for _, candle := range candles {
		bucket := periodStart(candle.Time, to)

		if inPeriod && !bucket.Equal(current.Time) {
			target = append(target, current)
			inPeriod = false
		}

		if !inPeriod {
			current = core.Candle{
				Time:   bucket,
				Open:   candle.Open,
				High:   candle.High,
				Low:    candle.Low,
				Close:  candle.Close,
				Volume: candle.Volume,
			}
			inPeriod = true
			lastSource = candle.Time
			continue
		}

		current.High = math.Max(current.High, candle.High)
		current.Low = math.Min(current.Low, candle.Low)
		current.Close = candle.Close
		current.Volume += candle.Volume
		lastSource = candle.Time
	}

	if inPeriod && isLastCandlePeriod(lastSource, from, to) {
		target = append(target, current)
	}
	return target, nil
}

// periodStart returns the open time of the target period containing t
func periodStart(t time.Time, tf core.Timeframe) time.Time {
	return t.UTC().Truncate(tf.Duration())
}

// isLastCandlePeriod reports whether the candle opening at t closes its
// target period
func isLastCandlePeriod(t time.Time, from, to core.Timeframe) bool {
	next := t.Add(from.Duration()).UTC()
	return next.Equal(periodStart(next, to))
}
