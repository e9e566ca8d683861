package orb

import (
	"time"

	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/marketctx"
)

// TrendReader reads the trend of a timeframe at a point in time
type TrendReader interface {
	TrendAt(tf core.Timeframe, cutoff time.Time) marketctx.TrendContext
}

// Signal is a directional trade trigger
type Signal struct {
	Side  core.Side
	Price float64
	// Time is the open time of the trigger candle, the signal is known at its close
	Time   time.Time
	Setup  core.SetupType
	Candle core.Candle
}

// EntryTime returns when the trigger candle closes
func (s Signal) EntryTime() time.Time { return s.Time.Add(core.M15.Duration()) }

// Classifier scans the candles after the opening range for the first
// close outside it, or for a qualifying fakeout when enabled
type Classifier struct {
	Session        Session
	EnableFakeouts bool
	// Trend confirms fakeout reversals on the 1h timeframe
	Trend TrendReader
	// ReversalStrength is the 1h strength a fakeout reversal needs
	ReversalStrength float64
}

// Classify returns the first signal of the day, if any
func (c Classifier) Classify(rng OpeningRange, candles []core.Candle) (Signal, bool) {
	closeAt := c.Session.CloseAt(rng.Day)

	for _, candle := range candles {
		if !candle.Time.After(rng.End) {
			continue
		}
		if !candle.Time.Before(closeAt) {
			break
		}

		switch {
		case candle.Close > rng.High:
			return c.signal(core.Buy, core.Breakout, candle), true
		case candle.Close < rng.Low:
			return c.signal(core.Sell, core.Breakout, candle), true
		}

		if !c.EnableFakeouts {
			continue
		}
		if side, ok := c.fakeout(rng, candle); ok {
			return c.signal(side, core.Fakeout, candle), true
		}
	}

	return Signal{}, false
}

// fakeout checks for a one sided wick outside the range closing back inside.
// The trade goes against the wick and needs 1h trend support.
func (c Classifier) fakeout(rng OpeningRange, candle core.Candle) (core.Side, bool) {
	above := candle.High > rng.High
	below := candle.Low < rng.Low
	if above == below || !rng.Contains(candle.Close) {
		return 0, false
	}

	side := core.Buy
	if above {
		side = core.Sell
	}

	if c.Trend == nil {
		return 0, false
	}
	trend := c.Trend.TrendAt(core.H1, candle.Time)
	if !trend.Supports(side, c.ReversalStrength) {
		return 0, false
	}
	return side, true
}

func (c Classifier) signal(side core.Side, setup core.SetupType, candle core.Candle) Signal {
	return Signal{
		Side:   side,
		Price:  candle.Close,
		Time:   candle.Time,
		Setup:  setup,
		Candle: candle,
	}
}
