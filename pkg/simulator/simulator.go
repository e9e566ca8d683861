// Package simulator turns admitted signals into trades and resolves them
// by replaying the candles that follow the entry.
package simulator

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/orb"
	"github.com/shopspring/decimal"
)

var tradeNamespace = uuid.MustParse("6f1c7a52-52a0-4a8e-9b7e-3c1f0d1e2a90")

// Simulator builds and resolves trades
type Simulator struct {
	params Params
	series *core.TimeframeSeries
}

// New creates a simulator replaying candles from series
func New(params Params, series *core.TimeframeSeries) *Simulator {
	return &Simulator{params: params, series: series}
}

// Params returns the simulator configuration
func (s *Simulator) Params() Params { return s.params }

// Simulate opens a trade at the signal close and replays the following
// candles until the stop or target is touched. A candle touching both
// resolves as a loss. Without a touch before the replay ends the trade is
// unresolved.
func (s *Simulator) Simulate(signal orb.Signal, rng orb.OpeningRange, ctx Context, equity float64) (Trade, error) {
	levels, err := s.params.Levels(signal, rng)
	if err != nil {
		return Trade{}, err
	}

	size, riskAmount, err := s.params.Size(levels.Risk, equity)
	if err != nil {
		return Trade{}, err
	}

	trade := Trade{
		ID:         tradeID(s.params.Instrument.Symbol, signal),
		Symbol:     s.params.Instrument.Symbol,
		Day:        rng.Day,
		Side:       signal.Side,
		Setup:      signal.Setup,
		SignalTime: signal.Time,
		EntryTime:  signal.EntryTime(),
		EntryPrice: levels.Entry,
		Stop:       levels.Stop,
		Target:     levels.Target,
		Size:       size,
		RiskPoints: levels.Risk,
		RiskAmount: riskAmount,
		Context:    ctx,
	}

	for _, candle := range s.path(signal, rng) {
		hitStop := candle.Touches(trade.Stop) || beyond(signal.Side, candle, trade.Stop, false)
		hitTarget := candle.Touches(trade.Target) || beyond(signal.Side, candle, trade.Target, true)

		switch {
		case hitStop && hitTarget:
			return s.close(trade, Loss, ResolutionTieStopFirst, fill(candle, trade.Stop), candle.Time), nil
		case hitStop:
			return s.close(trade, Loss, ResolutionStop, fill(candle, trade.Stop), candle.Time), nil
		case hitTarget:
			return s.close(trade, Win, ResolutionTarget, fill(candle, trade.Target), candle.Time), nil
		}
	}

	return trade, nil
}

// path returns the candles replayed for a signal
func (s *Simulator) path(signal orb.Signal, rng orb.OpeningRange) []core.Candle {
	candles := s.series.After(signal.Time)
	if s.params.HoldOvernight {
		return candles
	}

	closeAt := s.params.Session.CloseAt(rng.Day)
	for i, c := range candles {
		if !c.Time.Before(closeAt) {
			return candles[:i]
		}
	}
	return candles
}

// beyond catches gaps that open past a level without trading through it
func beyond(side core.Side, c core.Candle, level float64, profit bool) bool {
	if (side == core.Buy) == profit {
		return c.Low > level
	}
	return c.High < level
}

// fill is the level itself, or the open when the candle gapped past it
func fill(c core.Candle, level float64) float64 {
	if c.Touches(level) {
		return level
	}
	return c.Open
}

func (s *Simulator) close(trade Trade, outcome Outcome, rule Resolution, price float64, at time.Time) Trade {
	trade.Outcome = outcome
	trade.Resolution = rule
	trade.ExitPrice = price
	trade.ExitTime = at
	trade.PnLPoints = (price - trade.EntryPrice) * trade.Side.Sign()

	pnl := decimal.NewFromFloat(trade.PnLPoints).
		Mul(decimal.NewFromFloat(trade.Size)).
		Mul(decimal.NewFromFloat(s.params.pointValue())).
		Round(2)
	trade.PnL = pnl.InexactFloat64()
	return trade
}

func tradeID(symbol string, signal orb.Signal) string {
	key := fmt.Sprintf("%s|%s|%s|%s", symbol, signal.Time.UTC().Format(time.RFC3339), signal.Side, signal.Setup)
	return uuid.NewSHA1(tradeNamespace, []byte(key)).String()
}
