package simulator

import (
	"errors"
	"fmt"

	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/orb"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRisk      = errors.New("stop on the wrong side of entry")
	ErrPositionTooSmall = errors.New("position rounds to zero")
)

// StopAnchor selects the price the stop buffer is applied to
type StopAnchor int

const (
	// AnchorRangeOpen puts the stop beyond the opening range open
	AnchorRangeOpen StopAnchor = iota
	// AnchorSignalCandle puts the stop beyond the trigger candle extreme
	AnchorSignalCandle
)

func (a StopAnchor) String() string {
	switch a {
	case AnchorRangeOpen:
		return "range_open"
	case AnchorSignalCandle:
		return "signal_candle"
	}
	return fmt.Sprintf("StopAnchor(%d)", int(a))
}

// ParseStopAnchor converts a config name into a StopAnchor
func ParseStopAnchor(s string) (StopAnchor, error) {
	switch s {
	case "range_open":
		return AnchorRangeOpen, nil
	case "signal_candle":
		return AnchorSignalCandle, nil
	}
	return 0, fmt.Errorf("invalid stop anchor: %q", s)
}

// SizingMode selects how the risk amount is derived
type SizingMode int

const (
	SizingPercent SizingMode = iota
	SizingFixed
)

func (m SizingMode) String() string {
	switch m {
	case SizingPercent:
		return "percent"
	case SizingFixed:
		return "fixed"
	}
	return fmt.Sprintf("SizingMode(%d)", int(m))
}

// ParseSizingMode converts a config name into a SizingMode
func ParseSizingMode(s string) (SizingMode, error) {
	switch s {
	case "percent":
		return SizingPercent, nil
	case "fixed":
		return SizingFixed, nil
	}
	return 0, fmt.Errorf("invalid sizing mode: %q", s)
}

// Params configures trade construction and replay
type Params struct {
	StopBuffer float64
	RiskReward float64
	Anchor     StopAnchor

	Sizing SizingMode
	// RiskValue is a currency amount for fixed sizing or an equity fraction
	RiskValue float64

	Instrument    core.Instrument
	Session       orb.Session
	HoldOvernight bool
}

// DefaultParams returns 5 point buffer, 1:1 targets and 1% risk on GER40
func DefaultParams() Params {
	return Params{
		StopBuffer: 5,
		RiskReward: 1,
		Anchor:     AnchorRangeOpen,
		Sizing:     SizingPercent,
		RiskValue:  0.01,
		Instrument: core.Instrument{Symbol: "GER40", PointValue: 1, MinUnit: 0.01, TickSize: 0.1},
		Session:    orb.DefaultSession(),
	}
}

// Levels are the prices of a trade
type Levels struct {
	Entry  float64
	Stop   float64
	Target float64
	// Risk is the entry to stop distance in points
	Risk float64
}

// Levels derives stop and target for signal
func (p Params) Levels(signal orb.Signal, rng orb.OpeningRange) (Levels, error) {
	var anchor float64
	switch p.Anchor {
	case AnchorSignalCandle:
		anchor = signal.Candle.Low
		if signal.Side == core.Sell {
			anchor = signal.Candle.High
		}
	default:
		anchor = rng.Open
	}

	sign := signal.Side.Sign()
	lv := Levels{
		Entry: signal.Price,
		Stop:  anchor - sign*p.StopBuffer,
	}
	lv.Risk = (lv.Entry - lv.Stop) * sign
	if lv.Risk <= 0 {
		return Levels{}, fmt.Errorf("%w: entry %.2f stop %.2f", ErrInvalidRisk, lv.Entry, lv.Stop)
	}
	lv.Target = lv.Entry + sign*p.RiskReward*lv.Risk
	return lv, nil
}

// Size returns the position size for a stop distance of riskPoints,
// rounded down to the instrument's minimum unit, and the risk amount used.
func (p Params) Size(riskPoints, equity float64) (size, riskAmount float64, err error) {
	amount := decimal.NewFromFloat(p.RiskValue)
	if p.Sizing == SizingPercent {
		amount = amount.Mul(decimal.NewFromFloat(equity))
	}

	perUnit := decimal.NewFromFloat(riskPoints).Mul(decimal.NewFromFloat(p.pointValue()))
	if !perUnit.IsPositive() {
		return 0, 0, ErrInvalidRisk
	}

	raw := amount.Div(perUnit)
	if unit := decimal.NewFromFloat(p.Instrument.MinUnit); unit.IsPositive() {
		raw = raw.Div(unit).Floor().Mul(unit)
	}

	if !raw.IsPositive() {
		return 0, 0, fmt.Errorf("%w: risk %s over %.2f points", ErrPositionTooSmall, amount.StringFixed(2), riskPoints)
	}
	return raw.InexactFloat64(), amount.InexactFloat64(), nil
}

func (p Params) pointValue() float64 {
	if p.Instrument.PointValue <= 0 {
		return 1
	}
	return p.Instrument.PointValue
}
