// Package gate decides whether a breakout signal is traded given the
// higher timeframe context.
package gate

import (
	"fmt"

	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/marketctx"
	"github.com/raykavin/orbrun/pkg/orb"
)

// Policy selects how conflicts with the context are handled
type Policy int

const (
	Soft Policy = iota
	Strict
)

func (p Policy) String() string {
	switch p {
	case Soft:
		return "soft"
	case Strict:
		return "strict"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy converts "strict" or "soft" into a Policy
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "soft":
		return Soft, nil
	case "strict":
		return Strict, nil
	}
	return 0, fmt.Errorf("invalid context policy: %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (p Policy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Policy) UnmarshalText(b []byte) error {
	parsed, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Thresholds are the soft policy confirmations
type Thresholds struct {
	Min1HStrength     float64
	MaxORBPct         float64
	MaxLiqDistancePct float64
}

// DefaultThresholds returns the reference confirmations
func DefaultThresholds() Thresholds {
	return Thresholds{
		Min1HStrength:     30,
		MaxORBPct:         0.004,
		MaxLiqDistancePct: 0.005,
	}
}

// Decision records the outcome of Admit
type Decision struct {
	Signal    orb.Signal
	Admitted  bool
	Reason    Reason
	Policy    Policy
	Alignment core.Direction

	H1Strength float64
	RangePct   float64
	// LiquidityDistancePct is set when a pool lies beyond the breakout side
	LiquidityDistancePct float64
	HasLiquidity         bool
}

// Admit applies policy to a signal. It has no side effects.
func Admit(signal orb.Signal, snap marketctx.Snapshot, rng orb.OpeningRange, policy Policy, th Thresholds) Decision {
	d := Decision{
		Signal:    signal,
		Policy:    policy,
		Alignment: snap.Alignment.Direction,
		RangePct:  rng.Pct(signal.Price),
	}

	h1 := snap.Alignment.Trend(core.H1)
	if h1.Available && h1.Direction.Supports(signal.Side) {
		d.H1Strength = h1.Strength
	}
	if _, distance, ok := snap.NearestBeyond(signal.Side, rng.High, rng.Low, signal.Price); ok {
		d.LiquidityDistancePct = distance
		d.HasLiquidity = true
	}

	if !snap.Available {
		return d.admit(ReasonContextUnavailable)
	}

	alignment := snap.Alignment.Direction
	if alignment.Supports(signal.Side) {
		return d.admit(ReasonAligned)
	}

	if policy == Strict {
		return d.block(ReasonStrictMismatch)
	}

	h1Confirms := h1.Supports(signal.Side, th.Min1HStrength)
	liquidityConfirms := d.HasLiquidity && d.LiquidityDistancePct <= th.MaxLiqDistancePct

	if alignment.Opposes(signal.Side) {
		if h1Confirms && liquidityConfirms {
			return d.admit(ReasonSoftConflictConfirmed)
		}
		return d.block(ReasonSoftConflictUnconfirmed)
	}

	switch {
	case h1Confirms:
		return d.admit(ReasonSoftMixed1H)
	case liquidityConfirms:
		return d.admit(ReasonSoftMixedLiquidity)
	case d.RangePct <= th.MaxORBPct:
		return d.admit(ReasonSoftMixedNarrowRange)
	}
	return d.block(ReasonSoftMixedUnconfirmed)
}

func (d Decision) admit(reason Reason) Decision {
	d.Admitted = true
	d.Reason = reason
	return d
}

func (d Decision) block(reason Reason) Decision {
	d.Admitted = false
	d.Reason = reason
	return d
}
