package simulator

import (
	"fmt"
	"time"

	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/gate"
	"github.com/raykavin/orbrun/pkg/marketctx"
)

// Outcome is the result of a replayed trade
type Outcome int

const (
	Unresolved Outcome = iota
	Win
	Loss
)

func (o Outcome) String() string {
	switch o {
	case Unresolved:
		return "unresolved"
	case Win:
		return "win"
	case Loss:
		return "loss"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// MarshalText implements encoding.TextMarshaler
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Outcome) UnmarshalText(b []byte) error {
	for _, v := range []Outcome{Unresolved, Win, Loss} {
		if v.String() == string(b) {
			*o = v
			return nil
		}
	}
	return fmt.Errorf("invalid outcome: %s", b)
}

// Resolution names the rule that closed a trade
type Resolution int

const (
	ResolutionNone Resolution = iota
	ResolutionTarget
	ResolutionStop
	// ResolutionTieStopFirst marks a candle that touched both levels
	ResolutionTieStopFirst
)

func (r Resolution) String() string {
	switch r {
	case ResolutionNone:
		return "none"
	case ResolutionTarget:
		return "target"
	case ResolutionStop:
		return "stop"
	case ResolutionTieStopFirst:
		return "tie_stop_first"
	}
	return fmt.Sprintf("Resolution(%d)", int(r))
}

// MarshalText implements encoding.TextMarshaler
func (r Resolution) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (r *Resolution) UnmarshalText(b []byte) error {
	for _, v := range []Resolution{ResolutionNone, ResolutionTarget, ResolutionStop, ResolutionTieStopFirst} {
		if v.String() == string(b) {
			*r = v
			return nil
		}
	}
	return fmt.Errorf("invalid resolution: %s", b)
}

// Context is the market state captured when the trade was admitted
type Context struct {
	Policy               gate.Policy
	Reason               gate.Reason
	Alignment            core.Direction
	AlignmentScore       float64
	DailyStrength        float64
	H4Strength           float64
	H1Strength           float64
	LiquidityDistancePct float64
	HasLiquidity         bool
	RangePct             float64
	RangeSize            float64
}

// NewContext captures the decision and snapshot that admitted a trade
func NewContext(decision gate.Decision, snap marketctx.Snapshot, rangeSize float64) Context {
	return Context{
		Policy:               decision.Policy,
		Reason:               decision.Reason,
		Alignment:            snap.Alignment.Direction,
		AlignmentScore:       snap.Alignment.Score,
		DailyStrength:        snap.Alignment.Trend(core.D1).Strength,
		H4Strength:           snap.Alignment.Trend(core.H4).Strength,
		H1Strength:           snap.Alignment.Trend(core.H1).Strength,
		LiquidityDistancePct: decision.LiquidityDistancePct,
		HasLiquidity:         decision.HasLiquidity,
		RangePct:             decision.RangePct,
		RangeSize:            rangeSize,
	}
}

// Trade is a simulated position. It is not modified after Simulate returns.
type Trade struct {
	ID     string
	Symbol string
	Day    time.Time
	Side   core.Side
	Setup  core.SetupType

	SignalTime time.Time
	EntryTime  time.Time
	EntryPrice float64
	Stop       float64
	Target     float64
	Size       float64
	RiskPoints float64
	RiskAmount float64

	Outcome    Outcome
	Resolution Resolution
	ExitTime   time.Time
	ExitPrice  float64
	PnLPoints  float64
	PnL        float64

	Context Context
}

// RMultiple expresses the result in units of initial risk
func (t Trade) RMultiple() float64 {
	if t.RiskPoints == 0 {
		return 0
	}
	return t.PnLPoints / t.RiskPoints
}

// Resolved reports whether the trade hit its stop or target
func (t Trade) Resolved() bool { return t.Outcome != Unresolved }

func (t Trade) String() string {
	return fmt.Sprintf("%s %s %s @ %.2f sl %.2f tp %.2f -> %s (%.2f)",
		t.Day.Format("2006-01-02"), t.Side, t.Setup, t.EntryPrice, t.Stop, t.Target, t.Outcome, t.PnL)
}
