package backtest

import (
	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/gate"
	"github.com/raykavin/orbrun/pkg/marketctx"
	"github.com/raykavin/orbrun/pkg/orb"
	"github.com/raykavin/orbrun/pkg/simulator"
)

// Settings is everything a run needs besides market data
type Settings struct {
	Session    orb.Session
	Context    marketctx.Params
	Policy     gate.Policy
	Thresholds gate.Thresholds
	Simulator  simulator.Params

	EnableFakeouts bool
	InitialEquity  float64

	// Days whose range falls outside [MinRangePoints, MaxRangePoints] are
	// skipped. Zero disables a bound.
	MinRangePoints float64
	MaxRangePoints float64
}

// DefaultSettings returns the reference GER40 setup
func DefaultSettings() Settings {
	sim := simulator.DefaultParams()
	return Settings{
		Session:       sim.Session,
		Context:       marketctx.DefaultParams(),
		Policy:        gate.Soft,
		Thresholds:    gate.DefaultThresholds(),
		Simulator:     sim,
		InitialEquity: 10000,
	}
}

// Validate rejects values outside their domain
func (s Settings) Validate() error {
	if err := s.Session.Validate(); err != nil {
		return core.ConfigError("%v", err)
	}

	sim := s.Simulator
	switch {
	case sim.StopBuffer < 0:
		return core.ConfigError("stop buffer must not be negative: %v", sim.StopBuffer)
	case sim.RiskReward <= 0:
		return core.ConfigError("risk reward must be positive: %v", sim.RiskReward)
	case sim.RiskValue <= 0:
		return core.ConfigError("risk value must be positive: %v", sim.RiskValue)
	case sim.Sizing == simulator.SizingPercent && sim.RiskValue > 1:
		return core.ConfigError("percent risk must be a fraction: %v", sim.RiskValue)
	case sim.Instrument.PointValue <= 0:
		return core.ConfigError("point value must be positive: %v", sim.Instrument.PointValue)
	case sim.Instrument.MinUnit < 0:
		return core.ConfigError("min unit must not be negative: %v", sim.Instrument.MinUnit)
	case s.InitialEquity <= 0:
		return core.ConfigError("initial equity must be positive: %v", s.InitialEquity)
	}

	th := s.Thresholds
	switch {
	case th.Min1HStrength < 0 || th.Min1HStrength > marketctx.MaxStrength:
		return core.ConfigError("min 1h strength must be within [0,100]: %v", th.Min1HStrength)
	case th.MaxORBPct < 0:
		return core.ConfigError("max orb pct must not be negative: %v", th.MaxORBPct)
	case th.MaxLiqDistancePct < 0:
		return core.ConfigError("max liquidity distance must not be negative: %v", th.MaxLiqDistancePct)
	}

	switch {
	case s.MinRangePoints < 0 || s.MaxRangePoints < 0:
		return core.ConfigError("range bounds must not be negative")
	case s.MaxRangePoints > 0 && s.MaxRangePoints < s.MinRangePoints:
		return core.ConfigError("max range %v below min range %v", s.MaxRangePoints, s.MinRangePoints)
	}

	for _, tf := range marketctx.ContextTimeframes {
		spec, ok := s.Context.Trend[tf]
		if !ok {
			return core.ConfigError("missing trend settings for %s", tf)
		}
		if spec.Threshold < 0 || spec.AvgPeriod < 1 {
			return core.ConfigError("invalid trend settings for %s", tf)
		}
	}
	return nil
}
