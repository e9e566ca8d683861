package marketctx

import (
	"time"

	"github.com/raykavin/orbrun/pkg/core"
)

// TrendSpec controls how a single timeframe is read
type TrendSpec struct {
	// Lookback keeps only the last n completed candles, 0 keeps all
	Lookback int
	// Window keeps candles opened within this duration before the cutoff, 0 disables
	Window time.Duration
	// MinSamples is the history required for a usable reading
	MinSamples int
	// AvgPeriod is the size of the recent and prior averages that are compared
	AvgPeriod int
	// Threshold is the relative change needed to call a direction
	Threshold float64
	// Weight is the share of the timeframe in the alignment score
	Weight float64
}

// LiquiditySpec controls swing and equal level detection on the daily series
type LiquiditySpec struct {
	Lookback       int
	SwingWindow    int
	Keep           int
	EqualTolerance float64
}

// Params configures an Analyzer
type Params struct {
	Trend           map[core.Timeframe]TrendSpec
	MinVoteStrength float64
	Liquidity       LiquiditySpec
}

// DefaultParams returns the reference GER40 settings
func DefaultParams() Params {
	return Params{
		Trend: map[core.Timeframe]TrendSpec{
			core.D1: {Lookback: 20, MinSamples: 5, AvgPeriod: 5, Threshold: 0.005, Weight: 0.5},
			core.H4: {Window: 32 * time.Hour, MinSamples: 3, AvgPeriod: 3, Threshold: 0.003, Weight: 0.3},
			core.H1: {Window: 20 * time.Hour, MinSamples: 3, AvgPeriod: 3, Threshold: 0.002, Weight: 0.2},
		},
		MinVoteStrength: 10,
		Liquidity: LiquiditySpec{
			Lookback:       5,
			SwingWindow:    1,
			Keep:           3,
			EqualTolerance: 0.001,
		},
	}
}

// ContextTimeframes are the higher timeframes that vote on alignment
var ContextTimeframes = []core.Timeframe{core.D1, core.H4, core.H1}
