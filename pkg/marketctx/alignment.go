package marketctx

import "github.com/raykavin/orbrun/pkg/core"

// AlignmentResult combines the per timeframe readings
type AlignmentResult struct {
	Direction core.Direction
	Trends    map[core.Timeframe]TrendContext
	BullVotes int
	BearVotes int
	// Score is the weighted strength of the winning side in [0,1]
	Score float64
}

// Trend returns the reading for tf
func (a AlignmentResult) Trend(tf core.Timeframe) TrendContext {
	return a.Trends[tf]
}

// align counts a vote for every timeframe whose strength reaches minVote.
// Unanimous votes give the direction, a majority gives its weak form and
// anything else is mixed.
func align(trends map[core.Timeframe]TrendContext, params Params) AlignmentResult {
	result := AlignmentResult{Direction: core.Mixed, Trends: trends}

	var bullScore, bearScore float64
	for _, tf := range ContextTimeframes {
		trend, ok := trends[tf]
		if !ok || !trend.Available || trend.Strength < params.MinVoteStrength {
			continue
		}

		weight := params.Trend[tf].Weight * trend.Strength / MaxStrength
		switch trend.Direction {
		case core.Bullish:
			result.BullVotes++
			bullScore += weight
		case core.Bearish:
			result.BearVotes++
			bearScore += weight
		}
	}

	voters := len(ContextTimeframes)
	switch {
	case result.BullVotes == voters:
		result.Direction = core.Bullish
	case result.BearVotes == voters:
		result.Direction = core.Bearish
	case result.BullVotes*2 > voters && result.BullVotes > result.BearVotes:
		result.Direction = core.WeakBullish
	case result.BearVotes*2 > voters && result.BearVotes > result.BullVotes:
		result.Direction = core.WeakBearish
	}

	switch {
	case result.Direction.Supports(core.Buy):
		result.Score = bullScore
	case result.Direction.Supports(core.Sell):
		result.Score = bearScore
	default:
		result.Score = max(bullScore, bearScore)
	}
	return result
}
