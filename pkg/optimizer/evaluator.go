package optimizer

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/raykavin/orbrun/pkg/backtest"
	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/gate"
	"github.com/raykavin/orbrun/pkg/marketctx"
	"github.com/raykavin/orbrun/pkg/metric"
	"github.com/raykavin/orbrun/pkg/simulator"
)

// Names of the settings an evaluator can vary
const (
	ParamMin1HStrength     = "min_1h_strength"
	ParamMaxORBPct         = "max_orb_pct"
	ParamMaxLiqDistancePct = "max_liq_distance_pct"
	ParamPolicy            = "policy"
	ParamEnableFakeouts    = "enable_fakeouts"
	ParamRiskReward        = "risk_reward"
	ParamStopBuffer        = "stop_buffer"
	ParamStopAnchor        = "stop_anchor"
)

// BacktestEvaluator runs an independent backtest per parameter set. The
// market context does not depend on the varied settings, so one analyzer
// is shared by every run.
type BacktestEvaluator struct {
	base     backtest.Settings
	data     core.MarketData
	analyzer *marketctx.Analyzer
}

// NewBacktestEvaluator prepares evaluations over data starting from base
func NewBacktestEvaluator(base backtest.Settings, data core.MarketData) *BacktestEvaluator {
	return &BacktestEvaluator{
		base:     base,
		data:     data,
		analyzer: marketctx.NewAnalyzer(base.Context, data.Higher()...),
	}
}

// Evaluate implements Evaluator
func (e *BacktestEvaluator) Evaluate(ctx context.Context, params ParameterSet) (*Result, error) {
	start := time.Now()

	settings, err := Apply(e.base, params)
	if err != nil {
		return nil, err
	}

	engine, err := backtest.New(settings, e.data, backtest.WithAnalyzer(e.analyzer))
	if err != nil {
		return nil, err
	}
	result, err := engine.Run(ctx)
	if err != nil {
		return nil, err
	}

	return &Result{
		Parameters: params,
		Metrics:    Metrics(metric.Summarize(result)),
		Duration:   time.Since(start),
	}, nil
}

// Apply returns a copy of base with params set
func Apply(base backtest.Settings, params ParameterSet) (backtest.Settings, error) {
	s := base
	s.Context.Trend = maps.Clone(base.Context.Trend)

	for name, value := range params {
		var err error
		switch name {
		case ParamMin1HStrength:
			s.Thresholds.Min1HStrength, err = asFloat(name, value)
		case ParamMaxORBPct:
			s.Thresholds.MaxORBPct, err = asFloat(name, value)
		case ParamMaxLiqDistancePct:
			s.Thresholds.MaxLiqDistancePct, err = asFloat(name, value)
		case ParamRiskReward:
			s.Simulator.RiskReward, err = asFloat(name, value)
		case ParamStopBuffer:
			s.Simulator.StopBuffer, err = asFloat(name, value)
		case ParamEnableFakeouts:
			enabled, ok := value.(bool)
			if !ok {
				err = fmt.Errorf("parameter %s must be a boolean", name)
			}
			s.EnableFakeouts = enabled
		case ParamPolicy:
			s.Policy, err = gate.ParsePolicy(fmt.Sprint(value))
		case ParamStopAnchor:
			s.Simulator.Anchor, err = simulator.ParseStopAnchor(fmt.Sprint(value))
		default:
			err = fmt.Errorf("unknown parameter: %s", name)
		}
		if err != nil {
			return s, err
		}
	}
	return s, s.Validate()
}

func asFloat(name string, value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}
	return 0, fmt.Errorf("parameter %s must be numeric", name)
}

// Metrics flattens a summary into the optimizer metrics
func Metrics(s metric.Summary) map[MetricName]float64 {
	return map[MetricName]float64{
		MetricProfit:       s.Profit(),
		MetricReturn:       s.ReturnPercent(),
		MetricWinRate:      s.WinPercentage(),
		MetricPayoff:       s.Payoff(),
		MetricProfitFactor: s.ProfitFactor(),
		MetricExpectancy:   s.Expectancy(),
		MetricSQN:          s.SQN(),
		MetricDrawdown:     s.MaxDrawdown().Percent,
		MetricTradeCount:   float64(len(s.Trades)),
		MetricBlocked:      float64(s.Blocked()),
	}
}
