// Package optimizer searches gate and simulator settings for the best
// performing combination
package optimizer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/raykavin/orbrun/pkg/logger"
)

// ParameterType defines the data type of a parameter
type ParameterType string

const (
	TypeInt         ParameterType = "int"
	TypeFloat       ParameterType = "float"
	TypeBool        ParameterType = "bool"
	TypeCategorical ParameterType = "categorical"
)

// Parameter is a setting that can be varied between runs
type Parameter struct {
	Name        string
	Description string
	Type        ParameterType
	Min         float64
	Max         float64
	Step        float64
	// Options holds the values of categorical parameters
	Options []string
}

// ParameterSet maps parameter names to the value of one run. Values are
// int, float64, bool or string according to the parameter type.
type ParameterSet map[string]any

func (p ParameterSet) String() string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %v", name, p[name])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (p ParameterSet) clone() ParameterSet {
	out := make(ParameterSet, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// MetricName defines standard metric names for optimization
type MetricName string

const (
	MetricProfit       MetricName = "profit"
	MetricReturn       MetricName = "return_pct"
	MetricWinRate      MetricName = "win_rate"
	MetricPayoff       MetricName = "payoff"
	MetricProfitFactor MetricName = "profit_factor"
	MetricExpectancy   MetricName = "expectancy"
	MetricSQN          MetricName = "sqn"
	MetricDrawdown     MetricName = "drawdown"
	MetricTradeCount   MetricName = "trade_count"
	MetricBlocked      MetricName = "blocked"
)

// Result is the outcome of one evaluation
type Result struct {
	Parameters ParameterSet
	Metrics    map[MetricName]float64
	Duration   time.Duration
}

// Evaluator runs one parameter set
type Evaluator interface {
	Evaluate(ctx context.Context, params ParameterSet) (*Result, error)
}

// Config holds configuration for the optimization process
type Config struct {
	Parameters    []Parameter
	MaxIterations int
	Parallelism   int
	Logger        logger.Logger
	TargetMetric  MetricName
	Maximize      bool
	// Seed drives the random search
	Seed int64
}

// NewConfig creates a default configuration
func NewConfig() *Config {
	return &Config{
		MaxIterations: 100,
		Parallelism:   1,
		TargetMetric:  MetricProfit,
		Maximize:      true,
		Seed:          1,
	}
}

// WithParameters adds parameters to the configuration
func (c *Config) WithParameters(params ...Parameter) *Config {
	c.Parameters = append(c.Parameters, params...)
	return c
}

// WithMaxIterations sets the maximum number of evaluations
func (c *Config) WithMaxIterations(iterations int) *Config {
	c.MaxIterations = iterations
	return c
}

// WithParallelism sets the number of parallel evaluations
func (c *Config) WithParallelism(n int) *Config {
	c.Parallelism = n
	return c
}

// WithLogger sets the logger
func (c *Config) WithLogger(log logger.Logger) *Config {
	c.Logger = log
	return c
}

// WithTargetMetric sets the metric results are ranked by
func (c *Config) WithTargetMetric(metric MetricName, maximize bool) *Config {
	c.TargetMetric = metric
	c.Maximize = maximize
	return c
}

// WithSeed sets the random search seed
func (c *Config) WithSeed(seed int64) *Config {
	c.Seed = seed
	return c
}

func (c *Config) validate() error {
	if len(c.Parameters) == 0 {
		return fmt.Errorf("at least one parameter must be provided")
	}
	for _, p := range c.Parameters {
		if err := p.validate(); err != nil {
			return err
		}
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be positive")
	}
	return nil
}

func (p Parameter) validate() error {
	switch p.Type {
	case TypeInt, TypeFloat:
		if p.Step <= 0 {
			return fmt.Errorf("parameter %s step value must be positive", p.Name)
		}
		if p.Max < p.Min {
			return fmt.Errorf("parameter %s max below min", p.Name)
		}
	case TypeBool:
	case TypeCategorical:
		if len(p.Options) == 0 {
			return fmt.Errorf("parameter %s of type %s must have options", p.Name, p.Type)
		}
	default:
		return fmt.Errorf("unsupported parameter type: %s", p.Type)
	}
	return nil
}

// SortResults orders results by metric, best first. Ties keep their order.
func SortResults(results []*Result, metric MetricName, maximize bool) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Metrics[metric], results[j].Metrics[metric]
		if maximize {
			return a > b
		}
		return a < b
	})
}

// DefaultParameters is the gate search space of the compare scripts
func DefaultParameters() []Parameter {
	return []Parameter{
		{
			Name:        ParamMin1HStrength,
			Description: "1h trend strength that admits a mixed context signal",
			Type:        TypeFloat,
			Min:         20,
			Max:         50,
			Step:        10,
		},
		{
			Name:        ParamMaxORBPct,
			Description: "Largest range, relative to price, that admits a mixed context signal",
			Type:        TypeFloat,
			Min:         0.002,
			Max:         0.006,
			Step:        0.001,
		},
		{
			Name:        ParamMaxLiqDistancePct,
			Description: "Distance to a liquidity pool that admits a mixed context signal",
			Type:        TypeFloat,
			Min:         0.003,
			Max:         0.007,
			Step:        0.001,
		},
	}
}
