package optimizer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/raykavin/orbrun/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// GridSearch evaluates every combination of parameter values
type GridSearch struct {
	config *Config
	log    logger.Logger
}

// NewGridSearch creates a new grid search optimizer
func NewGridSearch(config *Config) (*GridSearch, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &GridSearch{config: config, log: orNop(config.Logger)}, nil
}

// Optimize runs the grid search and returns results best first
func (g *GridSearch) Optimize(ctx context.Context, evaluator Evaluator) ([]*Result, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator cannot be nil")
	}

	parameterSets := generateParameterSets(g.config.Parameters)
	if len(parameterSets) > g.config.MaxIterations {
		g.log.Warnf("Limiting parameter combinations from %d to %d", len(parameterSets), g.config.MaxIterations)
		parameterSets = parameterSets[:g.config.MaxIterations]
	}

	g.log.Infof("Starting grid search with %d parameter combinations", len(parameterSets))
	results, err := runEvaluations(ctx, evaluator, parameterSets, g.config.Parallelism, g.log)
	if err != nil {
		return nil, err
	}

	SortResults(results, g.config.TargetMetric, g.config.Maximize)
	g.log.Infof("Grid search completed with %d results", len(results))
	return results, nil
}

// RandomSearch evaluates parameter sets drawn from the grid
type RandomSearch struct {
	config *Config
	log    logger.Logger
	rng    *rand.Rand
}

// NewRandomSearch creates a random search seeded from the config
func NewRandomSearch(config *Config) (*RandomSearch, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &RandomSearch{
		config: config,
		log:    orNop(config.Logger),
		rng:    rand.New(rand.NewSource(config.Seed)),
	}, nil
}

// Optimize draws MaxIterations distinct sets, or the whole grid when it is
// smaller, and returns results best first
func (r *RandomSearch) Optimize(ctx context.Context, evaluator Evaluator) ([]*Result, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator cannot be nil")
	}

	grid := generateParameterSets(r.config.Parameters)
	if len(grid) > r.config.MaxIterations {
		r.rng.Shuffle(len(grid), func(i, j int) { grid[i], grid[j] = grid[j], grid[i] })
		grid = grid[:r.config.MaxIterations]
	}

	r.log.Infof("Starting random search with %d iterations", len(grid))
	results, err := runEvaluations(ctx, evaluator, grid, r.config.Parallelism, r.log)
	if err != nil {
		return nil, err
	}

	SortResults(results, r.config.TargetMetric, r.config.Maximize)
	return results, nil
}

// generateParameterSets builds the cartesian product of parameter values
func generateParameterSets(parameters []Parameter) []ParameterSet {
	parameterSets := []ParameterSet{{}}
	for _, param := range parameters {
		values := generateParameterValues(param)

		next := make([]ParameterSet, 0, len(parameterSets)*len(values))
		for _, set := range parameterSets {
			for _, value := range values {
				newSet := set.clone()
				newSet[param.Name] = value
				next = append(next, newSet)
			}
		}
		parameterSets = next
	}
	return parameterSets
}

// generateParameterValues steps through the range with decimal arithmetic
// so float grids do not drift
func generateParameterValues(param Parameter) []any {
	switch param.Type {
	case TypeBool:
		return []any{false, true}
	case TypeCategorical:
		values := make([]any, len(param.Options))
		for i, option := range param.Options {
			values[i] = option
		}
		return values
	}

	var values []any
	limit := decimal.NewFromFloat(param.Max)
	step := decimal.NewFromFloat(param.Step)
	for v := decimal.NewFromFloat(param.Min); v.LessThanOrEqual(limit); v = v.Add(step) {
		if param.Type == TypeInt {
			values = append(values, int(v.IntPart()))
			continue
		}
		values = append(values, v.InexactFloat64())
	}
	return values
}

// runEvaluations evaluates sets with at most parallelism running at once.
// Results keep the order of parameterSets.
func runEvaluations(ctx context.Context, evaluator Evaluator, parameterSets []ParameterSet,
	parallelism int, log logger.Logger) ([]*Result, error) {

	if parallelism < 1 {
		parallelism = 1
	}

	results := make([]*Result, len(parameterSets))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(parallelism)

	for i, params := range parameterSets {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			log.Debugf("Evaluating parameter set %d/%d %s", i+1, len(parameterSets), params)
			start := time.Now()
			result, err := evaluator.Evaluate(ctx, params)
			if err != nil {
				return fmt.Errorf("evaluation error %s: %w", params, err)
			}
			if result.Duration == 0 {
				result.Duration = time.Since(start)
			}
			results[i] = result
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func orNop(log logger.Logger) logger.Logger {
	if log == nil {
		return logger.Nop()
	}
	return log
}
