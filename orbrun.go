// Package orbrun wires configuration, market data and the backtest engine
// of the opening range breakout strategy
package orbrun

import (
	"context"
	"fmt"

	"github.com/raykavin/orbrun/pkg/backtest"
	"github.com/raykavin/orbrun/pkg/config"
	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/dataset"
	"github.com/raykavin/orbrun/pkg/feed"
	"github.com/raykavin/orbrun/pkg/gate"
	"github.com/raykavin/orbrun/pkg/logger"
	"github.com/raykavin/orbrun/pkg/marketctx"
	"github.com/raykavin/orbrun/pkg/optimizer"
	"github.com/raykavin/orbrun/pkg/storage"
	"golang.org/x/sync/errgroup"
)

// Backtest runs one configuration over one market. The context analyzer is
// built once and shared by every run.
type Backtest struct {
	settings backtest.Settings
	data     core.MarketData
	analyzer *marketctx.Analyzer

	storage  storage.Storage
	log      logger.Logger
	progress bool
}

// Variant is a policy and fakeout combination for comparisons
type Variant struct {
	Policy         gate.Policy
	EnableFakeouts bool
}

// DefaultVariants are strict, soft and soft with fakeouts
var DefaultVariants = []Variant{
	{Policy: gate.Strict},
	{Policy: gate.Soft},
	{Policy: gate.Soft, EnableFakeouts: true},
}

// Load reads the market data described by cfg
func Load(cfg *config.Config, log logger.Logger) (core.MarketData, error) {
	return feed.Load(feed.Source{
		Symbol:          cfg.Instrument.Symbol,
		Files:           cfg.Data.Paths(),
		ResampleMissing: cfg.Data.ResampleMissing,
	}, log)
}

// OpenStorage opens the store selected by cfg. SQLite wins over buntdb.
func OpenStorage(cfg config.StorageConfig) (storage.Storage, error) {
	if cfg.SQLite != "" {
		return storage.FromSQLite(cfg.SQLite)
	}
	if cfg.Path == "" {
		return storage.FromMemory()
	}
	return storage.FromFile(cfg.Path)
}

// New prepares a backtest of cfg over data
func New(cfg *config.Config, data core.MarketData, options ...Option) (*Backtest, error) {
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	return NewWithSettings(settings, data, options...)
}

// NewWithSettings prepares a backtest from already resolved settings
func NewWithSettings(settings backtest.Settings, data core.MarketData, options ...Option) (*Backtest, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	b := &Backtest{
		settings: settings,
		data:     data,
		log:      DefaultLog,
	}
	for _, option := range options {
		option(b)
	}

	b.analyzer = marketctx.NewAnalyzer(settings.Context, data.Higher()...)
	return b, nil
}

// Settings returns the resolved configuration
func (b *Backtest) Settings() backtest.Settings { return b.settings }

// Analyzer returns the shared context analyzer
func (b *Backtest) Analyzer() *marketctx.Analyzer { return b.analyzer }

// Run executes the configured backtest
func (b *Backtest) Run(ctx context.Context) (*backtest.Result, error) {
	options := []backtest.Option{
		backtest.WithAnalyzer(b.analyzer),
		backtest.WithLogger(b.log),
	}
	if b.storage != nil {
		options = append(options, backtest.WithRecorder(b.storage))
	}
	if b.progress {
		options = append(options, backtest.WithProgress())
	}
	return b.run(ctx, b.settings, options...)
}

func (b *Backtest) run(ctx context.Context, settings backtest.Settings, options ...backtest.Option) (*backtest.Result, error) {
	engine, err := backtest.New(settings, b.data, options...)
	if err != nil {
		return nil, err
	}

	result, err := engine.Run(ctx)
	if err != nil {
		return nil, err
	}

	b.log.WithFields(map[string]any{
		"symbol":  result.Symbol,
		"variant": result.Label(),
		"trades":  len(result.Trades),
		"faults":  len(result.Faults),
		"equity":  fmt.Sprintf("%.2f", result.FinalEquity),
	}).Info("Backtest finished")
	return result, nil
}

// Compare runs every variant concurrently with otherwise equal settings.
// Results keep the order of variants.
func (b *Backtest) Compare(ctx context.Context, variants ...Variant) ([]*backtest.Result, error) {
	if len(variants) == 0 {
		variants = DefaultVariants
	}

	results := make([]*backtest.Result, len(variants))
	g, ctx := errgroup.WithContext(ctx)
	for i, v := range variants {
		settings := b.settings
		settings.Policy = v.Policy
		settings.EnableFakeouts = v.EnableFakeouts

		g.Go(func() error {
			result, err := b.run(ctx, settings, backtest.WithAnalyzer(b.analyzer))
			if err != nil {
				return fmt.Errorf("%s: %w", v.Policy, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Optimize searches config.Parameters around the configured settings
func (b *Backtest) Optimize(ctx context.Context, config *optimizer.Config) ([]*optimizer.Result, error) {
	search, err := optimizer.NewGridSearch(config)
	if err != nil {
		return nil, err
	}
	return search.Optimize(ctx, optimizer.NewBacktestEvaluator(b.settings, b.data))
}

// Dataset labels every gate decision of result with its context features
func (b *Backtest) Dataset(result *backtest.Result) []dataset.Record {
	return dataset.NewBuilder(b.analyzer, b.data.Get(core.D1), b.settings.Session).Build(result)
}

// Run builds a Backtest from cfg and runs it over data
func Run(ctx context.Context, cfg *config.Config, data core.MarketData, options ...Option) (*backtest.Result, error) {
	b, err := New(cfg, data, options...)
	if err != nil {
		return nil, err
	}
	return b.Run(ctx)
}
