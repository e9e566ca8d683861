// Package feed loads candles from CSV exports and exchanges into the series
// consumed by the engine
package feed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/logger"
	"github.com/samber/lo"
)

// Source describes where the candles of one symbol are stored
type Source struct {
	Symbol string
	Files  map[core.Timeframe]string

	// Build missing context series from the 15m candles
	ResampleMissing bool
}

// Load reads every configured file. The 15m file is mandatory; context files
// that do not exist are resampled or left out.
func Load(source Source, log logger.Logger) (core.MarketData, error) {
	if log == nil {
		log = logger.Nop()
	}

	path := source.Files[core.M15]
	if path == "" {
		return core.MarketData{}, fmt.Errorf("%w: no 15m file", core.ErrConfiguration)
	}
	base, err := LoadCSV(path, core.M15)
	if err != nil {
		return core.MarketData{}, err
	}
	log.WithFields(map[string]any{
		"symbol":  source.Symbol,
		"candles": base.Len(),
	}).Infof("Loaded %s", core.M15)

	series := []*core.TimeframeSeries{base}
	for _, tf := range []core.Timeframe{core.H1, core.H4, core.D1} {
		s, err := loadContext(source, tf, base, log)
		if err != nil {
			return core.MarketData{}, err
		}
		if s != nil {
			series = append(series, s)
		}
	}

	data := core.NewMarketData(source.Symbol, series...)
	return data, data.Validate()
}

func loadContext(source Source, tf core.Timeframe, base *core.TimeframeSeries, log logger.Logger) (*core.TimeframeSeries, error) {
	path := source.Files[tf]
	if path != "" {
		s, err := LoadCSV(path, tf)
		switch {
		case err == nil:
			log.WithField("candles", s.Len()).Infof("Loaded %s", tf)
			return s, nil
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}

	if !source.ResampleMissing {
		log.Warnf("No %s data, context for this timeframe is unavailable", tf)
		return nil, nil
	}

	candles, err := Resample(base.Candles, core.M15, tf)
	if err != nil {
		return nil, err
	}
	log.WithField("candles", len(candles)).Infof("Resampled %s from %s", tf, core.M15)
	return core.NewTimeframeSeries(tf, candles)
}

// CSVFeed serves candles already held in memory
type CSVFeed struct {
	data core.MarketData
}

// NewCSVFeed wraps loaded market data into a core.Feeder
func NewCSVFeed(data core.MarketData) *CSVFeed {
	return &CSVFeed{data: data}
}

// CandlesByPeriod returns candles opening within [start, end]
func (c *CSVFeed) CandlesByPeriod(_ context.Context, symbol string, tf core.Timeframe, start, end time.Time) ([]core.Candle, error) {
	if symbol != c.data.Symbol {
		return nil, fmt.Errorf("unknown symbol %s", symbol)
	}
	series := c.data.Get(tf)
	if series == nil {
		return nil, fmt.Errorf("no %s candles for %s", tf, symbol)
	}

	return lo.Filter(series.Candles, func(candle core.Candle, _ int) bool {
		return !candle.Time.Before(start) && !candle.Time.After(end)
	}), nil
}
