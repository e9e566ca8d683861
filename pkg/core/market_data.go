package core

import (
	"fmt"
	"time"
)

// MarketData bundles the series of one symbol
type MarketData struct {
	Symbol string
	Series map[Timeframe]*TimeframeSeries
}

// NewMarketData indexes series by timeframe
func NewMarketData(symbol string, series ...*TimeframeSeries) MarketData {
	md := MarketData{Symbol: symbol, Series: make(map[Timeframe]*TimeframeSeries, len(series))}
	for _, s := range series {
		if s != nil {
			md.Series[s.Timeframe] = s
		}
	}
	return md
}

// Get returns the series for tf or nil
func (m MarketData) Get(tf Timeframe) *TimeframeSeries {
	return m.Series[tf]
}

// Higher returns the context series that are present
func (m MarketData) Higher() []*TimeframeSeries {
	var out []*TimeframeSeries
	for _, tf := range []Timeframe{H1, H4, D1} {
		if s := m.Series[tf]; s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks every series
func (m MarketData) Validate() error {
	for _, tf := range Timeframes {
		s := m.Series[tf]
		if s == nil {
			continue
		}
		if s.Timeframe != tf {
			return NewDataIntegrityError(tf, time.Time{}, "series holds %s candles", s.Timeframe)
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%s: %w", m.Symbol, err)
		}
	}
	return nil
}
