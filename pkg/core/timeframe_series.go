package core

import (
	"math"
	"sort"
	"time"
)

// TimeframeSeries holds candles of a single timeframe ordered by time
type TimeframeSeries struct {
	Timeframe Timeframe
	Candles   []Candle
}

// NewTimeframeSeries validates candles and wraps them into a series
func NewTimeframeSeries(tf Timeframe, candles []Candle) (*TimeframeSeries, error) {
	s := &TimeframeSeries{Timeframe: tf, Candles: candles}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks ordering and price sanity. The first defect is returned
// as a *DataIntegrityError; nothing is repaired.
func (s *TimeframeSeries) Validate() error {
	for i, c := range s.Candles {
		for _, p := range []float64{c.Open, c.High, c.Low, c.Close} {
			if math.IsNaN(p) || math.IsInf(p, 0) {
				return NewDataIntegrityError(s.Timeframe, c.Time, "non-finite price")
			}
			if p <= 0 {
				return NewDataIntegrityError(s.Timeframe, c.Time, "non-positive price %v", p)
			}
		}

		if c.High < c.Low || c.High < c.Open || c.High < c.Close || c.Low > c.Open || c.Low > c.Close {
			return NewDataIntegrityError(s.Timeframe, c.Time, "inconsistent ohlc %v/%v/%v/%v",
				c.Open, c.High, c.Low, c.Close)
		}

		if i > 0 && c.Time.Equal(s.Candles[i-1].Time) {
			return NewDataIntegrityError(s.Timeframe, c.Time, "duplicate timestamp")
		}
	}
	return s.ValidateOrder()
}

// ValidateOrder checks that no timestamp goes back in time. Duplicates
// pass, they are a fault of their own day rather than of the series.
func (s *TimeframeSeries) ValidateOrder() error {
	for i := 1; i < len(s.Candles); i++ {
		c, prev := s.Candles[i], s.Candles[i-1].Time
		if c.Time.Before(prev) {
			return NewDataIntegrityError(s.Timeframe, c.Time, "timestamp before %s", prev.Format(time.RFC3339))
		}
	}
	return nil
}

// Len returns the number of candles
func (s *TimeframeSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Candles)
}

// ClosedBy returns the candles completed at or before cutoff
func (s *TimeframeSeries) ClosedBy(cutoff time.Time) []Candle {
	if s == nil {
		return nil
	}
	d := s.Timeframe.Duration()
	idx := sort.Search(len(s.Candles), func(i int) bool {
		return s.Candles[i].Time.Add(d).After(cutoff)
	})
	return s.Candles[:idx]
}

// Between returns candles opened in [from, to)
func (s *TimeframeSeries) Between(from, to time.Time) []Candle {
	if s == nil {
		return nil
	}
	lo := sort.Search(len(s.Candles), func(i int) bool {
		return !s.Candles[i].Time.Before(from)
	})
	hi := sort.Search(len(s.Candles), func(i int) bool {
		return !s.Candles[i].Time.Before(to)
	})
	if hi < lo {
		return nil
	}
	return s.Candles[lo:hi]
}

// After returns candles opened strictly after t
func (s *TimeframeSeries) After(t time.Time) []Candle {
	if s == nil {
		return nil
	}
	idx := sort.Search(len(s.Candles), func(i int) bool {
		return s.Candles[i].Time.After(t)
	})
	return s.Candles[idx:]
}

// Closes extracts close prices from candles
func Closes(candles []Candle) Series[float64] {
	out := make(Series[float64], len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Highs extracts high prices from candles
func Highs(candles []Candle) Series[float64] {
	out := make(Series[float64], len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts low prices from candles
func Lows(candles []Candle) Series[float64] {
	out := make(Series[float64], len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}
