package core

import (
	"fmt"
	"strconv"
	"time"
)

// Candle represents an OHLC bar. Time is the bar open time in UTC.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	// Marker flags exported by some charting platforms
	UpMarker   bool
	DownMarker bool

	// Additional columns from CSV inputs
	Metadata map[string]float64
}

// CloseTime returns the time the candle completes for the given timeframe
func (c Candle) CloseTime(tf Timeframe) time.Time { return c.Time.Add(tf.Duration()) }

// Day returns the UTC trading day the candle belongs to
func (c Candle) Day() time.Time { return DayOf(c.Time) }

// Touches reports whether price lies within the candle's traded range
func (c Candle) Touches(price float64) bool { return c.Low <= price && price <= c.High }

// Range returns high minus low
func (c Candle) Range() float64 { return c.High - c.Low }

// ToSlice converts a candle to a string slice for serialization
// with the specified decimal precision
func (c Candle) ToSlice(precision int) []string {
	return []string{
		fmt.Sprintf("%d", c.Time.Unix()),
		strconv.FormatFloat(c.Open, 'f', precision, 64),
		strconv.FormatFloat(c.High, 'f', precision, 64),
		strconv.FormatFloat(c.Low, 'f', precision, 64),
		strconv.FormatFloat(c.Close, 'f', precision, 64),
		strconv.FormatFloat(c.Volume, 'f', precision, 64),
	}
}

// DayOf truncates t to midnight UTC
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
