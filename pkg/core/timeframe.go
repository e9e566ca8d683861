package core

import (
	"fmt"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

// Timeframe is one of the bar sizes the engine consumes
type Timeframe int

const (
	M15 Timeframe = iota
	H1
	H4
	D1
)

// Timeframes lists every supported timeframe from shortest to longest
var Timeframes = []Timeframe{M15, H1, H4, D1}

var timeframeNames = map[Timeframe]string{
	M15: "15m",
	H1:  "1h",
	H4:  "4h",
	D1:  "1d",
}

func (t Timeframe) String() string {
	if name, ok := timeframeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Timeframe(%d)", int(t))
}

// Duration returns the bar length
func (t Timeframe) Duration() time.Duration {
	d, err := str2duration.ParseDuration(t.String())
	if err != nil {
		return 0
	}
	return d
}

// MarshalText implements encoding.TextMarshaler
func (t Timeframe) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *Timeframe) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeframe(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTimeframe converts names such as "15m" or "4h" into a Timeframe
func ParseTimeframe(s string) (Timeframe, error) {
	for tf, name := range timeframeNames {
		if name == s {
			return tf, nil
		}
	}
	return 0, fmt.Errorf("invalid timeframe: %s", s)
}
