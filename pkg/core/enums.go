package core

import "fmt"

// Side is the trade direction
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// Opposite returns the other side
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Sign returns +1 for buys and -1 for sells
func (s Side) Sign() float64 {
	if s == Buy {
		return 1
	}
	return -1
}

// MarshalText implements encoding.TextMarshaler
func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "BUY":
		*s = Buy
	case "SELL":
		*s = Sell
	default:
		return fmt.Errorf("invalid side: %s", b)
	}
	return nil
}

// Direction is a trend or alignment category
type Direction int

const (
	Mixed Direction = iota
	Bullish
	WeakBullish
	WeakBearish
	Bearish
)

var directionNames = map[Direction]string{
	Mixed:       "mixed",
	Bullish:     "bullish",
	WeakBullish: "weak_bullish",
	WeakBearish: "weak_bearish",
	Bearish:     "bearish",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Supports reports whether the direction agrees with a trade on side
func (d Direction) Supports(side Side) bool {
	switch side {
	case Buy:
		return d == Bullish || d == WeakBullish
	case Sell:
		return d == Bearish || d == WeakBearish
	}
	return false
}

// Opposes reports whether the direction points against a trade on side
func (d Direction) Opposes(side Side) bool {
	return d.Supports(side.Opposite())
}

// MarshalText implements encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Direction) UnmarshalText(b []byte) error {
	for dir, name := range directionNames {
		if name == string(b) {
			*d = dir
			return nil
		}
	}
	return fmt.Errorf("invalid direction: %s", b)
}

// SetupType tells how a signal was produced
type SetupType int

const (
	Breakout SetupType = iota
	Fakeout
)

func (s SetupType) String() string {
	switch s {
	case Breakout:
		return "breakout"
	case Fakeout:
		return "fakeout"
	}
	return fmt.Sprintf("SetupType(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s SetupType) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (s *SetupType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "breakout":
		*s = Breakout
	case "fakeout":
		*s = Fakeout
	default:
		return fmt.Errorf("invalid setup type: %s", b)
	}
	return nil
}
