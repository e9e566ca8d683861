package orb

import (
	"fmt"
	"time"
)

// Session holds the intraday offsets, measured from midnight UTC, that
// frame a trading day
type Session struct {
	Open        time.Duration
	RangeLength time.Duration
	Close       time.Duration
}

// DefaultSession is the 07:00 UTC fifteen minute range closing at midnight
func DefaultSession() Session {
	return Session{
		Open:        7 * time.Hour,
		RangeLength: 15 * time.Minute,
		Close:       24 * time.Hour,
	}
}

// OpenAt returns the session open of day
func (s Session) OpenAt(day time.Time) time.Time { return day.Add(s.Open) }

// RangeEndAt returns the end of the opening range candle of day
func (s Session) RangeEndAt(day time.Time) time.Time { return day.Add(s.Open + s.RangeLength) }

// CloseAt returns the session close of day
func (s Session) CloseAt(day time.Time) time.Time { return day.Add(s.Close) }

// Validate checks the offsets are ordered within one day
func (s Session) Validate() error {
	switch {
	case s.Open < 0 || s.Open >= 24*time.Hour:
		return fmt.Errorf("session open %s outside the day", s.Open)
	case s.RangeLength <= 0:
		return fmt.Errorf("range length must be positive")
	case s.Close <= s.Open+s.RangeLength || s.Close > 24*time.Hour:
		return fmt.Errorf("session close %s must follow the range and stay within the day", s.Close)
	}
	return nil
}

// ParseClock parses "HH:MM" into an offset from midnight
func ParseClock(clock string) (time.Duration, error) {
	if clock == "24:00" {
		return 24 * time.Hour, nil
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", clock, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
