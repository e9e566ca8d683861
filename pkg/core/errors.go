package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrDataIntegrity is wrapped by every input validation failure
var ErrDataIntegrity = errors.New("data integrity")

// DataIntegrityError locates a defect in the input series
type DataIntegrityError struct {
	Timeframe Timeframe
	Time      time.Time
	Reason    string
}

func (e *DataIntegrityError) Error() string {
	if e.Time.IsZero() {
		return fmt.Sprintf("%s: %s: %s", ErrDataIntegrity, e.Timeframe, e.Reason)
	}
	return fmt.Sprintf("%s: %s at %s: %s", ErrDataIntegrity, e.Timeframe, e.Time.Format(time.RFC3339), e.Reason)
}

func (e *DataIntegrityError) Unwrap() error { return ErrDataIntegrity }

// NewDataIntegrityError builds a DataIntegrityError with a formatted reason
func NewDataIntegrityError(tf Timeframe, t time.Time, format string, args ...any) *DataIntegrityError {
	return &DataIntegrityError{Timeframe: tf, Time: t, Reason: fmt.Sprintf(format, args...)}
}

// ErrConfiguration is wrapped by every invalid setting
var ErrConfiguration = errors.New("invalid configuration")

// ConfigError wraps ErrConfiguration with a formatted message
func ConfigError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
