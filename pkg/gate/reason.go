package gate

import "fmt"

// Reason explains a gate decision
type Reason int

const (
	ReasonAligned Reason = iota
	ReasonContextUnavailable
	ReasonSoftConflictConfirmed
	ReasonSoftMixed1H
	ReasonSoftMixedLiquidity
	ReasonSoftMixedNarrowRange
	ReasonStrictMismatch
	ReasonSoftConflictUnconfirmed
	ReasonSoftMixedUnconfirmed
)

// Reasons lists every reason in declaration order
var Reasons = []Reason{
	ReasonAligned,
	ReasonContextUnavailable,
	ReasonSoftConflictConfirmed,
	ReasonSoftMixed1H,
	ReasonSoftMixedLiquidity,
	ReasonSoftMixedNarrowRange,
	ReasonStrictMismatch,
	ReasonSoftConflictUnconfirmed,
	ReasonSoftMixedUnconfirmed,
}

var reasonNames = map[Reason]string{
	ReasonAligned:                 "aligned",
	ReasonContextUnavailable:      "context_unavailable",
	ReasonSoftConflictConfirmed:   "soft_conflict_confirmed",
	ReasonSoftMixed1H:             "soft_mixed_1h",
	ReasonSoftMixedLiquidity:      "soft_mixed_liquidity",
	ReasonSoftMixedNarrowRange:    "soft_mixed_narrow_range",
	ReasonStrictMismatch:          "strict_mismatch",
	ReasonSoftConflictUnconfirmed: "soft_conflict_unconfirmed",
	ReasonSoftMixedUnconfirmed:    "soft_mixed_unconfirmed",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// Blocking reports whether the reason rejects the signal
func (r Reason) Blocking() bool {
	return r == ReasonStrictMismatch || r == ReasonSoftConflictUnconfirmed || r == ReasonSoftMixedUnconfirmed
}

// MarshalText implements encoding.TextMarshaler
func (r Reason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (r *Reason) UnmarshalText(b []byte) error {
	for reason, name := range reasonNames {
		if name == string(b) {
			*r = reason
			return nil
		}
	}
	return fmt.Errorf("invalid gate reason: %s", b)
}
