package orb

import (
	"fmt"
	"time"

	"github.com/raykavin/orbrun/pkg/core"
)

// OpeningRange is the high/low box of the session open candle
type OpeningRange struct {
	Day   time.Time
	Start time.Time
	End   time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
	Size  float64
}

// Pct returns the range size relative to price
func (r OpeningRange) Pct(price float64) float64 {
	if price == 0 {
		return 0
	}
	return r.Size / price
}

// Contains reports whether price lies inside [Low, High]
func (r OpeningRange) Contains(price float64) bool {
	return r.Low <= price && price <= r.High
}

func (r OpeningRange) String() string {
	return fmt.Sprintf("%s [%.2f - %.2f]", r.Start.Format("2006-01-02 15:04"), r.Low, r.High)
}

// DetectRange locates the candle opened at the session open of day. It
// reports false when there is none. More than one match is a data
// integrity fault; matches are never merged.
func DetectRange(day time.Time, candles []core.Candle, session Session) (OpeningRange, bool, error) {
	day = core.DayOf(day)
	open := session.OpenAt(day)

	var (
		rng   OpeningRange
		found int
	)
	for _, c := range candles {
		if !c.Time.Equal(open) {
			continue
		}
		found++
		rng = OpeningRange{
			Day:   day,
			Start: c.Time,
			End:   c.Time.Add(session.RangeLength),
			Open:  c.Open,
			High:  c.High,
			Low:   c.Low,
			Close: c.Close,
			Size:  c.Range(),
		}
	}

	switch found {
	case 0:
		return OpeningRange{}, false, nil
	case 1:
		return rng, true, nil
	default:
		return OpeningRange{}, false, core.NewDataIntegrityError(core.M15, open, "%d range candles", found)
	}
}
