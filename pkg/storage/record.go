package storage

import (
	"encoding"
	"time"

	"github.com/raykavin/orbrun/pkg/gate"
	"github.com/raykavin/orbrun/pkg/orb"
	"github.com/raykavin/orbrun/pkg/simulator"
)

// TradeRecord is the SQL row of a trade
type TradeRecord struct {
	ID     string    `gorm:"primaryKey;size:36"`
	Symbol string    `gorm:"index;size:32"`
	Day    time.Time `gorm:"index"`
	Side   string    `gorm:"size:8"`
	Setup  string    `gorm:"size:16"`

	SignalTime time.Time
	EntryTime  time.Time
	EntryPrice float64
	Stop       float64
	Target     float64
	Size       float64
	RiskPoints float64
	RiskAmount float64

	Outcome    string `gorm:"index;size:16"`
	Resolution string `gorm:"size:16"`
	ExitTime   time.Time
	ExitPrice  float64
	PnLPoints  float64
	PnL        float64

	Policy               string `gorm:"size:8"`
	Reason               string `gorm:"index;size:32"`
	Alignment            string `gorm:"size:16"`
	AlignmentScore       float64
	DailyStrength        float64
	H4Strength           float64
	H1Strength           float64
	LiquidityDistancePct float64
	HasLiquidity         bool
	RangePct             float64
	RangeSize            float64
}

func newTradeRecord(t simulator.Trade) TradeRecord {
	return TradeRecord{
		ID:                   t.ID,
		Symbol:               t.Symbol,
		Day:                  t.Day,
		Side:                 t.Side.String(),
		Setup:                t.Setup.String(),
		SignalTime:           t.SignalTime,
		EntryTime:            t.EntryTime,
		EntryPrice:           t.EntryPrice,
		Stop:                 t.Stop,
		Target:               t.Target,
		Size:                 t.Size,
		RiskPoints:           t.RiskPoints,
		RiskAmount:           t.RiskAmount,
		Outcome:              t.Outcome.String(),
		Resolution:           t.Resolution.String(),
		ExitTime:             t.ExitTime,
		ExitPrice:            t.ExitPrice,
		PnLPoints:            t.PnLPoints,
		PnL:                  t.PnL,
		Policy:               t.Context.Policy.String(),
		Reason:               t.Context.Reason.String(),
		Alignment:            t.Context.Alignment.String(),
		AlignmentScore:       t.Context.AlignmentScore,
		DailyStrength:        t.Context.DailyStrength,
		H4Strength:           t.Context.H4Strength,
		H1Strength:           t.Context.H1Strength,
		LiquidityDistancePct: t.Context.LiquidityDistancePct,
		HasLiquidity:         t.Context.HasLiquidity,
		RangePct:             t.Context.RangePct,
		RangeSize:            t.Context.RangeSize,
	}
}

// Trade converts the row back into a trade
func (r TradeRecord) Trade() (simulator.Trade, error) {
	t := simulator.Trade{
		ID:         r.ID,
		Symbol:     r.Symbol,
		Day:        r.Day.UTC(),
		SignalTime: r.SignalTime.UTC(),
		EntryTime:  r.EntryTime.UTC(),
		EntryPrice: r.EntryPrice,
		Stop:       r.Stop,
		Target:     r.Target,
		Size:       r.Size,
		RiskPoints: r.RiskPoints,
		RiskAmount: r.RiskAmount,
		ExitTime:   r.ExitTime.UTC(),
		ExitPrice:  r.ExitPrice,
		PnLPoints:  r.PnLPoints,
		PnL:        r.PnL,
		Context: simulator.Context{
			AlignmentScore:       r.AlignmentScore,
			DailyStrength:        r.DailyStrength,
			H4Strength:           r.H4Strength,
			H1Strength:           r.H1Strength,
			LiquidityDistancePct: r.LiquidityDistancePct,
			HasLiquidity:         r.HasLiquidity,
			RangePct:             r.RangePct,
			RangeSize:            r.RangeSize,
		},
	}

	err := unmarshalAll([]textField{
		{r.Side, &t.Side},
		{r.Setup, &t.Setup},
		{r.Outcome, &t.Outcome},
		{r.Resolution, &t.Resolution},
		{r.Policy, &t.Context.Policy},
		{r.Reason, &t.Context.Reason},
		{r.Alignment, &t.Context.Alignment},
	})
	return t, err
}

// DecisionRecord is the SQL row of a gate decision
type DecisionRecord struct {
	ID    uint      `gorm:"primaryKey"`
	Day   time.Time `gorm:"index"`
	Side  string    `gorm:"size:8"`
	Setup string    `gorm:"size:16"`
	Price float64
	// SignalTime is the open time of the trigger candle
	SignalTime time.Time

	Admitted             bool
	Reason               string `gorm:"index;size:32"`
	Policy               string `gorm:"size:8"`
	Alignment            string `gorm:"size:16"`
	H1Strength           float64
	RangePct             float64
	LiquidityDistancePct float64
	HasLiquidity         bool
}

func newDecisionRecord(day time.Time, d gate.Decision) DecisionRecord {
	return DecisionRecord{
		Day:                  day,
		Side:                 d.Signal.Side.String(),
		Setup:                d.Signal.Setup.String(),
		Price:                d.Signal.Price,
		SignalTime:           d.Signal.Time,
		Admitted:             d.Admitted,
		Reason:               d.Reason.String(),
		Policy:               d.Policy.String(),
		Alignment:            d.Alignment.String(),
		H1Strength:           d.H1Strength,
		RangePct:             d.RangePct,
		LiquidityDistancePct: d.LiquidityDistancePct,
		HasLiquidity:         d.HasLiquidity,
	}
}

// Entry converts the row back into a decision. The trigger candle is not
// stored.
func (r DecisionRecord) Entry() (DecisionEntry, error) {
	d := gate.Decision{
		Signal:               orb.Signal{Price: r.Price, Time: r.SignalTime.UTC()},
		Admitted:             r.Admitted,
		H1Strength:           r.H1Strength,
		RangePct:             r.RangePct,
		LiquidityDistancePct: r.LiquidityDistancePct,
		HasLiquidity:         r.HasLiquidity,
	}

	err := unmarshalAll([]textField{
		{r.Side, &d.Signal.Side},
		{r.Setup, &d.Signal.Setup},
		{r.Reason, &d.Reason},
		{r.Policy, &d.Policy},
		{r.Alignment, &d.Alignment},
	})
	return DecisionEntry{Day: r.Day.UTC(), Decision: d}, err
}

type textField struct {
	raw    string
	target encoding.TextUnmarshaler
}

func unmarshalAll(fields []textField) error {
	for _, f := range fields {
		if err := f.target.UnmarshalText([]byte(f.raw)); err != nil {
			return err
		}
	}
	return nil
}
