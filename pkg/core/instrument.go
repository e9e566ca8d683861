package core

// Instrument describes the traded contract
type Instrument struct {
	Symbol string

	// PointValue is the account currency value of one point per unit
	PointValue float64
	// MinUnit is the smallest tradable position increment
	MinUnit  float64
	TickSize float64
}

// Precision returns the number of decimals needed to print prices
func (i Instrument) Precision() int {
	if i.TickSize <= 0 {
		return 2
	}
	return int(NumDecPlaces(i.TickSize))
}
