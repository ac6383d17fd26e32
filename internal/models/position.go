package models

// Position is a per-symbol holding. Quantity is signed (positive long,
// negative short) and AvgPrice carries the sign of Quantity, or zero
// when flat.
type Position struct {
	Symbol      string
	Quantity    float64
	AvgPrice    float64
	RealizedPnL float64
}

// Flat reports whether the position holds no exposure.
func (p Position) Flat() bool { return p.Quantity == 0 }

// AbsAvgPrice returns the unsigned average entry price.
func (p Position) AbsAvgPrice() float64 {
	if p.AvgPrice < 0 {
		return -p.AvgPrice
	}
	return p.AvgPrice
}

// Exposure returns the absolute dollar exposure of the position.
func (p Position) Exposure() float64 {
	e := p.Quantity * p.AvgPrice
	if e < 0 {
		return -e
	}
	return e
}
