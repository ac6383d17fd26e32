// Package engine implements the deterministic, event-driven backtest
// execution engine: order book, matching, portfolio ledger, and equity
// recording.
package engine

import (
	"math/rand"

	"quantbt/internal/models"
)

// CommissionModel computes the fee charged for an execution.
type CommissionModel interface {
	// Commission returns a non-negative fee for a fill of the given
	// absolute notional on the given side.
	Commission(notional float64, side models.OrderSide) float64
}

// SlippageModel adjusts a reference price into an execution price. The
// model may consult the engine's seeded RNG but must be pure given its
// inputs and the RNG state, so runs stay reproducible.
type SlippageModel interface {
	Adjust(ref float64, side models.OrderSide, rng *rand.Rand) float64
}

// PriceExtractor maps a market event to its reference price.
type PriceExtractor interface {
	RefPrice(ev models.MarketEvent) float64
}

// ZeroCommission charges nothing.
type ZeroCommission struct{}

// Commission implements CommissionModel.
func (ZeroCommission) Commission(float64, models.OrderSide) float64 { return 0 }

// BPSCommission charges a flat fraction of notional in basis points.
type BPSCommission struct {
	BPS float64
}

// Commission implements CommissionModel.
func (c BPSCommission) Commission(notional float64, _ models.OrderSide) float64 {
	return notional * c.BPS * 1e-4
}

// PerOrderCommission charges a fixed fee per executed order.
type PerOrderCommission struct {
	Fee float64
}

// Commission implements CommissionModel.
func (c PerOrderCommission) Commission(float64, models.OrderSide) float64 { return c.Fee }

// NoSlippage executes exactly at the reference price.
type NoSlippage struct{}

// Adjust implements SlippageModel.
func (NoSlippage) Adjust(ref float64, _ models.OrderSide, _ *rand.Rand) float64 { return ref }

// BPSSlippage worsens the reference price by a fixed number of basis
// points against the trade: buys pay up, sells receive less.
type BPSSlippage struct {
	BPS float64
}

// Adjust implements SlippageModel.
func (s BPSSlippage) Adjust(ref float64, side models.OrderSide, _ *rand.Rand) float64 {
	return ref + side.Sign()*ref*s.BPS*1e-4
}

// JitterSlippage worsens the price by BPS plus a uniform random
// component in [0, JitterBPS), drawn from the engine's seeded RNG.
type JitterSlippage struct {
	BPS       float64
	JitterBPS float64
}

// Adjust implements SlippageModel.
func (s JitterSlippage) Adjust(ref float64, side models.OrderSide, rng *rand.Rand) float64 {
	bps := s.BPS
	if s.JitterBPS > 0 && rng != nil {
		bps += rng.Float64() * s.JitterBPS
	}
	return ref + side.Sign()*ref*bps*1e-4
}

// ClosePrice extracts the bar close or the tick trade price.
type ClosePrice struct{}

// RefPrice implements PriceExtractor.
func (ClosePrice) RefPrice(ev models.MarketEvent) float64 {
	switch e := ev.(type) {
	case models.Bar:
		return e.Close
	case models.Tick:
		return e.Price
	}
	return 0
}
