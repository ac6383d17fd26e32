package strategy

import (
	"quantbt/internal/engine"
	"quantbt/internal/models"
)

// SMACrossover goes long when the short moving average crosses above
// the long one and exits (or flips short) on the opposite cross.
type SMACrossover struct {
	Symbol      string
	Quantity    float64
	ShortPeriod int
	LongPeriod  int
	GoShort     bool

	closes []float64
}

// Name identifies the strategy in logs and errors.
func (s *SMACrossover) Name() string { return "sma_crossover" }

// OnStart implements engine.Strategy.
func (s *SMACrossover) OnStart(*engine.Context) error { return nil }

// OnEvent implements engine.Strategy.
func (s *SMACrossover) OnEvent(ctx *engine.Context, ev models.MarketEvent) error {
	bar, ok := ev.(models.Bar)
	if !ok || bar.Symbol != s.Symbol {
		return nil
	}
	s.closes = append(s.closes, bar.Close)
	if len(s.closes) <= s.LongPeriod {
		return nil
	}

	last := len(s.closes) - 1
	shortNow := sma(s.closes, last, s.ShortPeriod)
	longNow := sma(s.closes, last, s.LongPeriod)
	shortPrev := sma(s.closes, last-1, s.ShortPeriod)
	longPrev := sma(s.closes, last-1, s.LongPeriod)

	switch {
	case shortPrev <= longPrev && shortNow > longNow:
		return rebalance(ctx, s.Symbol, s.Quantity)
	case shortPrev >= longPrev && shortNow < longNow:
		target := 0.0
		if s.GoShort {
			target = -s.Quantity
		}
		return rebalance(ctx, s.Symbol, target)
	}
	return nil
}

// OnFinish implements engine.Strategy.
func (s *SMACrossover) OnFinish(*engine.Context) error { return nil }

// sma averages the period closes ending at index.
func sma(closes []float64, index, period int) float64 {
	if index < period-1 {
		return 0
	}
	var sum float64
	for i := index - period + 1; i <= index; i++ {
		sum += closes[i]
	}
	return sum / float64(period)
}
