package strategy

import (
	"quantbt/internal/engine"
	"quantbt/internal/models"
)

// RSIReversion buys when RSI recovers up through the oversold level
// and exits when it falls back through the overbought level.
type RSIReversion struct {
	Symbol     string
	Quantity   float64
	Period     int
	Oversold   float64
	Overbought float64

	closes []float64
}

// Name identifies the strategy in logs and errors.
func (s *RSIReversion) Name() string { return "rsi_reversion" }

// OnStart implements engine.Strategy.
func (s *RSIReversion) OnStart(*engine.Context) error { return nil }

// OnEvent implements engine.Strategy.
func (s *RSIReversion) OnEvent(ctx *engine.Context, ev models.MarketEvent) error {
	bar, ok := ev.(models.Bar)
	if !ok || bar.Symbol != s.Symbol {
		return nil
	}
	s.closes = append(s.closes, bar.Close)
	if len(s.closes) <= s.Period+1 {
		return nil
	}

	last := len(s.closes) - 1
	now := rsi(s.closes, last, s.Period)
	prev := rsi(s.closes, last-1, s.Period)

	switch {
	case prev <= s.Oversold && now > s.Oversold:
		return rebalance(ctx, s.Symbol, s.Quantity)
	case prev >= s.Overbought && now < s.Overbought:
		return rebalance(ctx, s.Symbol, 0)
	}
	return nil
}

// OnFinish implements engine.Strategy.
func (s *RSIReversion) OnFinish(*engine.Context) error { return nil }

// rsi computes the simple (non-smoothed) RSI over the trailing period.
func rsi(closes []float64, index, period int) float64 {
	if index < period {
		return 50
	}
	var gains, losses float64
	for i := index - period + 1; i <= index; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	if losses == 0 {
		return 100
	}
	rs := gains / losses
	return 100 - 100/(1+rs)
}
