// Package strategy provides built-in strategies for the backtest
// engine. Each strategy reacts to replayed events through the engine's
// Context surface; none of them touch engine internals.
package strategy

import (
	"strings"

	"quantbt/internal/engine"
	"quantbt/internal/errors"
	"quantbt/internal/models"
)

// Params carries strategy tuning parameters by name. Unknown keys are
// ignored; missing keys fall back to per-strategy defaults.
type Params map[string]float64

func (p Params) intOr(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}

func (p Params) floatOr(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// New builds a named strategy trading one symbol with a fixed order
// quantity.
func New(name, symbol string, quantity float64, params Params) (engine.Strategy, error) {
	if symbol == "" {
		return nil, errors.NewValidationError("symbol", symbol, "symbol is required")
	}
	if quantity <= 0 {
		return nil, errors.NewValidationError("quantity", quantity, "quantity must be positive")
	}
	switch strings.ToLower(name) {
	case "sma", "sma_crossover":
		return &SMACrossover{
			Symbol:      symbol,
			Quantity:    quantity,
			ShortPeriod: params.intOr("short_period", 10),
			LongPeriod:  params.intOr("long_period", 20),
			GoShort:     params.floatOr("go_short", 0) != 0,
		}, nil
	case "rsi", "rsi_reversion":
		return &RSIReversion{
			Symbol:     symbol,
			Quantity:   quantity,
			Period:     params.intOr("period", 14),
			Oversold:   params.floatOr("oversold", 30),
			Overbought: params.floatOr("overbought", 70),
		}, nil
	case "hold", "buy_and_hold":
		return &BuyAndHold{Symbol: symbol, Quantity: quantity}, nil
	}
	return nil, errors.NewValidationError("strategy", name, "unknown strategy")
}

// BuyAndHold submits one market buy on the first event for its symbol
// and then does nothing.
type BuyAndHold struct {
	Symbol   string
	Quantity float64
	bought   bool
}

// Name identifies the strategy in logs and errors.
func (s *BuyAndHold) Name() string { return "buy_and_hold" }

// OnStart implements engine.Strategy.
func (s *BuyAndHold) OnStart(*engine.Context) error { return nil }

// OnEvent implements engine.Strategy.
func (s *BuyAndHold) OnEvent(ctx *engine.Context, ev models.MarketEvent) error {
	if s.bought || ev.EventSymbol() != s.Symbol {
		return nil
	}
	s.bought = true
	_, err := ctx.Submit(models.Order{
		Symbol:   s.Symbol,
		Side:     models.OrderSideBuy,
		Kind:     models.OrderKindMarket,
		Quantity: s.Quantity,
		TIF:      models.TIFGoodTillCancel,
	})
	return err
}

// OnFinish implements engine.Strategy.
func (s *BuyAndHold) OnFinish(*engine.Context) error { return nil }

// rebalance submits a market order moving the position to target.
func rebalance(ctx *engine.Context, symbol string, target float64) error {
	delta := target - ctx.Position(symbol).Quantity
	if delta == 0 {
		return nil
	}
	side := models.OrderSideBuy
	if delta < 0 {
		side = models.OrderSideSell
		delta = -delta
	}
	_, err := ctx.Submit(models.Order{
		Symbol:   symbol,
		Side:     side,
		Kind:     models.OrderKindMarket,
		Quantity: delta,
		TIF:      models.TIFGoodTillCancel,
	})
	return err
}
