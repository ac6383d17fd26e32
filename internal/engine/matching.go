package engine

import (
	"math"

	"quantbt/internal/logging"
	"quantbt/internal/models"
)

// matchEvent scans pending orders in ascending id order against one
// event and returns the fills it produced. Triggered orders are fully
// filled and removed from the book; orders held back by a risk gate
// stay pending for a future event.
func (e *Engine) matchEvent(ev models.MarketEvent) []models.Fill {
	var fills []models.Fill

	for _, o := range e.book.pending() {
		if sym := ev.EventSymbol(); sym != "" && o.Symbol != sym {
			continue
		}

		ref, triggered := triggerPrice(o, ev, e.cfg.Prices.RefPrice(ev))
		if !triggered {
			continue
		}
		if e.deferred(o, ref) {
			continue
		}

		execPrice := e.cfg.Slippage.Adjust(ref, o.Side, e.rng)
		qty := o.SignedQuantity()
		fee := e.cfg.Commission.Commission(math.Abs(qty*execPrice), o.Side)

		fill := models.Fill{
			OrderID:   o.ID,
			Symbol:    o.Symbol,
			Quantity:  qty,
			Price:     execPrice,
			Timestamp: ev.EventTime(),
			Fee:       fee,
			Slippage:  execPrice - ref,
			Liquidity: models.LiquidityTaker,
		}

		e.ledger.applyFill(fill)
		e.book.remove(o.ID)
		fills = append(fills, fill)
		logging.LogFill(e.log, fill)
	}

	return fills
}

// deferred applies the pre-trade gates. A gated order is not rejected;
// it simply does not trigger on this event.
func (e *Engine) deferred(o *models.Order, ref float64) bool {
	if !e.cfg.AllowShort && o.Side == models.OrderSideSell {
		pos := e.ledger.position(o.Symbol)
		if pos.Quantity-o.Quantity < 0 {
			return true
		}
	}

	if e.cfg.MaxLeverage > 0 {
		// Prospective notional is priced at the execution reference,
		// before slippage; equity is the current, pre-fill NAV.
		prospective := math.Abs(ref * o.Quantity)
		equity := e.ledger.nav()
		if equity <= 0 {
			return true
		}
		if (e.ledger.grossNotional()+prospective)/equity > e.cfg.MaxLeverage {
			return true
		}
	}

	return false
}

// triggerPrice decides whether the order executes against the event
// and at what pre-slippage price.
//
// Market orders always trigger at the extracted reference price. Limit
// and stop orders check the bar's range (executing at the limit/stop
// clamped by the bar open) or the tick price directly (executing
// exactly at the limit/stop).
func triggerPrice(o *models.Order, ev models.MarketEvent, ref float64) (float64, bool) {
	switch o.Kind {
	case models.OrderKindMarket:
		return ref, true
	case models.OrderKindLimit:
		return limitTrigger(o, ev)
	case models.OrderKindStop:
		return stopTrigger(o, ev)
	}
	return 0, false
}

func limitTrigger(o *models.Order, ev models.MarketEvent) (float64, bool) {
	switch e := ev.(type) {
	case models.Bar:
		if o.Side == models.OrderSideBuy {
			if e.Low <= o.LimitPrice {
				return math.Min(o.LimitPrice, e.Open), true
			}
		} else {
			if e.High >= o.LimitPrice {
				return math.Max(o.LimitPrice, e.Open), true
			}
		}
	case models.Tick:
		if o.Side == models.OrderSideBuy {
			if e.Price <= o.LimitPrice {
				return o.LimitPrice, true
			}
		} else {
			if e.Price >= o.LimitPrice {
				return o.LimitPrice, true
			}
		}
	}
	return 0, false
}

func stopTrigger(o *models.Order, ev models.MarketEvent) (float64, bool) {
	switch e := ev.(type) {
	case models.Bar:
		if o.Side == models.OrderSideBuy {
			if e.High >= o.StopPrice {
				return math.Max(e.Open, o.StopPrice), true
			}
		} else {
			if e.Low <= o.StopPrice {
				return math.Min(e.Open, o.StopPrice), true
			}
		}
	case models.Tick:
		if o.Side == models.OrderSideBuy {
			if e.Price >= o.StopPrice {
				return o.StopPrice, true
			}
		} else {
			if e.Price <= o.StopPrice {
				return o.StopPrice, true
			}
		}
	}
	return 0, false
}
