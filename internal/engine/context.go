package engine

import (
	"time"

	"github.com/rs/zerolog"

	"quantbt/internal/errors"
	"quantbt/internal/logging"
	"quantbt/internal/models"
)

// Context is the narrow surface the engine exposes to a strategy. All
// calls are synchronous and touch only the owning engine's state.
type Context struct {
	engine *Engine
}

// Now returns the logical clock: the timestamp of the event being
// processed, or the zero time before the first event.
func (c *Context) Now() time.Time {
	return c.engine.now
}

// Cash returns the current cash balance.
func (c *Context) Cash() float64 {
	return c.engine.ledger.cash
}

// Equity returns the current net asset value: cash plus the
// mark-to-market value of open positions.
func (c *Context) Equity() float64 {
	return c.engine.ledger.nav()
}

// Position returns a copy of the symbol's position, zero-valued if the
// symbol has never traded.
func (c *Context) Position(symbol string) models.Position {
	return c.engine.ledger.position(symbol)
}

// AllPositions returns a copy of the full position map.
func (c *Context) AllPositions() map[string]models.Position {
	return c.engine.ledger.allPositions()
}

// Submit validates the order, assigns a fresh id, stamps the logical
// time, and rests it on the book. Malformed orders are surfaced
// synchronously; they never reach the book.
func (c *Context) Submit(o models.Order) (int64, error) {
	if err := c.validateOrder(o); err != nil {
		return 0, err
	}
	id := c.engine.book.submit(o, c.engine.now)
	logging.LogOrderSubmitted(c.engine.log, models.Order{
		ID: id, Symbol: o.Symbol, Side: o.Side, Kind: o.Kind, Quantity: o.Quantity,
	})
	return id, nil
}

// Cancel removes a pending order and reports whether it was found.
// Canceling an unknown or already-filled order is a no-op.
func (c *Context) Cancel(id int64) bool {
	found := c.engine.book.cancel(id)
	if found {
		logging.LogOrderCanceled(c.engine.log, id)
	}
	return found
}

// CancelAll removes all pending orders, optionally restricted to one
// symbol. Returns the number removed.
func (c *Context) CancelAll(symbol string) int {
	return c.engine.book.cancelAll(symbol)
}

// OpenOrders returns copies of the resting orders in submission order.
func (c *Context) OpenOrders() []models.Order {
	return c.engine.book.open()
}

// Log returns the structured logging sink for strategy diagnostics.
func (c *Context) Log() zerolog.Logger {
	return c.engine.log
}

func (c *Context) validateOrder(o models.Order) error {
	if o.Symbol == "" {
		return errors.NewValidationError("symbol", o.Symbol, "symbol is required")
	}
	if !c.engine.symbolAllowed(o.Symbol) {
		return errors.Wrapf(errors.ErrSymbolNotAllowed, "symbol %q", o.Symbol)
	}
	if !o.Side.Valid() {
		return errors.NewValidationError("side", o.Side, "side must be BUY or SELL")
	}
	if !o.Kind.Valid() {
		return errors.NewValidationError("kind", o.Kind, "kind must be MARKET, LIMIT, or STOP")
	}
	if o.Quantity <= 0 {
		return errors.NewValidationError("quantity", o.Quantity, "quantity must be positive")
	}
	if o.Kind == models.OrderKindLimit && o.LimitPrice <= 0 {
		return errors.NewValidationError("limit_price", o.LimitPrice, "limit order requires a positive limit price")
	}
	if o.Kind == models.OrderKindStop && o.StopPrice <= 0 {
		return errors.NewValidationError("stop_price", o.StopPrice, "stop order requires a positive stop price")
	}
	return nil
}
