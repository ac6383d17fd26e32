package engine

import (
	"sort"
	"time"

	"quantbt/internal/models"
)

// orderBook holds resting orders keyed by order id. Ids are assigned
// monotonically on submission; all scans run in ascending id order so
// matching is reproducible.
type orderBook struct {
	nextID int64
	orders map[int64]*models.Order
}

func newOrderBook() *orderBook {
	return &orderBook{
		nextID: 1,
		orders: make(map[int64]*models.Order),
	}
}

// submit assigns a fresh id, stamps the logical time, and stores the
// order. Validation happens at the engine boundary; the book trusts
// its caller.
func (b *orderBook) submit(o models.Order, now time.Time) int64 {
	o.ID = b.nextID
	o.SubmittedAt = now
	b.nextID++
	b.orders[o.ID] = &o
	return o.ID
}

// cancel removes the order if present and reports whether it was
// found. Canceling an unknown or already-filled id is a no-op.
func (b *orderBook) cancel(id int64) bool {
	if _, ok := b.orders[id]; !ok {
		return false
	}
	delete(b.orders, id)
	return true
}

// cancelAll removes all pending orders, optionally restricted to one
// symbol (empty symbol matches everything). Returns the number removed.
func (b *orderBook) cancelAll(symbol string) int {
	var removed int
	for id, o := range b.orders {
		if symbol != "" && o.Symbol != symbol {
			continue
		}
		delete(b.orders, id)
		removed++
	}
	return removed
}

// remove drops a filled order from the book.
func (b *orderBook) remove(id int64) {
	delete(b.orders, id)
}

// pending returns the resting orders in ascending id order.
func (b *orderBook) pending() []*models.Order {
	out := make([]*models.Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// open returns copies of the resting orders in ascending id order.
func (b *orderBook) open() []models.Order {
	pending := b.pending()
	out := make([]models.Order, len(pending))
	for i, o := range pending {
		out[i] = *o
	}
	return out
}

func (b *orderBook) size() int {
	return len(b.orders)
}
