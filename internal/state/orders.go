package state

import (
	"sort"
	"time"

	"main/internal/schema"
)

// RestingOrder is the bot's belief about one of its own live orders.
type RestingOrder struct {
	ID         string
	Side       schema.Side
	PriceTicks schema.Ticks
	Remaining  schema.Shares
	PlacedAt   time.Time
	Maker      bool
}

type level struct {
	side  schema.Side
	price schema.Ticks
}

// OrderTracker indexes the bot's resting orders. The belief can lag the
// exchange; authoritative fill/cancel events always win and the next
// reconcile cycle self-corrects.
type OrderTracker struct {
	orders map[string]RestingOrder

	// lastFill records when a level last went flat via a full fill, feeding
	// the strategy's refill delay.
	lastFill map[level]time.Time
}

func NewOrderTracker() *OrderTracker {
	return &OrderTracker{
		orders:   make(map[string]RestingOrder),
		lastFill: make(map[level]time.Time),
	}
}

// Add records a freshly placed order.
func (t *OrderTracker) Add(o RestingOrder) {
	t.orders[o.ID] = o
}

// ApplyFill reduces an order by the filled size, removing it when exhausted.
// Unknown IDs are ignored: the exchange may confirm faster than we record.
func (t *OrderTracker) ApplyFill(orderID string, size schema.Shares, at time.Time) {
	o, ok := t.orders[orderID]
	if !ok {
		return
	}
	o.Remaining -= size
	if o.Remaining <= 0 {
		delete(t.orders, orderID)
		t.lastFill[level{o.Side, o.PriceTicks}] = at
		return
	}
	t.orders[orderID] = o
}

// Remove drops an order on cancel confirmation. Unknown IDs are ignored.
func (t *OrderTracker) Remove(orderID string) {
	delete(t.orders, orderID)
}

// Get returns the tracked order if present.
func (t *OrderTracker) Get(orderID string) (RestingOrder, bool) {
	o, ok := t.orders[orderID]
	return o, ok
}

// Resting returns the side's orders sorted by price descending, then by
// placement time ascending. Deterministic order keeps diffs reproducible.
func (t *OrderTracker) Resting(side schema.Side) []RestingOrder {
	out := make([]RestingOrder, 0, len(t.orders))
	for _, o := range t.orders {
		if o.Side == side {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PriceTicks != out[j].PriceTicks {
			return out[i].PriceTicks > out[j].PriceTicks
		}
		return out[i].PlacedAt.Before(out[j].PlacedAt)
	})
	return out
}

// All returns every tracked order, YES side first.
func (t *OrderTracker) All() []RestingOrder {
	out := t.Resting(schema.SideYes)
	return append(out, t.Resting(schema.SideNo)...)
}

// SizeAt sums the remaining size resting at one level.
func (t *OrderTracker) SizeAt(side schema.Side, price schema.Ticks) schema.Shares {
	var total schema.Shares
	for _, o := range t.orders {
		if o.Side == side && o.PriceTicks == price {
			total += o.Remaining
		}
	}
	return total
}

// Exposure sums the remaining size of all resting orders on a side.
func (t *OrderTracker) Exposure(side schema.Side) schema.Shares {
	var total schema.Shares
	for _, o := range t.orders {
		if o.Side == side {
			total += o.Remaining
		}
	}
	return total
}

// Count returns the number of tracked orders.
func (t *OrderTracker) Count() int {
	return len(t.orders)
}

// LastFullFill returns when the level last went flat through a full fill.
func (t *OrderTracker) LastFullFill(side schema.Side, price schema.Ticks) (time.Time, bool) {
	at, ok := t.lastFill[level{side, price}]
	return at, ok
}

// Reset clears all orders and fill history, e.g. on market switch.
func (t *OrderTracker) Reset() {
	t.orders = make(map[string]RestingOrder)
	t.lastFill = make(map[level]time.Time)
}
