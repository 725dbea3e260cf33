package state

import (
	"time"

	"main/internal/schema"
)

// Book holds the best bid/ask of both assets. Absent prices suppress any
// decision that depends on them.
type Book struct {
	bid       [2]schema.OptTicks
	ask       [2]schema.OptTicks
	updatedAt time.Time
}

// Apply merges a quote into the book. Only fields present on the quote are
// touched, so one-sided updates keep the other side's last value.
func (b *Book) Apply(q schema.BookQuote, at time.Time) {
	if q.YesBid.Set {
		b.bid[schema.SideYes] = q.YesBid
	}
	if q.YesAsk.Set {
		b.ask[schema.SideYes] = q.YesAsk
	}
	if q.NoBid.Set {
		b.bid[schema.SideNo] = q.NoBid
	}
	if q.NoAsk.Set {
		b.ask[schema.SideNo] = q.NoAsk
	}
	b.updatedAt = at
}

// Synced reports whether both asks are known. Pricing either side needs the
// opposite ask, so nothing is quoted before this holds.
func (b *Book) Synced() bool {
	return b.ask[schema.SideYes].Set && b.ask[schema.SideNo].Set
}

// BestBid returns the best bid for a side if present.
func (b *Book) BestBid(side schema.Side) (schema.Ticks, bool) {
	v := b.bid[side]
	return v.Ticks, v.Set
}

// BestAsk returns the best ask for a side if present.
func (b *Book) BestAsk(side schema.Side) (schema.Ticks, bool) {
	v := b.ask[side]
	return v.Ticks, v.Set
}

// OppositeAsk returns the complementary side's best ask if present.
func (b *Book) OppositeAsk(side schema.Side) (schema.Ticks, bool) {
	return b.BestAsk(side.Opposite())
}

// UpdatedAt returns the time of the last applied quote.
func (b *Book) UpdatedAt() time.Time {
	return b.updatedAt
}

// Age returns how stale the book is relative to now.
func (b *Book) Age(now time.Time) time.Duration {
	if b.updatedAt.IsZero() {
		return now.Sub(time.Time{})
	}
	return now.Sub(b.updatedAt)
}

// Reset clears all prices, e.g. on market switch.
func (b *Book) Reset() {
	*b = Book{}
}
