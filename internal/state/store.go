package state

import (
	"time"

	"main/internal/schema"
)

// Store owns all market-scoped state. It is created at discovery, reset on
// market switch and mutated only by the event router; pipeline stages see it
// through the read-only View.
type Store struct {
	market   schema.Market
	book     Book
	position Position
	orders   *OrderTracker
}

func NewStore(m schema.Market) *Store {
	return &Store{
		market: m,
		orders: NewOrderTracker(),
	}
}

// Market returns the current market record.
func (s *Store) Market() schema.Market {
	return s.market
}

// Book returns the mutable book. Router use only.
func (s *Store) Book() *Book {
	return &s.book
}

// Position returns the mutable position. Router use only.
func (s *Store) Position() *Position {
	return &s.position
}

// Orders returns the mutable tracker. Router use only.
func (s *Store) Orders() *OrderTracker {
	return s.orders
}

// Switch replaces the market and atomically resets every market-scoped piece.
func (s *Store) Switch(m schema.Market) {
	s.market = m
	s.book.Reset()
	s.position.Reset()
	s.orders.Reset()
}

// BookView is the read-only surface of Book.
type BookView interface {
	Synced() bool
	BestBid(schema.Side) (schema.Ticks, bool)
	BestAsk(schema.Side) (schema.Ticks, bool)
	OppositeAsk(schema.Side) (schema.Ticks, bool)
	UpdatedAt() time.Time
	Age(time.Time) time.Duration
}

// PositionView is the read-only surface of Position.
type PositionView interface {
	Qty(schema.Side) schema.Shares
	Net() schema.Shares
	Imbalance() schema.Shares
	LightSide() schema.Side
	AvgCost(schema.Side) (schema.Ticks, bool)
	MinPnL() schema.MilliUSD
	Empty() bool
}

// OrdersView is the read-only surface of OrderTracker.
type OrdersView interface {
	Resting(schema.Side) []RestingOrder
	All() []RestingOrder
	SizeAt(schema.Side, schema.Ticks) schema.Shares
	Exposure(schema.Side) schema.Shares
	Count() int
	LastFullFill(schema.Side, schema.Ticks) (time.Time, bool)
}

// View is the read-only snapshot handed to strategy, risk and reconcile.
// MarkPnL lives here rather than on PositionView because it needs the book.
type View struct {
	Market   schema.Market
	Book     BookView
	Position PositionView
	Orders   OrdersView

	pos  *Position
	book *Book
}

// View builds the pipeline's read-only snapshot.
func (s *Store) View() View {
	return View{
		Market:   s.market,
		Book:     &s.book,
		Position: &s.position,
		Orders:   s.orders,
		pos:      &s.position,
		book:     &s.book,
	}
}

// MarkPnL is the running realized plus mark-to-market profit.
func (v View) MarkPnL() schema.MilliUSD {
	return v.pos.MarkPnL(v.book)
}
