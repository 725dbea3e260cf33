package schema

import (
	"time"

	"github.com/yanun0323/decimal"
)

// EventKind enumerates the closed set of inbound events. Every consumer
// switches exhaustively on it; adding a kind must touch every switch.
type EventKind uint8

const (
	EventUnknown EventKind = iota
	EventBtcPrice
	EventBookUpdate
	EventOrderFill
	EventOrderCancelled
	EventTick
	EventFeedDisconnected
	EventFeedReconnected
	EventMarketSwitch
	EventShutdown

	eventKindEnd
)

// EventKindCount is the number of defined kinds, for metrics arrays.
const EventKindCount = int(eventKindEnd)

func (k EventKind) String() string {
	switch k {
	case EventBtcPrice:
		return "btc_price"
	case EventBookUpdate:
		return "book_update"
	case EventOrderFill:
		return "order_fill"
	case EventOrderCancelled:
		return "order_cancelled"
	case EventTick:
		return "tick"
	case EventFeedDisconnected:
		return "feed_disconnected"
	case EventFeedReconnected:
		return "feed_reconnected"
	case EventMarketSwitch:
		return "market_switch"
	case EventShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Droppable reports whether the intake queue may shed this event under
// pressure. Losing a fill, cancel, switch or shutdown desynchronizes local
// state from exchange truth, so producers of those block instead.
func (k EventKind) Droppable() bool {
	switch k {
	case EventBtcPrice, EventTick, EventFeedDisconnected, EventFeedReconnected:
		return true
	default:
		return false
	}
}

// Feed identifies an upstream feed for connectivity events.
type Feed uint8

const (
	FeedBinance Feed = iota + 1
	FeedPolymarket
)

func (f Feed) String() string {
	switch f {
	case FeedBinance:
		return "binance"
	case FeedPolymarket:
		return "polymarket"
	default:
		return "unknown"
	}
}

// OptTicks is an optional tick price. Absence means no resting liquidity on
// that side of the book.
type OptTicks struct {
	Ticks Ticks
	Set   bool
}

// SomeTicks wraps a present price.
func SomeTicks(t Ticks) OptTicks {
	return OptTicks{Ticks: t, Set: true}
}

// BookQuote carries the optional best bid/ask of both assets.
type BookQuote struct {
	YesBid OptTicks
	YesAsk OptTicks
	NoBid  OptTicks
	NoAsk  OptTicks
}

// Event is the single tagged variant passed through the intake queue. Kind
// selects which payload fields are meaningful.
type Event struct {
	Kind EventKind
	At   time.Time

	// EventBtcPrice. Informational reference price, never decision-bearing.
	Spot decimal.Decimal

	// EventBookUpdate.
	Quote BookQuote

	// EventOrderFill / EventOrderCancelled.
	OrderID    string
	FillSide   Side
	PriceTicks Ticks
	FillSize   Shares
	IsMaker    bool

	// EventFeedDisconnected / EventFeedReconnected.
	Feed Feed

	// EventMarketSwitch.
	Market Market
}
