package strategy

import (
	"time"

	"main/internal/schema"
	"main/internal/state"
)

// Engine computes the target order set. It is a pure function of the state
// view and the clock: no side effects, identical inputs give identical
// output, which is what makes replay and paper trading byte-for-byte
// comparable with live runs.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Target builds the desired ladder for both sides plus an optional rebalance
// take. It never consults the wall clock directly; now comes from the event
// being processed.
func (e *Engine) Target(v state.View, now time.Time) Target {
	var t Target

	if !v.Book.Synced() || v.Market.Expired(now) {
		// An empty target converges to "nothing resting".
		return t
	}

	size := e.cfg.Bands.sizeFor(v.Market.RemainingPermille(now))
	if size < e.cfg.MinOrderSize {
		return t
	}

	for _, side := range schema.Sides {
		top, ok := MaxBid(side, v.Book, e.cfg.MarginTicks)
		if !ok {
			continue
		}
		t.Entries = append(t.Entries, e.ladder(side, top, size, v.Orders, now)...)
	}

	if take, ok := e.rebalance(v); ok {
		t.Take = take
		t.HasTake = true
	}
	return t
}

// ladder lays rungs downward from the top price. The full depth is never
// pre-placed: rung i appears only once rung i-1 is resting, so a sudden move
// through the book can hit at most one fresh level per converged cycle.
func (e *Engine) ladder(side schema.Side, top schema.Ticks, size schema.Shares, orders state.OrdersView, now time.Time) []Entry {
	entries := make([]Entry, 0, e.cfg.LadderRungs)
	for i := 0; i < e.cfg.LadderRungs; i++ {
		price := top - schema.Ticks(i)*e.cfg.RungSpacingTicks
		if price < e.cfg.MinPriceTicks || !price.Valid() {
			break
		}
		if i > 0 {
			above := top - schema.Ticks(i-1)*e.cfg.RungSpacingTicks
			if orders.SizeAt(side, above) <= 0 {
				break
			}
		}
		if e.refillSuppressed(side, price, orders, now) {
			continue
		}
		entries = append(entries, Entry{Side: side, PriceTicks: price, Size: size})
	}
	return entries
}

// refillSuppressed holds a level back for the refill delay after it fully
// fills, so we do not chase a momentarily stale book back into the same spot.
func (e *Engine) refillSuppressed(side schema.Side, price schema.Ticks, orders state.OrdersView, now time.Time) bool {
	if orders.SizeAt(side, price) > 0 {
		return false
	}
	at, ok := orders.LastFullFill(side, price)
	if !ok {
		return false
	}
	return now.Sub(at) < e.cfg.RefillDelay
}

// rebalance requests a taker buy of the light side when inventory is lopsided
// beyond the threshold. The crossing price is capped so the completed pair
// cannot lose more than the configured maximum.
func (e *Engine) rebalance(v state.View) (TakeIntent, bool) {
	imbalance := v.Position.Imbalance()
	if imbalance < e.cfg.RebalanceThreshold {
		return TakeIntent{}, false
	}

	light := v.Position.LightSide()
	heavyCost, ok := v.Position.AvgCost(light.Opposite())
	if !ok {
		return TakeIntent{}, false
	}

	// Pairing at price p costs heavyCost+p per pair against a par payout;
	// cap p so the pair loses at most MaxRebalanceLossTicks.
	maxPrice := schema.ParTicks - heavyCost + e.cfg.MaxRebalanceLossTicks
	if maxPrice > schema.ParTicks {
		maxPrice = schema.ParTicks
	}
	ask, ok := v.Book.BestAsk(light)
	if !ok || ask > maxPrice {
		return TakeIntent{}, false
	}

	size := imbalance / 3
	if size > e.cfg.MaxTakeSize {
		size = e.cfg.MaxTakeSize
	}
	if size < e.cfg.MinOrderSize {
		return TakeIntent{}, false
	}
	return TakeIntent{Side: light, Size: size, MaxPriceTicks: maxPrice}, true
}
