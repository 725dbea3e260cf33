package reconcile

import (
	"sort"

	"github.com/yanun0323/errors"

	"main/internal/schema"
	"main/internal/state"
	"main/internal/strategy"
)

var (
	ErrBadTargetPrice = errors.New("reconcile: target price out of range")
	ErrBadTargetSize  = errors.New("reconcile: target size not positive")
)

// Config tunes the diff.
type Config struct {
	// SizeTolerance is the remaining-size shortfall (e.g. from small partial
	// fills) that does not trigger a cancel/replace of a still-targeted level.
	SizeTolerance schema.Shares
}

// Engine converges resting orders toward a target set with the minimal
// action sequence. An order resting at a still-targeted level is left alone
// so its queue priority survives; only levels that changed produce actions.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

type key struct {
	side  schema.Side
	price schema.Ticks
}

// Diff computes the actions that converge orders toward target. It is
// idempotent: once the emitted actions are reflected in the tracker, the same
// target diffs to nothing.
//
// A malformed target aborts the whole cycle with an error and no actions; a
// skipped cycle is always safer than an invalid order reaching the exchange.
func (e *Engine) Diff(target strategy.Target, orders state.OrdersView) ([]schema.Action, error) {
	targeted := make(map[key]schema.Shares, len(target.Entries))
	for _, entry := range target.Entries {
		if entry.PriceTicks <= 0 || !entry.PriceTicks.Valid() {
			return nil, errors.Wrapf(ErrBadTargetPrice, "side %s price %d", entry.Side, entry.PriceTicks)
		}
		if entry.Size <= 0 {
			return nil, errors.Wrapf(ErrBadTargetSize, "side %s price %d size %d", entry.Side, entry.PriceTicks, entry.Size)
		}
		targeted[key{entry.Side, entry.PriceTicks}] += entry.Size
	}
	if target.HasTake {
		if !target.Take.MaxPriceTicks.Valid() || target.Take.Size <= 0 {
			return nil, errors.Wrapf(ErrBadTargetSize, "take side %s size %d max %d", target.Take.Side, target.Take.Size, target.Take.MaxPriceTicks)
		}
	}

	existing := make(map[key][]state.RestingOrder)
	for _, o := range orders.All() {
		k := key{o.Side, o.PriceTicks}
		existing[k] = append(existing[k], o)
	}

	var cancels, places []schema.Action
	for k, group := range existing {
		want, ok := targeted[k]
		if !ok {
			for _, o := range group {
				cancels = append(cancels, schema.Cancel(o.ID))
			}
			continue
		}

		kept := resolveCollision(group, &cancels)
		short := want - kept.Remaining
		if short < 0 {
			short = -short
		}
		if short > e.cfg.SizeTolerance {
			cancels = append(cancels, schema.Cancel(kept.ID))
			places = append(places, schema.Place(k.side, k.price, want))
		}
		delete(targeted, k)
	}

	for k, want := range targeted {
		places = append(places, schema.Place(k.side, k.price, want))
	}

	actions := sortActions(cancels, places)
	if target.HasTake {
		actions = append(actions, schema.Take(target.Take.Side, target.Take.Size, target.Take.MaxPriceTicks))
	}
	return actions, nil
}

// resolveCollision handles several of our orders stacked on one targeted
// level, a race artifact: keep the most recently placed, cancel the rest.
// The tie-break is an inference about exchange queue semantics; it is kept
// here so changing it touches one place.
func resolveCollision(group []state.RestingOrder, cancels *[]schema.Action) state.RestingOrder {
	kept := group[0]
	for _, o := range group[1:] {
		if o.PlacedAt.After(kept.PlacedAt) {
			*cancels = append(*cancels, schema.Cancel(kept.ID))
			kept = o
		} else {
			*cancels = append(*cancels, schema.Cancel(o.ID))
		}
	}
	return kept
}

// sortActions emits cancels before places, each in a deterministic order, so
// identical inputs always produce the identical sequence.
func sortActions(cancels, places []schema.Action) []schema.Action {
	sort.Slice(cancels, func(i, j int) bool {
		return cancels[i].OrderID < cancels[j].OrderID
	})
	sort.Slice(places, func(i, j int) bool {
		if places[i].Side != places[j].Side {
			return places[i].Side < places[j].Side
		}
		return places[i].PriceTicks > places[j].PriceTicks
	})
	return append(cancels, places...)
}
