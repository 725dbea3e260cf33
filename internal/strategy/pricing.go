package strategy

import (
	"main/internal/schema"
	"main/internal/state"
)

// MaxBid returns the highest price worth bidding on a side. Buying both sides
// is only profitable when their combined price stays below par, so the bid
// ceiling is par minus the opposite ask minus the configured margin.
//
// Without an opposite ask there is no loss bound, so the side is not quoted.
func MaxBid(side schema.Side, book state.BookView, margin schema.Ticks) (schema.Ticks, bool) {
	opp, ok := book.OppositeAsk(side)
	if !ok {
		return 0, false
	}
	bid := schema.ParTicks - opp - margin
	if bid <= 0 {
		return 0, false
	}
	return bid, true
}
