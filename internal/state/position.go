package state

import "main/internal/schema"

// Position tracks inventory and cost basis per side. Mutated only by
// confirmed fills.
type Position struct {
	qty  [2]schema.Shares
	cost [2]schema.MilliUSD
}

// ApplyFill adds a confirmed fill to the position.
func (p *Position) ApplyFill(side schema.Side, price schema.Ticks, size schema.Shares) {
	p.qty[side] += size
	p.cost[side] += schema.MilliUSD(int64(price) * int64(size))
}

// Qty returns the held quantity for a side.
func (p *Position) Qty(side schema.Side) schema.Shares {
	return p.qty[side]
}

// Net returns yes minus no quantity. Positive means heavy YES.
func (p *Position) Net() schema.Shares {
	return p.qty[schema.SideYes] - p.qty[schema.SideNo]
}

// Imbalance returns |yes - no|.
func (p *Position) Imbalance() schema.Shares {
	n := p.Net()
	if n < 0 {
		return -n
	}
	return n
}

// LightSide returns the side with the smaller holding. Meaningful only when
// Imbalance() > 0.
func (p *Position) LightSide() schema.Side {
	if p.Net() > 0 {
		return schema.SideNo
	}
	return schema.SideYes
}

// AvgCost returns the average paid price per share for a side.
func (p *Position) AvgCost(side schema.Side) (schema.Ticks, bool) {
	if p.qty[side] <= 0 {
		return 0, false
	}
	return schema.Ticks(int64(p.cost[side]) / int64(p.qty[side])), true
}

// MinPnL is the guaranteed profit in milli-USD: every matched YES/NO pair
// redeems at par regardless of outcome.
func (p *Position) MinPnL() schema.MilliUSD {
	matched := p.qty[schema.SideYes]
	if p.qty[schema.SideNo] < matched {
		matched = p.qty[schema.SideNo]
	}
	payout := schema.MilliUSD(int64(matched) * int64(schema.ParTicks))
	return payout - p.cost[schema.SideYes] - p.cost[schema.SideNo]
}

// MarkPnL is MinPnL plus the unmatched inventory marked at its own best bid,
// or at zero when the book shows no bid. Integer throughout, so identical
// state always yields the identical figure.
func (p *Position) MarkPnL(book *Book) schema.MilliUSD {
	pnl := p.MinPnL()
	n := p.Net()
	if n == 0 {
		return pnl
	}
	heavy := schema.SideYes
	extra := n
	if n < 0 {
		heavy = schema.SideNo
		extra = -n
	}
	if mark, ok := book.BestBid(heavy); ok {
		pnl += schema.MilliUSD(int64(extra) * int64(mark))
	}
	return pnl
}

// Empty reports whether nothing is held.
func (p *Position) Empty() bool {
	return p.qty[schema.SideYes] == 0 && p.qty[schema.SideNo] == 0
}

// Reset clears the position, e.g. on market switch.
func (p *Position) Reset() {
	*p = Position{}
}
