package schema

// Side identifies one of the two complementary assets of a binary market.
type Side uint8

const (
	SideYes Side = iota
	SideNo
)

// Opposite returns the complementary side.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

func (s Side) String() string {
	if s == SideYes {
		return "yes"
	}
	return "no"
}

// Sides lists both sides in a fixed order for deterministic iteration.
var Sides = [2]Side{SideYes, SideNo}

// ParTicks is the redemption value of a winning share.
const ParTicks Ticks = 1000

// Ticks is a price in 1/1000 dollars. Valid quoted prices span 0..1000.
type Ticks int64

// Valid reports whether the price is inside the quotable range.
func (t Ticks) Valid() bool {
	return t >= 0 && t <= ParTicks
}

// Shares is an order or position quantity in whole shares.
type Shares int64

// MilliUSD is a dollar amount in 1/1000 dollars. One share pays $1.000 at
// redemption, so Ticks x Shares is MilliUSD directly.
type MilliUSD int64
