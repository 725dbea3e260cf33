package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
	"main/internal/state"
)

func testStore(endIn time.Duration) *state.Store {
	return state.NewStore(schema.Market{
		ID:       "c",
		Slug:     "test",
		EndAt:    time.Now().Add(endIn),
		Duration: 5 * time.Minute,
	})
}

func TestTargetEmptyWhenUnsynced(t *testing.T) {
	s := testStore(4 * time.Minute)
	s.Book().Apply(schema.BookQuote{YesAsk: schema.SomeTicks(490)}, time.Now())

	target := NewEngine(DefaultConfig()).Target(s.View(), time.Now())
	assert.Empty(t, target.Entries)
	assert.False(t, target.HasTake)
}

func TestTargetEmptyWhenExpired(t *testing.T) {
	s := testStore(-time.Second)
	s.Book().Apply(schema.BookQuote{
		YesAsk: schema.SomeTicks(490),
		NoAsk:  schema.SomeTicks(520),
	}, time.Now())

	target := NewEngine(DefaultConfig()).Target(s.View(), time.Now())
	assert.Empty(t, target.Entries, "expired market gets an empty target so orders converge off")
}

func TestLadderGrowsOnlyOnRestingRung(t *testing.T) {
	now := time.Now()
	s := testStore(4 * time.Minute)
	s.Book().Apply(schema.BookQuote{
		YesAsk: schema.SomeTicks(490),
		NoAsk:  schema.SomeTicks(520),
	}, now)
	eng := NewEngine(DefaultConfig())

	// Nothing resting: one rung per side, at the top price.
	target := eng.Target(s.View(), now)
	require.Len(t, target.Entries, 2)
	assert.Equal(t, schema.Shares(12), target.SizeAt(schema.SideYes, 475))
	assert.Equal(t, schema.Shares(12), target.SizeAt(schema.SideNo, 505))

	// YES top rung resting: the next YES rung opens, one spacing below.
	s.Orders().Add(state.RestingOrder{ID: "a", Side: schema.SideYes, PriceTicks: 475, Remaining: 12, PlacedAt: now})
	target = eng.Target(s.View(), now)
	require.Len(t, target.Entries, 3)
	assert.NotZero(t, target.SizeAt(schema.SideYes, 465))
	assert.Zero(t, target.SizeAt(schema.SideYes, 455), "rung two stays closed until rung one rests")
}

func TestLadderStopsAtMinPrice(t *testing.T) {
	now := time.Now()
	s := testStore(4 * time.Minute)
	// NO ask 895 puts the YES top at exactly the 100-tick floor.
	s.Book().Apply(schema.BookQuote{
		YesAsk: schema.SomeTicks(490),
		NoAsk:  schema.SomeTicks(895),
	}, now)
	s.Orders().Add(state.RestingOrder{ID: "a", Side: schema.SideYes, PriceTicks: 100, Remaining: 12, PlacedAt: now})

	target := NewEngine(DefaultConfig()).Target(s.View(), now)
	assert.NotZero(t, target.SizeAt(schema.SideYes, 100))
	assert.Zero(t, target.SizeAt(schema.SideYes, 90), "rungs below the floor are never targeted")
}

func TestRefillDelaySuppressesLevel(t *testing.T) {
	now := time.Now()
	s := testStore(4 * time.Minute)
	s.Book().Apply(schema.BookQuote{
		YesAsk: schema.SomeTicks(490),
		NoAsk:  schema.SomeTicks(520),
	}, now)
	eng := NewEngine(DefaultConfig())

	// A full fill at the YES top level just happened.
	s.Orders().Add(state.RestingOrder{ID: "a", Side: schema.SideYes, PriceTicks: 475, Remaining: 12, PlacedAt: now})
	s.Orders().ApplyFill("a", 12, now)

	target := eng.Target(s.View(), now.Add(time.Second))
	assert.Zero(t, target.SizeAt(schema.SideYes, 475), "level rests until the refill delay passes")

	target = eng.Target(s.View(), now.Add(10*time.Second))
	assert.NotZero(t, target.SizeAt(schema.SideYes, 475), "level reopens after the delay")
}

func TestRebalanceTakesLightSide(t *testing.T) {
	now := time.Now()
	s := testStore(4 * time.Minute)
	s.Book().Apply(schema.BookQuote{
		YesAsk: schema.SomeTicks(490),
		NoAsk:  schema.SomeTicks(520),
	}, now)
	s.Position().ApplyFill(schema.SideYes, 500, 100)
	s.Position().ApplyFill(schema.SideNo, 500, 40)

	target := NewEngine(DefaultConfig()).Target(s.View(), now)
	require.True(t, target.HasTake)
	assert.Equal(t, schema.SideNo, target.Take.Side)
	assert.Equal(t, schema.Shares(12), target.Take.Size, "a third of the imbalance, capped at max take size")
	// Heavy side cost 500: pairing above 530 would exceed the loss cap.
	assert.Equal(t, schema.Ticks(530), target.Take.MaxPriceTicks)
}

func TestRebalanceSkippedWhenAskTooDear(t *testing.T) {
	now := time.Now()
	s := testStore(4 * time.Minute)
	s.Book().Apply(schema.BookQuote{
		YesAsk: schema.SomeTicks(490),
		NoAsk:  schema.SomeTicks(540),
	}, now)
	s.Position().ApplyFill(schema.SideYes, 500, 100)
	s.Position().ApplyFill(schema.SideNo, 500, 40)

	target := NewEngine(DefaultConfig()).Target(s.View(), now)
	assert.False(t, target.HasTake, "ask above the loss-capped price must not be crossed")
}

func TestRebalanceBelowThreshold(t *testing.T) {
	now := time.Now()
	s := testStore(4 * time.Minute)
	s.Book().Apply(schema.BookQuote{
		YesAsk: schema.SomeTicks(490),
		NoAsk:  schema.SomeTicks(520),
	}, now)
	s.Position().ApplyFill(schema.SideYes, 500, 50)
	s.Position().ApplyFill(schema.SideNo, 500, 30)

	target := NewEngine(DefaultConfig()).Target(s.View(), now)
	assert.False(t, target.HasTake)
}
