package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
	"main/internal/state"
	"main/internal/strategy"
)

func testView(t *testing.T, fills func(*state.Store)) state.View {
	t.Helper()
	s := state.NewStore(schema.Market{ID: "c", EndAt: time.Now().Add(time.Minute), Duration: 5 * time.Minute})
	s.Book().Apply(schema.BookQuote{
		YesBid: schema.SomeTicks(480),
		YesAsk: schema.SomeTicks(490),
		NoBid:  schema.SomeTicks(505),
		NoAsk:  schema.SomeTicks(520),
	}, time.Now())
	if fills != nil {
		fills(s)
	}
	return s.View()
}

func entries(side schema.Side, sizes map[schema.Ticks]schema.Shares) []strategy.Entry {
	out := make([]strategy.Entry, 0, len(sizes))
	for price, size := range sizes {
		out = append(out, strategy.Entry{Side: side, PriceTicks: price, Size: size})
	}
	return out
}

func TestPositionLimitClipsCumulatively(t *testing.T) {
	eng := NewEngine(Config{MaxPosition: 20, MinOrderSize: 5})
	v := testView(t, func(s *state.Store) {
		s.Position().ApplyFill(schema.SideYes, 480, 8)
	})

	// Headroom is 12: first entry passes, second clips to 4 and is dropped.
	target := strategy.Target{Entries: []strategy.Entry{
		{Side: schema.SideYes, PriceTicks: 475, Size: 8},
		{Side: schema.SideYes, PriceTicks: 465, Size: 8},
	}}
	res := eng.Apply(target, v)
	require.Len(t, res.Target.Entries, 1)
	assert.Equal(t, schema.Shares(8), res.Target.Entries[0].Size)
	assert.Equal(t, StatusNormal, eng.Status())
}

func TestPositionLimitClipsPartial(t *testing.T) {
	eng := NewEngine(Config{MaxPosition: 10, MinOrderSize: 5})
	v := testView(t, nil)

	target := strategy.Target{Entries: entries(schema.SideNo, map[schema.Ticks]schema.Shares{505: 14})}
	res := eng.Apply(target, v)
	require.Len(t, res.Target.Entries, 1)
	assert.Equal(t, schema.Shares(10), res.Target.Entries[0].Size)
}

func TestPositionLimitSharesBudgetWithTake(t *testing.T) {
	eng := NewEngine(Config{MaxPosition: 20, MinOrderSize: 5})
	v := testView(t, nil)

	// Ladder entries and a rebalance take on the same side must not add up
	// past the cap: the entries consume the whole budget here, so the take
	// is dropped outright.
	target := strategy.Target{
		Entries: []strategy.Entry{
			{Side: schema.SideYes, PriceTicks: 475, Size: 12},
			{Side: schema.SideYes, PriceTicks: 465, Size: 8},
		},
		Take:    strategy.TakeIntent{Side: schema.SideYes, Size: 13, MaxPriceTicks: 600},
		HasTake: true,
	}
	res := eng.Apply(target, v)
	require.Len(t, res.Target.Entries, 2)
	assert.False(t, res.Target.HasTake)

	var total schema.Shares
	for _, e := range res.Target.Entries {
		total += e.Size
	}
	assert.LessOrEqual(t, total, schema.Shares(20))

	// With only one entry the take clips to the leftover budget.
	target.Entries = target.Entries[:1]
	res = eng.Apply(target, v)
	require.True(t, res.Target.HasTake)
	assert.Equal(t, schema.Shares(8), res.Target.Take.Size)
}

func TestProfitLockLatches(t *testing.T) {
	eng := NewEngine(Config{ProfitLock: 400, MinOrderSize: 5})
	// 10 matched pairs bought at 470+480 lock in 500 mUSD.
	v := testView(t, func(s *state.Store) {
		s.Position().ApplyFill(schema.SideYes, 470, 10)
		s.Position().ApplyFill(schema.SideNo, 480, 10)
	})

	target := strategy.Target{Entries: entries(schema.SideYes, map[schema.Ticks]schema.Shares{475: 10})}
	res := eng.Apply(target, v)
	require.NotNil(t, res.Transition)
	assert.Equal(t, StatusLocked, res.Transition.To)
	assert.Empty(t, res.Target.Entries, "locked suppresses exposure-increasing entries")
	assert.Equal(t, StatusLocked, eng.Status())

	// The latch is one-way: still locked on the next cycle, no new transition.
	res = eng.Apply(target, v)
	assert.Nil(t, res.Transition)
	assert.Empty(t, res.Target.Entries)
}

func TestProfitLockAllowsPairingTake(t *testing.T) {
	eng := NewEngine(Config{ProfitLock: 100, MinOrderSize: 5})
	v := testView(t, func(s *state.Store) {
		s.Position().ApplyFill(schema.SideYes, 300, 40)
		s.Position().ApplyFill(schema.SideNo, 300, 10)
	})

	target := strategy.Target{
		Entries: entries(schema.SideYes, map[schema.Ticks]schema.Shares{475: 10}),
		Take:    strategy.TakeIntent{Side: schema.SideNo, Size: 40, MaxPriceTicks: 600},
		HasTake: true,
	}
	res := eng.Apply(target, v)
	assert.Empty(t, res.Target.Entries)
	require.True(t, res.Target.HasTake, "pairing the imbalance reduces exposure and stays allowed")
	assert.Equal(t, schema.Shares(30), res.Target.Take.Size, "take clips to the imbalance")
}

func TestCircuitBreakerHaltsAndCancels(t *testing.T) {
	eng := NewEngine(Config{CircuitBreaker: 1000, MinOrderSize: 5})
	// 10 unmatched YES at 700 with best bid 480: mark loss 2200 mUSD.
	v := testView(t, func(s *state.Store) {
		s.Position().ApplyFill(schema.SideYes, 700, 10)
	})

	target := strategy.Target{Entries: entries(schema.SideYes, map[schema.Ticks]schema.Shares{475: 10})}
	res := eng.Apply(target, v)
	require.NotNil(t, res.Transition)
	assert.Equal(t, StatusHalted, res.Transition.To)
	assert.True(t, res.CancelAll)
	assert.Empty(t, res.Target.Entries)

	// Halted dominates every later cycle; no second CancelAll.
	res = eng.Apply(target, v)
	assert.False(t, res.CancelAll)
	assert.Nil(t, res.Transition)
	assert.Empty(t, res.Target.Entries)
	assert.Equal(t, StatusHalted, eng.Status())
}

func TestMarketSwitchLatchPolicy(t *testing.T) {
	reset := NewEngine(Config{ProfitLock: 1, CircuitBreaker: 1})
	reset.locked = true
	reset.OnMarketSwitch()
	assert.Equal(t, StatusNormal, reset.Status())

	carry := NewEngine(Config{ProfitLock: 1, CircuitBreaker: 1, CarryLatchesOnSwitch: true})
	carry.halted = true
	carry.OnMarketSwitch()
	assert.Equal(t, StatusHalted, carry.Status())
}
