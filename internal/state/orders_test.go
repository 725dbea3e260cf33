package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func TestOrderTrackerFillLifecycle(t *testing.T) {
	tr := NewOrderTracker()
	now := time.Now()
	tr.Add(RestingOrder{ID: "a", Side: schema.SideYes, PriceTicks: 470, Remaining: 10, PlacedAt: now, Maker: true})

	tr.ApplyFill("a", 4, now.Add(time.Second))
	o, ok := tr.Get("a")
	require.True(t, ok)
	assert.Equal(t, schema.Shares(6), o.Remaining)
	_, full := tr.LastFullFill(schema.SideYes, 470)
	assert.False(t, full, "partial fill must not arm the refill delay")

	tr.ApplyFill("a", 6, now.Add(2*time.Second))
	_, ok = tr.Get("a")
	assert.False(t, ok)
	at, full := tr.LastFullFill(schema.SideYes, 470)
	require.True(t, full)
	assert.Equal(t, now.Add(2*time.Second), at)
}

func TestOrderTrackerIgnoresUnknown(t *testing.T) {
	tr := NewOrderTracker()
	tr.ApplyFill("ghost", 5, time.Now())
	tr.Remove("ghost")
	assert.Equal(t, 0, tr.Count())
}

func TestOrderTrackerRestingOrderingAndSums(t *testing.T) {
	tr := NewOrderTracker()
	now := time.Now()
	tr.Add(RestingOrder{ID: "low", Side: schema.SideYes, PriceTicks: 450, Remaining: 5, PlacedAt: now})
	tr.Add(RestingOrder{ID: "high", Side: schema.SideYes, PriceTicks: 470, Remaining: 5, PlacedAt: now.Add(time.Second)})
	tr.Add(RestingOrder{ID: "no", Side: schema.SideNo, PriceTicks: 500, Remaining: 8, PlacedAt: now})
	tr.Add(RestingOrder{ID: "high2", Side: schema.SideYes, PriceTicks: 470, Remaining: 3, PlacedAt: now})

	yes := tr.Resting(schema.SideYes)
	require.Len(t, yes, 3)
	assert.Equal(t, "high2", yes[0].ID, "same price sorts by placement time")
	assert.Equal(t, "high", yes[1].ID)
	assert.Equal(t, "low", yes[2].ID)

	all := tr.All()
	require.Len(t, all, 4)
	assert.Equal(t, schema.SideNo, all[3].Side)

	assert.Equal(t, schema.Shares(8), tr.SizeAt(schema.SideYes, 470))
	assert.Equal(t, schema.Shares(13), tr.Exposure(schema.SideYes))
	assert.Equal(t, schema.Shares(8), tr.Exposure(schema.SideNo))
}

func TestStoreSwitchResetsEverything(t *testing.T) {
	m1 := schema.Market{ID: "c1", Slug: "one", EndAt: time.Now().Add(time.Minute), Duration: 5 * time.Minute}
	s := NewStore(m1)
	s.Book().Apply(schema.BookQuote{YesAsk: schema.SomeTicks(500), NoAsk: schema.SomeTicks(520)}, time.Now())
	s.Position().ApplyFill(schema.SideYes, 480, 10)
	s.Orders().Add(RestingOrder{ID: "a", Side: schema.SideYes, PriceTicks: 470, Remaining: 10, PlacedAt: time.Now()})

	m2 := schema.Market{ID: "c2", Slug: "two"}
	s.Switch(m2)

	assert.Equal(t, "c2", s.Market().ID)
	assert.False(t, s.Book().Synced())
	assert.True(t, s.Position().Empty())
	assert.Equal(t, 0, s.Orders().Count())
}
