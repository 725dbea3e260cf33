package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func TestBookPartialMerge(t *testing.T) {
	var b Book
	now := time.Now()

	b.Apply(schema.BookQuote{
		YesBid: schema.SomeTicks(470),
		YesAsk: schema.SomeTicks(480),
	}, now)
	assert.False(t, b.Synced(), "one-sided book is not synced")

	b.Apply(schema.BookQuote{
		NoBid: schema.SomeTicks(510),
		NoAsk: schema.SomeTicks(520),
	}, now.Add(time.Second))
	require.True(t, b.Synced())

	// The NO update must not disturb the YES prices.
	bid, ok := b.BestBid(schema.SideYes)
	require.True(t, ok)
	assert.Equal(t, schema.Ticks(470), bid)

	ask, ok := b.OppositeAsk(schema.SideYes)
	require.True(t, ok)
	assert.Equal(t, schema.Ticks(520), ask)

	ask, ok = b.OppositeAsk(schema.SideNo)
	require.True(t, ok)
	assert.Equal(t, schema.Ticks(480), ask)
}

func TestBookAgeAndReset(t *testing.T) {
	var b Book
	now := time.Now()
	b.Apply(schema.BookQuote{YesAsk: schema.SomeTicks(500)}, now)
	assert.Equal(t, 3*time.Second, b.Age(now.Add(3*time.Second)))

	b.Reset()
	assert.False(t, b.Synced())
	_, ok := b.BestAsk(schema.SideYes)
	assert.False(t, ok)
	assert.True(t, b.Age(now) > time.Hour, "empty book is maximally stale")
}
