package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func TestPositionPairPnL(t *testing.T) {
	var p Position
	p.ApplyFill(schema.SideYes, 470, 10)
	p.ApplyFill(schema.SideNo, 480, 10)

	// 10 matched pairs pay 10 * 1000, cost 10*470 + 10*480.
	assert.Equal(t, schema.MilliUSD(10*1000-10*470-10*480), p.MinPnL())
	assert.Equal(t, schema.Shares(0), p.Imbalance())
	assert.True(t, !p.Empty())
}

func TestPositionImbalanceAndLightSide(t *testing.T) {
	var p Position
	p.ApplyFill(schema.SideYes, 500, 100)
	p.ApplyFill(schema.SideNo, 500, 40)

	assert.Equal(t, schema.Shares(60), p.Net())
	assert.Equal(t, schema.Shares(60), p.Imbalance())
	assert.Equal(t, schema.SideNo, p.LightSide())

	avg, ok := p.AvgCost(schema.SideYes)
	require.True(t, ok)
	assert.Equal(t, schema.Ticks(500), avg)

	_, ok = (&Position{}).AvgCost(schema.SideYes)
	assert.False(t, ok)
}

func TestPositionMarkPnL(t *testing.T) {
	var p Position
	p.ApplyFill(schema.SideYes, 400, 30)
	p.ApplyFill(schema.SideNo, 450, 10)

	var b Book
	// No bid known: unmatched inventory marks at zero.
	assert.Equal(t, p.MinPnL(), p.MarkPnL(&b))

	b.Apply(schema.BookQuote{YesBid: schema.SomeTicks(420)}, time.Now())
	// 20 unmatched YES marked at 420.
	assert.Equal(t, p.MinPnL()+schema.MilliUSD(20*420), p.MarkPnL(&b))
}

func TestPositionReset(t *testing.T) {
	var p Position
	p.ApplyFill(schema.SideYes, 500, 5)
	p.Reset()
	assert.True(t, p.Empty())
	assert.Equal(t, schema.MilliUSD(0), p.MinPnL())
}
