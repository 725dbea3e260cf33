package feeds

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/bus"
	"main/internal/obs"
	"main/internal/schema"
)

func TestEnqueueCountsShedTelemetry(t *testing.T) {
	ctx := context.Background()
	q := bus.NewQueue(1)
	m := obs.NewMetrics()

	require.NoError(t, q.Publish(ctx, schema.Event{Kind: schema.EventOrderFill}))

	// Queue full: the droppable tick is shed and the drop is counted.
	enqueue(ctx, q, m, schema.Event{Kind: schema.EventTick, At: time.Now()})
	assert.Equal(t, uint64(1), m.Snapshot().QueueDrops)
	assert.Equal(t, 1, q.Len())

	// With room again the event goes through uncounted.
	_, ok := q.Next(ctx)
	require.True(t, ok)
	enqueue(ctx, q, m, schema.Event{Kind: schema.EventTick, At: time.Now()})
	assert.Equal(t, uint64(1), m.Snapshot().QueueDrops)
	assert.Equal(t, 1, q.Len())
}
