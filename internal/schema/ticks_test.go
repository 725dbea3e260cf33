package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanun0323/errors"
)

func TestParseTicks(t *testing.T) {
	cases := []struct {
		in   string
		want Ticks
	}{
		{"0.475", 475},
		{"0.5", 500},
		{"0.52", 520},
		{"1", 1000},
		{"1.000", 1000},
		{"0", 0},
		{"0.001", 1},
		{"0.4750", 475},
		{".25", 250},
	}
	for _, c := range cases {
		got, err := ParseTicks(c.in)
		require.NoErrorf(t, err, "input %q", c.in)
		assert.Equalf(t, c.want, got, "input %q", c.in)
	}
}

func TestParseTicksRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"abc",
		"0.4755", // below tick granularity
		"1.5",    // above par
		"2",
		"-0.5",
		"0.5a",
	} {
		_, err := ParseTicks(in)
		require.Errorf(t, err, "input %q should fail", in)
		assert.True(t, errors.Is(err, ErrBadPrice))
	}
}

func TestTicksValid(t *testing.T) {
	assert.True(t, Ticks(0).Valid())
	assert.True(t, Ticks(1000).Valid())
	assert.False(t, Ticks(-1).Valid())
	assert.False(t, Ticks(1001).Valid())
}

func TestEventKindDroppable(t *testing.T) {
	droppable := map[EventKind]bool{
		EventBtcPrice:         true,
		EventTick:             true,
		EventFeedDisconnected: true,
		EventFeedReconnected:  true,
		EventBookUpdate:       false,
		EventOrderFill:        false,
		EventOrderCancelled:   false,
		EventMarketSwitch:     false,
		EventShutdown:         false,
	}
	for kind, want := range droppable {
		assert.Equalf(t, want, kind.Droppable(), "kind %s", kind)
	}
}
