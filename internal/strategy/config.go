package strategy

import (
	"time"

	"main/internal/schema"
)

// SizeBands is the time-based sizing step function. Sizes must be
// non-increasing from Early to Late; ops validates this at startup.
type SizeBands struct {
	// UpperPermille/LowerPermille split the remaining-time ratio into three
	// bands: (upper, 1000] -> Early, [lower, upper] -> Mid, [0, lower) -> Late.
	UpperPermille int64         `json:"upperPermille"`
	LowerPermille int64         `json:"lowerPermille"`
	Early         schema.Shares `json:"early"`
	Mid           schema.Shares `json:"mid"`
	Late          schema.Shares `json:"late"`
}

// Config holds the quoting parameters. Immutable for the process lifetime.
type Config struct {
	MarginTicks           schema.Ticks  `json:"marginTicks"`
	LadderRungs           int           `json:"ladderRungs"`
	RungSpacingTicks      schema.Ticks  `json:"rungSpacingTicks"`
	MinOrderSize          schema.Shares `json:"minOrderSize"`
	MinPriceTicks         schema.Ticks  `json:"minPriceTicks"`
	Bands                 SizeBands     `json:"bands"`
	RebalanceThreshold    schema.Shares `json:"rebalanceThreshold"`
	MaxTakeSize           schema.Shares `json:"maxTakeSize"`
	MaxRebalanceLossTicks schema.Ticks  `json:"maxRebalanceLossTicks"`
	RefillDelay           time.Duration `json:"-"`
}

// DefaultConfig mirrors the documented defaults.
func DefaultConfig() Config {
	return Config{
		MarginTicks:      5,
		LadderRungs:      3,
		RungSpacingTicks: 10,
		MinOrderSize:     5,
		MinPriceTicks:    100,
		Bands: SizeBands{
			UpperPermille: 600,
			LowerPermille: 200,
			Early:         12,
			Mid:           10,
			Late:          6,
		},
		RebalanceThreshold:    30,
		MaxTakeSize:           12,
		MaxRebalanceLossTicks: 30,
		RefillDelay:           8 * time.Second,
	}
}

// Entry is one desired resting order.
type Entry struct {
	Side       schema.Side
	PriceTicks schema.Ticks
	Size       schema.Shares
}

// TakeIntent is a desired spread-crossing buy on the light side.
type TakeIntent struct {
	Side          schema.Side
	Size          schema.Shares
	MaxPriceTicks schema.Ticks
}

// Target is the desired order set for one cycle. Recomputed every event,
// never persisted.
type Target struct {
	Entries []Entry
	Take    TakeIntent
	HasTake bool
}

// SizeAt returns the targeted size at one level, zero when untargeted.
func (t Target) SizeAt(side schema.Side, price schema.Ticks) schema.Shares {
	for _, e := range t.Entries {
		if e.Side == side && e.PriceTicks == price {
			return e.Size
		}
	}
	return 0
}
