package risk

import (
	"main/internal/schema"
	"main/internal/state"
	"main/internal/strategy"
)

// Status is the risk state machine. Normal -> Locked and Normal -> Halted are
// one-way within a market's lifetime; Halted dominates.
type Status uint8

const (
	StatusNormal Status = iota
	StatusLocked
	StatusHalted
)

func (s Status) String() string {
	switch s {
	case StatusLocked:
		return "locked"
	case StatusHalted:
		return "halted"
	default:
		return "normal"
	}
}

// Config holds the risk limits. Thresholds are integer milli-USD so gate
// decisions never touch floating point.
type Config struct {
	MaxPosition schema.Shares
	// MinOrderSize suppresses clipped entries the exchange would reject.
	MinOrderSize schema.Shares
	// ProfitLock latches Locked once running profit reaches it.
	ProfitLock schema.MilliUSD
	// CircuitBreaker latches Halted once running loss reaches it (stored
	// positive).
	CircuitBreaker schema.MilliUSD
	// CarryLatchesOnSwitch keeps Locked/Halted across a market switch.
	CarryLatchesOnSwitch bool
}

// Transition describes a latch change made during Apply.
type Transition struct {
	From Status
	To   Status
	PnL  schema.MilliUSD
}

// Result is the gated cycle output.
type Result struct {
	Target strategy.Target
	// CancelAll is set exactly once, on the cycle the breaker trips.
	CancelAll bool
	// Transition is set when a latch moved this cycle.
	Transition *Transition
}

// Engine applies the three ordered gates: circuit breaker, position limits,
// profit lock. It owns RiskState and is the only mutator of it.
type Engine struct {
	cfg    Config
	locked bool
	halted bool
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Status reports the current latch state.
func (e *Engine) Status() Status {
	switch {
	case e.halted:
		return StatusHalted
	case e.locked:
		return StatusLocked
	default:
		return StatusNormal
	}
}

// Reset clears both latches. Explicit operator action only.
func (e *Engine) Reset() {
	e.locked = false
	e.halted = false
}

// OnMarketSwitch applies the configured latch policy for a new market.
func (e *Engine) OnMarketSwitch() {
	if !e.cfg.CarryLatchesOnSwitch {
		e.Reset()
	}
}

// Apply gates the strategy's candidate output, most severe gate first.
func (e *Engine) Apply(t strategy.Target, v state.View) Result {
	pnl := v.MarkPnL()
	before := e.Status()

	// Gate 1: circuit breaker. Terminal for the market.
	if !e.halted && e.cfg.CircuitBreaker > 0 && pnl <= -e.cfg.CircuitBreaker {
		e.halted = true
		return Result{
			CancelAll:  true,
			Transition: &Transition{From: before, To: StatusHalted, PnL: pnl},
		}
	}
	if e.halted {
		return Result{}
	}

	// Gate 2: position limits. Entries and the take draw down one shared
	// per-side headroom budget, so the side stays within MaxPosition even
	// when everything targeted this cycle fills.
	headroom := e.headroom(v)
	out := strategy.Target{Entries: e.clipEntries(t.Entries, &headroom)}
	if t.HasTake {
		if take, ok := e.clipTake(t.Take, &headroom); ok {
			out.Take = take
			out.HasTake = true
		}
	}

	// Gate 3: profit lock. One-way; exposure-increasing actions stop, pairing
	// the existing imbalance is exposure-reducing and stays allowed.
	var tr *Transition
	if !e.locked && e.cfg.ProfitLock > 0 && pnl >= e.cfg.ProfitLock {
		e.locked = true
		tr = &Transition{From: before, To: StatusLocked, PnL: pnl}
	}
	if e.locked {
		out.Entries = nil
		if out.HasTake && out.Take.Size > v.Position.Imbalance() {
			out.Take.Size = v.Position.Imbalance()
			if out.Take.Size < e.cfg.MinOrderSize {
				out.HasTake = false
			}
		}
	}

	return Result{Target: out, Transition: tr}
}

// headroom returns the per-side shares still placeable before MaxPosition.
func (e *Engine) headroom(v state.View) [2]schema.Shares {
	var room [2]schema.Shares
	for _, side := range schema.Sides {
		room[side] = e.cfg.MaxPosition - v.Position.Qty(side)
	}
	return room
}

// clipEntries walks a side's entries top-down, clipping cumulative size to
// the remaining position headroom. No entry survives that could push the
// side past MaxPosition even if every targeted order filled.
func (e *Engine) clipEntries(entries []strategy.Entry, headroom *[2]schema.Shares) []strategy.Entry {
	if e.cfg.MaxPosition <= 0 {
		return entries
	}
	out := make([]strategy.Entry, 0, len(entries))
	for _, entry := range entries {
		room := headroom[entry.Side]
		if room <= 0 {
			continue
		}
		if entry.Size > room {
			entry.Size = room
		}
		if entry.Size < e.cfg.MinOrderSize {
			continue
		}
		headroom[entry.Side] -= entry.Size
		out = append(out, entry)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// clipTake charges the take against whatever headroom the entries left on
// its side.
func (e *Engine) clipTake(take strategy.TakeIntent, headroom *[2]schema.Shares) (strategy.TakeIntent, bool) {
	if e.cfg.MaxPosition <= 0 {
		return take, true
	}
	room := headroom[take.Side]
	if room <= 0 {
		return take, false
	}
	if take.Size > room {
		take.Size = room
	}
	if take.Size < e.cfg.MinOrderSize {
		return take, false
	}
	headroom[take.Side] -= take.Size
	return take, true
}
