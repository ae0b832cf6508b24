// Package position implements the position finite state machine (spec
// §4.5): FLAT <-> OPEN <-> CLOSING transitions, the Position record and
// its stop-monotonicity invariants.
package position

import "time"

// Side is the position direction. The design admits Short; the current
// strategy (spec §4.4) only ever emits Long.
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// TrailingMode selects the EMA basis used once Stage 3 trailing is active.
type TrailingMode string

const (
	TrailingEMAShort  TrailingMode = "EMA_SHORT"
	TrailingEMAMedium TrailingMode = "EMA_MEDIUM"
)

// Position exists only while the owning Machine's state != Flat. Fields
// set at open (EntryPrice, EntryTime, Size, InitialStop) are never
// mutated after construction.
type Position struct {
	Side        Side
	EntryPrice  float64
	EntryTime   time.Time
	Size        float64
	InitialStop float64

	activeStop       float64
	trailingStop     float64
	trailingStopSet  bool
	isTrailingActive bool
	maxUnrealizedR   float64
	trailingMode     TrailingMode
}

// ActiveStop returns the currently enforced stop.
func (p *Position) ActiveStop() float64 { return p.activeStop }

// TrailingStop returns the trailing stop and whether Stage 3 has ever set
// one.
func (p *Position) TrailingStop() (float64, bool) { return p.trailingStop, p.trailingStopSet }

// IsTrailingActive reports whether Stage 3 trailing is currently active.
func (p *Position) IsTrailingActive() bool { return p.isTrailingActive }

// MaxUnrealizedR returns the monotonic high-water mark of unrealized R.
func (p *Position) MaxUnrealizedR() float64 { return p.maxUnrealizedR }

// TrailingMode returns the EMA basis currently used for trailing.
func (p *Position) TrailingMode() TrailingMode { return p.trailingMode }

// Stage derives the stop-progression stage from the position's current
// fields, never stored redundantly (spec §4.6 "Stage determination").
func (p *Position) Stage() int {
	switch {
	case p.isTrailingActive:
		return 3
	case p.activeStop >= p.EntryPrice:
		return 2
	default:
		return 1
	}
}

// UnrealizedR computes (price - EntryPrice) / (EntryPrice - InitialStop)
// for a LONG position — the R-unit anchor is always InitialStop, never
// the current ActiveStop (spec design note "R-unit anchor").
func (p *Position) UnrealizedR(price float64) float64 {
	risk := p.EntryPrice - p.InitialStop
	if p.Side == Short {
		risk = p.InitialStop - p.EntryPrice
		return (p.EntryPrice - price) / risk
	}
	return (price - p.EntryPrice) / risk
}

// setActiveStop is the guarded setter design note "Stop monotonicity
// enforcement" calls for: it panics on any attempted decrease, turning a
// class of algorithmic bugs into an assertion-time failure rather than a
// silently corrupted stop.
func (p *Position) setActiveStop(v float64) {
	if v < p.activeStop {
		panic("position: active stop must be non-decreasing")
	}
	p.activeStop = v
}

// setTrailingStop enforces the same never-decrease rule for the trailing
// stop specifically (spec §4.6 step 3: "Never decrease").
func (p *Position) setTrailingStop(v float64) {
	if p.trailingStopSet && v < p.trailingStop {
		panic("position: trailing stop must be non-decreasing")
	}
	p.trailingStop = v
	p.trailingStopSet = true
}
