package risk

import (
	"github.com/barcore/trendcore/bar"
	"github.com/barcore/trendcore/feature"
	"github.com/barcore/trendcore/position"
)

// Outcome tags the risk manager's decision: either it leaves the position
// open (possibly with a stop update) or it signals an exit.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeExit
)

// ExitReason names why a position was closed (spec §3 trade record
// "reason" field).
type ExitReason string

const (
	ReasonStopLossInitial   ExitReason = "STOP_LOSS_INITIAL"
	ReasonStopLossBreakEven ExitReason = "STOP_LOSS_BREAK_EVEN"
	ReasonTrailingStopHit   ExitReason = "TRAILING_STOP_HIT"
)

// Decision is the risk manager's per-bar output: a sum type with variants
// Exit(reason) and Continue(stop_update_delta), represented here as a
// tagged struct rather than a mutable-reference side effect (spec design
// note "Tagged result from risk manager").
type Decision struct {
	Outcome Outcome
	Reason  ExitReason
	Update  position.StopUpdate
}

// Evaluate is the risk manager (spec §4.6): a pure function of
// (position, bar, ltf_features, config) invoked exactly once per LTF bar
// when a position exists, before the strategy function runs.
func Evaluate(pos *position.Position, b bar.Bar, ltf feature.LTF, cfg Config) Decision {
	if pos.IsTrailingActive() {
		trailingStop, _ := pos.TrailingStop()
		if b.Low <= trailingStop {
			if TrendExhausted(ltf.ADXHistory, cfg.TrendExhaustADX, cfg.TrendExhaustBars) {
				return Decision{Outcome: OutcomeExit, Reason: ReasonTrailingStopHit}
			}
			// Strong trend: ignore the touch and let the trail advance below
			// on this same bar, per spec's defining property.
			return progressStage(pos, b, ltf, cfg)
		}
	}

	switch pos.Stage() {
	case 1:
		if b.Low <= pos.ActiveStop() {
			return Decision{Outcome: OutcomeExit, Reason: ReasonStopLossInitial}
		}
	case 2:
		if b.Low <= pos.ActiveStop() {
			return Decision{Outcome: OutcomeExit, Reason: ReasonStopLossBreakEven}
		}
	}

	return progressStage(pos, b, ltf, cfg)
}

// progressStage implements step 3 of spec §4.6: R-unit bookkeeping,
// Stage 1->2 and Stage 2/1->3 transitions, the optional profit-lock
// trailing-mode switch, and the never-decrease trailing advance.
func progressStage(pos *position.Position, b bar.Bar, ltf feature.LTF, cfg Config) Decision {
	r := pos.UnrealizedR(b.Close)
	maxR := pos.MaxUnrealizedR()
	if r > maxR {
		maxR = r
	}
	update := position.StopUpdate{MaxUnrealizedR: &maxR}

	if pos.Stage() == 1 && r >= cfg.BreakEvenR && r < cfg.TrailingActivationR {
		entryPrice := pos.EntryPrice
		update.ActiveStop = &entryPrice
	}

	justActivated := false
	if r >= cfg.TrailingActivationR && !pos.IsTrailingActive() {
		entryPrice := pos.EntryPrice
		active := true
		mode := position.TrailingEMAShort
		update.TrailingStop = &entryPrice
		update.ActiveStop = &entryPrice
		update.TrailingActive = &active
		update.TrailingMode = &mode
		justActivated = true
	}

	if !pos.IsTrailingActive() && !justActivated {
		return Decision{Outcome: OutcomeNone, Update: update}
	}

	effectiveMode := pos.TrailingMode()
	if update.TrailingMode != nil {
		effectiveMode = *update.TrailingMode
	}
	if cfg.ProfitLockR > 0 && maxR >= cfg.ProfitLockR && effectiveMode != position.TrailingEMAMedium {
		mode := position.TrailingEMAMedium
		update.TrailingMode = &mode
		effectiveMode = mode
	}

	currentTrailingStop, _ := pos.TrailingStop()
	if update.TrailingStop != nil {
		currentTrailingStop = *update.TrailingStop
	}

	var candidate float64
	var ok bool
	if effectiveMode == position.TrailingEMAMedium {
		candidate, ok = ltf.EMAMedium.Get()
	} else {
		candidate, ok = ltf.EMAShort.Get()
	}
	if ok && candidate > currentTrailingStop {
		nt := candidate
		update.TrailingStop = &nt
		update.ActiveStop = &nt
	}

	return Decision{Outcome: OutcomeNone, Update: update}
}
