// Package strategy implements the pure ENTRY/HOLD signal function (spec
// §4.4). It is stateless: identical inputs always yield identical
// decisions, and it never emits EXIT — exits live entirely in the risk
// manager (package risk).
package strategy

import (
	"github.com/barcore/trendcore/bar"
	"github.com/barcore/trendcore/feature"
	"github.com/barcore/trendcore/position"
)

// Config holds the strategy's regime and entry thresholds (spec §6).
type Config struct {
	HTFADXMin float64 // nominally 20
	LTFADXMin float64 // nominally 25
}

// DefaultConfig returns the nominal thresholds from spec §4.4.
func DefaultConfig() Config {
	return Config{HTFADXMin: 20, LTFADXMin: 25}
}

// ReasonBullBreakout is emitted whenever an ENTRY decision fires.
const ReasonBullBreakout = "HTF_BULL_BREAKOUT_CONFIRMED"

// Decision is the strategy function's output: either an ENTRY(side,
// reason) or a HOLD (the zero value, Entry == false).
type Decision struct {
	Entry  bool
	Side   position.Side
	Reason string
}

// Regime is the HTF market regime derived from the aligned HTF feature
// record.
type Regime int

const (
	RegimeRange Regime = iota
	RegimeBull
)

// HTFRegime classifies the HTF feature record as BULL iff
// ema_medium > ema_long and adx > htfADXMin; RANGE otherwise. Returns
// RegimeRange, false when a field required to classify it is undefined.
func HTFRegime(h feature.HTF, htfADXMin float64) (Regime, bool) {
	emaMedium, ok1 := h.EMAMedium.Get()
	emaLong, ok2 := h.EMALong.Get()
	adx, ok3 := h.ADX.Get()
	if !ok1 || !ok2 || !ok3 {
		return RegimeRange, false
	}
	if emaMedium > emaLong && adx > htfADXMin {
		return RegimeBull, true
	}
	return RegimeRange, true
}

// Decide is the strategy function: (bar, htf_features, ltf_features,
// position_state) -> ENTRY(LONG, reason) | HOLD.
//
// Returns HOLD whenever position_state != FLAT, any required LTF field
// (ema_short, ema_medium, adx, donchian_high) is undefined, or any
// required HTF field (ema_medium, ema_long, adx) is undefined. Otherwise
// emits ENTRY(LONG, "HTF_BULL_BREAKOUT_CONFIRMED") iff the HTF regime is
// BULL, ltf.adx > LTFADXMin, ltf.ema_short > ltf.ema_medium, and
// bar.close > ltf.donchian_high — all four conditions, no fewer.
func Decide(b bar.Bar, htf feature.HTF, ltf feature.LTF, state position.State, cfg Config) Decision {
	if state != position.Flat {
		return Decision{}
	}

	emaShort, ok1 := ltf.EMAShort.Get()
	emaMedium, ok2 := ltf.EMAMedium.Get()
	adx, ok3 := ltf.ADX.Get()
	donchianHigh, ok4 := ltf.DonchianHigh.Get()
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Decision{}
	}

	regime, ok := HTFRegime(htf, cfg.HTFADXMin)
	if !ok {
		return Decision{}
	}

	if regime == RegimeBull &&
		adx > cfg.LTFADXMin &&
		emaShort > emaMedium &&
		b.Close > donchianHigh {
		return Decision{Entry: true, Side: position.Long, Reason: ReasonBullBreakout}
	}
	return Decision{}
}
