// Package risk implements the three-stage stop manager, R-unit arithmetic
// and trend-exhaustion filter (spec §4.6) — the hardest and largest
// component of the core. Evaluate is a pure function of
// (position, bar, ltf_features, config); all side effects (mutating the
// Position) happen through the position package's guarded setters, driven
// by the runner.
package risk

// Config holds the risk manager's tunables (spec §6).
type Config struct {
	MaxRiskPerTrade     float64 // e.g. 0.01 = 1% of equity
	InitialStopPct      float64 // e.g. 0.01 = 1% below entry
	BreakEvenR          float64 // nominally 1.0
	TrailingActivationR float64 // nominally 2.0
	TrendExhaustADX     float64 // tau, nominally 20
	TrendExhaustBars    int     // k, nominally 3
	ProfitLockR         float64 // optional; 0 disables the profit-lock switch
}

// DefaultConfig returns the nominal parameters from spec §6/§9.
func DefaultConfig() Config {
	return Config{
		MaxRiskPerTrade:     0.01,
		InitialStopPct:      0.01,
		BreakEvenR:          1.0,
		TrailingActivationR: 2.0,
		TrendExhaustADX:     20,
		TrendExhaustBars:    3,
		ProfitLockR:         0,
	}
}
