package risk

// Sizing is the result of position sizing at entry (spec §4.6 "Position
// sizing"): initial_stop = entry_price*(1-initial_stop_pct), risk_amount =
// equity*risk_per_trade, size = risk_amount/(entry_price-initial_stop).
// Grounded on the teacher's risk.CalcQty (risk-amount-over-stop-distance
// shape), generalized to return the initial stop alongside the size since
// the spec requires initial_stop to be computed from the same slipped
// entry price used for sizing.
type Sizing struct {
	InitialStop float64
	Size        float64
}

// Size computes the LONG position size and initial stop for an entry at
// entryPrice given the current equity and configured risk fractions. All
// quantities are finite and size is strictly positive whenever
// initialStopPct is in (0,1) and riskPerTrade/equity are positive.
func Size(entryPrice, equity float64, cfg Config) Sizing {
	initialStop := entryPrice * (1 - cfg.InitialStopPct)
	riskAmount := equity * cfg.MaxRiskPerTrade
	size := riskAmount / (entryPrice - initialStop)
	return Sizing{InitialStop: initialStop, Size: size}
}
