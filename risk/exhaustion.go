package risk

// TrendExhausted evaluates the trend-exhaustion predicate (spec §4.6) over
// adxHistory, an ordered sequence of ADX values strictly preceding the
// current bar. Returns true iff the last k+1 values are strictly
// monotonically decreasing and the most recent of them is below tau.
//
// When adxHistory is too short to contain k+1 values, the predicate
// returns false — the design's resolved Open Question: a short history
// blocks the exit rather than defaulting to allowing it, kept consistent
// with the predicate's own signature (spec §9).
func TrendExhausted(adxHistory []float64, tau float64, k int) bool {
	l := len(adxHistory)
	if l < k+1 {
		return false
	}
	s := adxHistory[l-k-1:]
	if s[k] >= tau {
		return false
	}
	for i := 1; i <= k; i++ {
		if !(s[i] < s[i-1]) {
			return false
		}
	}
	return true
}
