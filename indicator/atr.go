package indicator

import (
	"math"

	"github.com/barcore/trendcore/bar"
)

// trueRange computes the Wilder true-range series: TR_0 = high_0 - low_0,
// TR_i = max(high_i-low_i, |high_i-close_{i-1}|, |low_i-close_{i-1}|) for
// i >= 1.
func trueRange(bars bar.Series) []float64 {
	tr := make([]float64, len(bars))
	if len(bars) == 0 {
		return tr
	}
	tr[0] = bars[0].High - bars[0].Low
	for i := 1; i < len(bars); i++ {
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - bars[i-1].Close)
		lc := math.Abs(bars[i].Low - bars[i-1].Close)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return tr
}

// ATR computes the Wilder-smoothed average true range of period p.
// ATR_p = mean(TR_1..TR_p); thereafter ATR_i = (ATR_{i-1}*(p-1)+TR_i)/p.
// Defined from index p onward.
func ATR(bars bar.Series, p int) Series {
	out := make(Series, len(bars))
	if p <= 0 || len(bars) <= p {
		for i := range out {
			out[i] = None[float64]()
		}
		return out
	}
	tr := trueRange(bars)
	for i := 0; i < p && i < len(out); i++ {
		out[i] = None[float64]()
	}

	var sum float64
	for i := 1; i <= p; i++ {
		sum += tr[i]
	}
	prev := sum / float64(p)
	out[p] = Some(prev)

	for i := p + 1; i < len(bars); i++ {
		prev = (prev*(float64(p)-1) + tr[i]) / float64(p)
		out[i] = Some(prev)
	}
	return out
}
