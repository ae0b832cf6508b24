package indicator

import "github.com/barcore/trendcore/bar"

// DonchianHigh computes, for each bar i, the maximum high over the last N
// fully closed bars strictly preceding i (spec §4.1). It is undefined for
// i < 1 or when fewer than one predecessor falls in the window, and it
// never reads bar i itself — the defining lookahead-avoidance property.
func DonchianHigh(bars bar.Series, n int) Series {
	out := make(Series, len(bars))
	for i := range bars {
		lo := i - n
		if lo < 0 {
			lo = 0
		}
		if i < 1 || lo >= i {
			out[i] = None[float64]()
			continue
		}
		max := bars[lo].High
		for j := lo + 1; j < i; j++ {
			if bars[j].High > max {
				max = bars[j].High
			}
		}
		out[i] = Some(max)
	}
	return out
}
