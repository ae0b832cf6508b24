package feature

import (
	"github.com/barcore/trendcore/bar"
	"github.com/barcore/trendcore/coreerr"
)

// Align maps each LTF bar to the HTF feature record of the most recent HTF
// bar whose CloseTime <= ltf.OpenTime (spec §4.3). Bars before any closed
// HTF bar exists get an all-undefined feature record. The aligner makes no
// assumption about a fixed HTF/LTF ratio, only that both series are
// monotonically non-decreasing by OpenTime/CloseTime; it is a pure
// function of its inputs and therefore stable under re-invocation.
func Align(htfBars bar.Series, htfFeatures []HTF, ltfBars bar.Series) ([]HTF, error) {
	if len(htfBars) != len(htfFeatures) {
		return nil, &coreerr.AlignmentError{BarCount: len(htfBars), FeatureCount: len(htfFeatures)}
	}

	out := make([]HTF, len(ltfBars))
	j := 0
	best := -1
	for i, l := range ltfBars {
		for j < len(htfBars) && !htfBars[j].CloseTime.After(l.OpenTime) {
			best = j
			j++
		}
		if best == -1 {
			out[i] = HTF{}
			continue
		}
		out[i] = htfFeatures[best]
	}
	return out, nil
}
