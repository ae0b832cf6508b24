package coreerr

import (
	"math"
	"sort"
	"time"

	"go.uber.org/multierr"

	"github.com/barcore/trendcore/bar"
)

// gapTolerance is the factor by which a bar-to-bar gap may exceed the
// modal interval before it is treated as a data-quality defect.
const gapTolerance = 1.5

// ValidateBar checks the single-bar invariants from spec §3: finite
// positive prices, low <= open <= high, low <= close <= high, and
// closeTime > openTime.
func ValidateBar(idx int, b bar.Bar) error {
	for name, v := range map[string]float64{
		"open": b.Open, "high": b.High, "low": b.Low, "close": b.Close, "volume": b.Volume,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &DataQualityError{Index: idx, Reason: name + " is not finite"}
		}
		if name != "volume" && v <= 0 {
			return &DataQualityError{Index: idx, Reason: name + " must be strictly positive"}
		}
	}
	if b.Low > b.Open || b.Open > b.High {
		return &DataQualityError{Index: idx, Reason: "requires low <= open <= high"}
	}
	if b.Low > b.Close || b.Close > b.High {
		return &DataQualityError{Index: idx, Reason: "requires low <= close <= high"}
	}
	if !b.CloseTime.After(b.OpenTime) {
		return &DataQualityError{Index: idx, Reason: "closeTime must be after openTime"}
	}
	return nil
}

// ValidateBars checks the whole-series invariants from spec §3/§7: strict
// monotonic ordering by openTime, no duplicates, uniform nominal width
// except at the boundary, and applies ValidateBar to every element. Every
// violation found is reported, aggregated via multierr, rather than
// stopping at the first one — a series with ten bad bars should be fixed
// in one pass, not ten.
func ValidateBars(bars bar.Series) error {
	var errs error
	for i, b := range bars {
		if err := ValidateBar(i, b); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if len(bars) < 2 {
		return errs
	}
	if !sort.SliceIsSorted(bars, func(i, j int) bool { return bars[i].OpenTime.Before(bars[j].OpenTime) }) {
		errs = multierr.Append(errs, &DataQualityError{Reason: "bars are not strictly ordered by openTime"})
	}

	intervals := make([]time.Duration, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		d := bars[i].OpenTime.Sub(bars[i-1].OpenTime)
		if d <= 0 {
			errs = multierr.Append(errs, &DataQualityError{Index: i, Reason: "duplicate or non-increasing openTime"})
			continue
		}
		intervals = append(intervals, d)
	}
	modal := modalInterval(intervals)
	if modal <= 0 {
		return errs
	}
	for i := 1; i < len(bars); i++ {
		d := bars[i].OpenTime.Sub(bars[i-1].OpenTime)
		if d > 0 && float64(d) > float64(modal)*gapTolerance {
			errs = multierr.Append(errs, &DataQualityError{Index: i, Reason: "gap exceeds tolerance relative to modal bar interval"})
		}
	}
	return errs
}

// modalInterval returns the most frequent bar-to-bar duration, used as the
// series' nominal width for gap detection.
func modalInterval(intervals []time.Duration) time.Duration {
	if len(intervals) == 0 {
		return 0
	}
	counts := make(map[time.Duration]int, len(intervals))
	var best time.Duration
	bestCount := 0
	for _, d := range intervals {
		counts[d]++
		if counts[d] > bestCount {
			bestCount = counts[d]
			best = d
		}
	}
	return best
}
