// Package provider defines the bar-provider contract (spec.md §6) and a
// reference in-memory implementation for backtests. Live market-data
// fetching is out of scope (spec.md §1 Non-goals); SliceProvider only
// replays a preloaded slice, which is all backtest mode needs.
package provider

import (
	"context"
	"sort"
	"time"

	"github.com/barcore/trendcore/bar"
)

// BarProvider is the contract the runner consumes: FetchClosed for
// backtest replay over a closed historical interval, PollTail for paper
// mode's "give me the newest closed bars" query.
type BarProvider interface {
	// FetchClosed returns every bar of the given timeframe strictly
	// closed in [start, end], ascending by OpenTime, de-duplicated by
	// OpenTime.
	FetchClosed(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]bar.Bar, error)
	// PollTail returns the last n closed bars of the given timeframe.
	// Must never return an unclosed (forming) bar.
	PollTail(ctx context.Context, symbol, timeframe string, n int) ([]bar.Bar, error)
}

// SliceProvider is a BarProvider backed by a fixed, preloaded slice per
// (symbol, timeframe) pair — the reference backtest implementation.
// Grounded on NimbleMarkets-dbn-go/hist.DateRange's half-open-interval
// query shape and poorman-SynapseStrike's interface/concrete-provider
// split.
type SliceProvider struct {
	bars map[string]bar.Series // key: symbol+"|"+timeframe
}

// NewSliceProvider returns an empty provider; bar series are installed
// with Load.
func NewSliceProvider() *SliceProvider {
	return &SliceProvider{bars: make(map[string]bar.Series)}
}

// Load installs (or replaces) the bar series for a symbol/timeframe pair.
// Bars are sorted ascending by OpenTime and de-duplicated by OpenTime.
func (s *SliceProvider) Load(symbol, timeframe string, bars bar.Series) {
	cp := make(bar.Series, len(bars))
	copy(cp, bars)
	sort.Slice(cp, func(i, j int) bool { return cp[i].OpenTime.Before(cp[j].OpenTime) })
	cp = dedupeByOpenTime(cp)
	s.bars[key(symbol, timeframe)] = cp
}

func key(symbol, timeframe string) string { return symbol + "|" + timeframe }

func dedupeByOpenTime(bars bar.Series) bar.Series {
	if len(bars) == 0 {
		return bars
	}
	out := bars[:1]
	for _, b := range bars[1:] {
		if !b.OpenTime.Equal(out[len(out)-1].OpenTime) {
			out = append(out, b)
		}
	}
	return out
}

// FetchClosed returns every loaded bar strictly closed within [start, end].
func (s *SliceProvider) FetchClosed(_ context.Context, symbol, timeframe string, start, end time.Time) ([]bar.Bar, error) {
	all := s.bars[key(symbol, timeframe)]
	out := make([]bar.Bar, 0, len(all))
	for _, b := range all {
		if !b.CloseTime.Before(start) && !b.CloseTime.After(end) {
			out = append(out, b)
		}
	}
	return out, nil
}

// PollTail returns the last n loaded bars; all bars held by SliceProvider
// are, by construction, already closed.
func (s *SliceProvider) PollTail(_ context.Context, symbol, timeframe string, n int) ([]bar.Bar, error) {
	all := s.bars[key(symbol, timeframe)]
	if n >= len(all) {
		out := make([]bar.Bar, len(all))
		copy(out, all)
		return out, nil
	}
	out := make([]bar.Bar, n)
	copy(out, all[len(all)-n:])
	return out, nil
}
