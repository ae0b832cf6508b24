// Package execution implements C8: slippage-adjusted fills, commission,
// the trade ledger and running equity (spec.md §4.8). SimAdapter is the
// in-scope backtest/paper adapter; PassThroughAdapter lets a deployment
// plug in an externally supplied executor.Executor (e.g. the teacher's
// PaperExecutor or a live broker) without the runner knowing the
// difference.
package execution

import (
	"time"

	"github.com/barcore/trendcore/metrics"
	"github.com/barcore/trendcore/position"
)

// TradeRecord is appended once per closed position (spec.md §3).
type TradeRecord struct {
	Side        position.Side
	EntryPrice  float64
	EntryTime   time.Time
	ExitPrice   float64
	ExitTime    time.Time
	Size        float64
	PnL         float64
	Commission  float64
	Slippage    float64
	EquityAfter float64
	Reason      string
}

// Adapter is the execution-adapter contract consumed by the runner: open
// and close a position, producing the slipped fill price each time.
type Adapter interface {
	Open(side position.Side, size, closePrice float64, t time.Time) (fillPrice float64)
	Close(side position.Side, size, entryPrice, closePrice float64, entryTime, t time.Time, reason string) TradeRecord
}

// SimAdapter is the in-memory backtest/paper execution adapter: it applies
// commission and slippage per spec.md §4.8, keeps a running equity, and
// records every closed trade. Grounded on executor.PaperExecutor's
// equity-and-ledger shape, generalized from a per-symbol qty map (the
// teacher trades multiple symbols concurrently) to the single-instrument,
// single-position-at-a-time model this core manages.
type SimAdapter struct {
	equity         float64
	commissionRate float64
	slippageRate   float64
	trades         []TradeRecord
}

// NewSimAdapter creates an adapter seeded with the account's starting
// capital and the configured commission/slippage rates.
func NewSimAdapter(initialCapital, commissionRate, slippageRate float64) *SimAdapter {
	metrics.EquityGauge.Set(initialCapital)
	return &SimAdapter{
		equity:         initialCapital,
		commissionRate: commissionRate,
		slippageRate:   slippageRate,
	}
}

// Equity returns the current running equity.
func (a *SimAdapter) Equity() float64 { return a.equity }

// Trades returns a copy of every trade record appended so far.
func (a *SimAdapter) Trades() []TradeRecord {
	out := make([]TradeRecord, len(a.trades))
	copy(out, a.trades)
	return out
}

// Open computes the slippage-adjusted LONG entry price
// bar.close * (1 + slippageRate) (spec.md §4.8 "Entry"). SHORT is
// design-reserved and mirrors the sign.
func (a *SimAdapter) Open(side position.Side, _ float64, closePrice float64, _ time.Time) float64 {
	if side == position.Short {
		return closePrice * (1 - a.slippageRate)
	}
	return closePrice * (1 + a.slippageRate)
}

// Close computes the slippage-adjusted exit price, commission, pnl and
// updated equity (spec.md §4.8 "Exit"), appends a TradeRecord and returns
// it.
func (a *SimAdapter) Close(side position.Side, size, entryPrice, closePrice float64, entryTime, t time.Time, reason string) TradeRecord {
	var exitPrice float64
	if side == position.Short {
		exitPrice = closePrice * (1 + a.slippageRate)
	} else {
		exitPrice = closePrice * (1 - a.slippageRate)
	}

	commission := (entryPrice*size + exitPrice*size) * a.commissionRate
	var pnl float64
	if side == position.Short {
		pnl = (entryPrice-exitPrice)*size - commission
	} else {
		pnl = (exitPrice-entryPrice)*size - commission
	}
	slippageCost := absF(closePrice-exitPrice) * size

	a.equity += pnl
	metrics.EquityGauge.Set(a.equity)
	metrics.TradesClosedTotal.WithLabelValues(reason).Inc()

	rec := TradeRecord{
		Side:        side,
		EntryPrice:  entryPrice,
		EntryTime:   entryTime,
		ExitPrice:   exitPrice,
		ExitTime:    t,
		Size:        size,
		PnL:         pnl,
		Commission:  commission,
		Slippage:    slippageCost,
		EquityAfter: a.equity,
		Reason:      reason,
	}
	a.trades = append(a.trades, rec)
	return rec
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
