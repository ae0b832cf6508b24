package execution

import (
	"time"

	"github.com/barcore/trendcore/executor"
	"github.com/barcore/trendcore/position"
	"github.com/barcore/trendcore/types"
)

// PassThroughAdapter wraps an externally supplied executor.Executor
// (the teacher's PaperExecutor, or a live broker implementing the same
// interface) behind the Adapter contract, applying the configured
// slippage/commission itself since executor.Executor fills at whatever
// price it is given. Lets a deployment reuse its existing order-routing
// infrastructure while keeping the spec's price/commission arithmetic in
// one place.
type PassThroughAdapter struct {
	exec           executor.Executor
	symbol         string
	commissionRate float64
	slippageRate   float64
	equity         float64
	trades         []TradeRecord
}

// NewPassThroughAdapter wraps exec for the given symbol.
func NewPassThroughAdapter(exec executor.Executor, symbol string, commissionRate, slippageRate float64) *PassThroughAdapter {
	return &PassThroughAdapter{
		exec:           exec,
		symbol:         symbol,
		commissionRate: commissionRate,
		slippageRate:   slippageRate,
		equity:         exec.Equity(),
	}
}

func (a *PassThroughAdapter) Equity() float64 { return a.exec.Equity() }

func (a *PassThroughAdapter) Trades() []TradeRecord {
	out := make([]TradeRecord, len(a.trades))
	copy(out, a.trades)
	return out
}

func sideToOrderSide(s position.Side) types.Side {
	if s == position.Short {
		return types.Sell
	}
	return types.Buy
}

// Open submits a slippage-adjusted entry order through the wrapped
// executor and returns the fill price used for sizing.
func (a *PassThroughAdapter) Open(side position.Side, size, closePrice float64, t time.Time) float64 {
	fillPrice := closePrice * (1 + a.slippageRate)
	if side == position.Short {
		fillPrice = closePrice * (1 - a.slippageRate)
	}
	_ = a.exec.Submit(types.Order{
		Symbol:  a.symbol,
		Side:    sideToOrderSide(side),
		Qty:     size,
		Price:   fillPrice,
		Comment: "OPEN_POSITION",
	})
	return fillPrice
}

// Close submits a slippage-adjusted exit order, computes commission/pnl
// the same way SimAdapter does, and records a TradeRecord against the
// wrapped executor's reported equity.
func (a *PassThroughAdapter) Close(side position.Side, size, entryPrice, closePrice float64, entryTime, t time.Time, reason string) TradeRecord {
	exitPrice := closePrice * (1 - a.slippageRate)
	closeSide := sideToOrderSide(side)
	if side == position.Short {
		exitPrice = closePrice * (1 + a.slippageRate)
		closeSide = types.Buy
	} else {
		closeSide = types.Sell
	}

	_ = a.exec.Submit(types.Order{
		Symbol:  a.symbol,
		Side:    closeSide,
		Qty:     size,
		Price:   exitPrice,
		Comment: "CLOSE_POSITION:" + reason,
	})

	commission := (entryPrice*size + exitPrice*size) * a.commissionRate
	var pnl float64
	if side == position.Short {
		pnl = (entryPrice-exitPrice)*size - commission
	} else {
		pnl = (exitPrice-entryPrice)*size - commission
	}

	rec := TradeRecord{
		Side:        side,
		EntryPrice:  entryPrice,
		EntryTime:   entryTime,
		ExitPrice:   exitPrice,
		ExitTime:    t,
		Size:        size,
		PnL:         pnl,
		Commission:  commission,
		Slippage:    absF(closePrice-exitPrice) * size,
		EquityAfter: a.exec.Equity(),
		Reason:      reason,
	}
	a.trades = append(a.trades, rec)
	return rec
}
