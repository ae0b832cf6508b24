// Package executor adapts the teacher's multi-symbol paper-trading
// executor to the single-instrument domain this core manages (spec.md
// §5: "the position state machine is the only mutable entity per
// instrument"). PaperExecutor now tracks one symbol's qty/avgPrice as
// scalar fields instead of a map, and is driven by
// execution.PassThroughAdapter rather than called directly by anything
// that still thinks in multi-symbol terms.
package executor

import (
	"log"
	"sync"

	"github.com/barcore/trendcore/metrics"
	"github.com/barcore/trendcore/types"
)

// Executor is the order-routing contract execution.PassThroughAdapter
// wraps: submit a fill, read back equity and the resulting position.
type Executor interface {
	Submit(o types.Order) error
	Equity() float64
	Position(symbol string) (qty float64, avgPrice float64)
}

// PaperExecutor is an in-memory paper trader for a single bound symbol,
// mutex-protected since Poll and any concurrent reporting goroutine may
// call it at once.
type PaperExecutor struct {
	mu       sync.RWMutex
	symbol   string
	equity   float64
	qty      float64 // positive = long, negative = short
	avgPrice float64
}

// NewPaperExecutor creates a fresh executor bound to symbol with the
// supplied starting equity.
func NewPaperExecutor(symbol string, startEquity float64) *PaperExecutor {
	return &PaperExecutor{symbol: symbol, equity: startEquity}
}

// Submit processes a market order for the bound symbol (perfect fills,
// no slippage — slippage is the caller's concern, per
// execution.PassThroughAdapter). Orders for any other symbol are
// rejected: this executor only ever tracks the one instrument it was
// constructed for.
func (p *PaperExecutor) Submit(o types.Order) error {
	if o.Qty == 0 {
		return nil
	}
	if o.Symbol != p.symbol {
		return &wrongSymbolError{want: p.symbol, got: o.Symbol}
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	cost := o.Price * o.Qty
	if o.Side == types.Buy {
		if cost > p.equity {
			log.Printf("[EXEC] %s %s %.4f @ %.2f rejected: insufficient cash", o.Side, o.Symbol, o.Qty, o.Price)
			return nil
		}
		p.equity -= cost
		newQty := p.qty + o.Qty
		p.avgPrice = (p.avgPrice*p.qty + cost) / newQty
		p.qty = newQty
	} else { // Sell / short
		p.equity += cost
		newQty := p.qty - o.Qty
		if newQty != 0 {
			p.avgPrice = (p.avgPrice*p.qty + cost) / newQty
		} else {
			p.avgPrice = 0
		}
		p.qty = newQty
	}
	metrics.OrdersSubmitted.WithLabelValues("paper").Inc()
	metrics.EquityGauge.Set(p.equity)

	log.Printf("[EXEC] %s %s %.4f @ %.2f (eq: %.2f)", o.Side, o.Symbol, o.Qty, o.Price, p.equity)
	return nil
}

// Equity returns the current cash balance (thread-safe).
func (p *PaperExecutor) Equity() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.equity
}

// Position returns the current quantity and average entry price, or
// (0, 0) if symbol isn't the one this executor was bound to.
func (p *PaperExecutor) Position(symbol string) (float64, float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if symbol != p.symbol {
		return 0, 0
	}
	return p.qty, p.avgPrice
}

type wrongSymbolError struct{ want, got string }

func (e *wrongSymbolError) Error() string {
	return "executor: bound to symbol " + e.want + ", got order for " + e.got
}
