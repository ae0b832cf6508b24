// Package runner implements C7: the per-bar orchestration that strictly
// sequences risk decisions before strategy decisions (spec.md §4.7).
// Runner owns the single position.Machine for one instrument exclusively;
// no other package aliases it.
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/barcore/trendcore/bar"
	"github.com/barcore/trendcore/config"
	"github.com/barcore/trendcore/coreerr"
	"github.com/barcore/trendcore/execution"
	"github.com/barcore/trendcore/feature"
	"github.com/barcore/trendcore/logger"
	"github.com/barcore/trendcore/metrics"
	"github.com/barcore/trendcore/position"
	"github.com/barcore/trendcore/provider"
	"github.com/barcore/trendcore/risk"
	"github.com/barcore/trendcore/strategy"
)

// Runner wires a position state machine, the risk and strategy
// functions, and an execution adapter together over a stream of aligned
// LTF bars and HTF feature records. Grounded on trend_composite.go's
// ProcessBar switch/case ordering (check exits before entries),
// generalized into the strict risk-then-strategy sequencing spec.md §4.7
// mandates.
type Runner struct {
	cfg       config.Config
	machine   *position.Machine
	exec      execution.Adapter
	log       logger.Logger
	symbol    string
	clock     Clock
	newTicker func(time.Duration) Ticker
}

// New builds a Runner for symbol, starting FLAT, using exec for fills.
func New(cfg config.Config, exec execution.Adapter, log logger.Logger, symbol string) *Runner {
	return &Runner{
		cfg:       cfg,
		machine:   position.NewMachine(),
		exec:      exec,
		log:       log,
		symbol:    symbol,
		clock:     systemClock{},
		newTicker: newSystemTicker,
	}
}

// WithClock overrides the clock Poll uses to stamp its heartbeat log
// entries, for deterministic tests (testutils.MockClock). Returns r.
func (r *Runner) WithClock(c Clock) *Runner {
	r.clock = c
	return r
}

// WithTicker overrides the factory Poll uses to build its tick source,
// for deterministic tests that drive iterations without waiting on real
// elapsed time. Returns r.
func (r *Runner) WithTicker(f func(time.Duration) Ticker) *Runner {
	r.newTicker = f
	return r
}

// Clock abstracts wall-clock access so Poll's heartbeat log timestamps
// don't depend on real elapsed time in tests.
type Clock interface{ Now() time.Time }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Ticker is the subset of *time.Ticker Poll depends on, injectable so
// tests can drive polling iterations deterministically.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type systemTicker struct{ t *time.Ticker }

func (s *systemTicker) C() <-chan time.Time { return s.t.C }
func (s *systemTicker) Stop()               { s.t.Stop() }

func newSystemTicker(d time.Duration) Ticker { return &systemTicker{t: time.NewTicker(d)} }

// Trades returns every trade record emitted so far, if the wrapped
// adapter tracks them (both execution.SimAdapter and
// execution.PassThroughAdapter do).
func (r *Runner) Trades() []execution.TradeRecord {
	type tradeLister interface{ Trades() []execution.TradeRecord }
	if tl, ok := r.exec.(tradeLister); ok {
		return tl.Trades()
	}
	return nil
}

// Position returns the currently open position, or nil when flat.
func (r *Runner) Position() *position.Position { return r.machine.Position() }

// step processes exactly one LTF bar against its aligned HTF feature
// record and its own LTF feature record, per spec.md §4.7: risk decisions
// strictly precede strategy decisions, and an exit never opens a new
// position on the same bar.
func (r *Runner) step(b bar.Bar, htf feature.HTF, ltf feature.LTF) {
	if r.machine.State() == position.Open {
		pos := r.machine.Position()
		decision := risk.Evaluate(pos, b, ltf, r.cfg.Risk)
		r.machine.UpdateStop(decision.Update)

		metrics.ActiveStopGauge.Set(r.machine.Position().ActiveStop())
		metrics.MaxUnrealizedRGauge.Set(r.machine.Position().MaxUnrealizedR())

		if decision.Outcome == risk.OutcomeExit {
			r.machine.StartClose()
			trade := r.exec.Close(pos.Side, pos.Size, pos.EntryPrice, b.Close, pos.EntryTime, b.CloseTime, string(decision.Reason))
			r.machine.CloseNow()
			metrics.PositionsOpen.WithLabelValues(r.symbol).Set(0)
			if r.log != nil {
				r.log.Info("position closed",
					logger.String("reason", trade.Reason),
					logger.Float64("pnl", trade.PnL),
					logger.Float64("equity_after", trade.EquityAfter),
				)
			}
			return
		}
	}

	sig := strategy.Decide(b, htf, ltf, r.machine.State(), r.cfg.StrategyConfig())
	if sig.Entry && r.machine.State() == position.Flat {
		fillPrice := r.exec.Open(sig.Side, 0, b.Close, b.CloseTime)
		sizing := risk.Size(fillPrice, r.equity(), r.cfg.Risk)
		r.machine.Open(position.OpenParams{
			Side:        sig.Side,
			EntryPrice:  fillPrice,
			EntryTime:   b.CloseTime,
			Size:        sizing.Size,
			InitialStop: sizing.InitialStop,
		})
		metrics.PositionsOpen.WithLabelValues(r.symbol).Set(1)
		metrics.ActiveStopGauge.Set(sizing.InitialStop)
		if r.log != nil {
			r.log.Info("position opened",
				logger.String("reason", sig.Reason),
				logger.Float64("entry_price", fillPrice),
				logger.Float64("initial_stop", sizing.InitialStop),
			)
		}
	}
}

func (r *Runner) equity() float64 {
	type equityGetter interface{ Equity() float64 }
	if eg, ok := r.exec.(equityGetter); ok {
		return eg.Equity()
	}
	return r.cfg.InitialCapital
}

// Run replays a full, pre-aligned backtest sequence: ltfBars, their built
// LTF features, and their aligned HTF feature records, all of equal
// length. No suspension occurs (spec.md §5 "Suspension points").
func (r *Runner) Run(ltfBars bar.Series, ltfFeatures []feature.LTF, htfFeatures []feature.HTF) {
	n := len(ltfBars)
	if len(ltfFeatures) < n {
		n = len(ltfFeatures)
	}
	if len(htfFeatures) < n {
		n = len(htfFeatures)
	}
	for i := 0; i < n; i++ {
		r.step(ltfBars[i], htfFeatures[i], ltfFeatures[i])
	}
}

// Poll advances one LTF bar at a time as new closed bars arrive from
// prov, sleeping interval between polls. It returns when ctx is
// cancelled; a partially processed bar is never observable since step is
// synchronous (spec.md §5 "Cancellation and timeouts"). A provider failure
// is wrapped in a coreerr.ProviderError, logged, and retried on the next
// tick; any other error (e.g. a coreerr.AlignmentError) ends Poll and is
// returned. Grounded on the
// context-cancellable polling loops of the retrieved rustyeddy-trader
// strategies.
func (r *Runner) Poll(
	ctx context.Context,
	htfProv, ltfProv provider.BarProvider,
	htfTimeframe, ltfTimeframe string,
	htfCfg feature.HTFConfig,
	ltfCfg feature.LTFConfig,
	interval time.Duration,
) error {
	var htfBars, ltfBars bar.Series
	var htfFeats []feature.HTF

	ticker := r.newTicker(interval)
	defer ticker.Stop()

	poll := func() error {
		if r.log != nil {
			r.log.Info("poll tick", logger.String("symbol", r.symbol), logger.Any("polled_at", r.clock.Now()))
		}
		newHTF, err := htfProv.PollTail(ctx, r.symbol, htfTimeframe, len(htfBars)+1)
		if err != nil {
			return &coreerr.ProviderError{Op: "PollTail " + htfTimeframe, Err: err}
		}
		htfBars = newHTF
		htfFeats = feature.BuildHTF(htfBars, htfCfg)

		newLTF, err := ltfProv.PollTail(ctx, r.symbol, ltfTimeframe, len(ltfBars)+1)
		if err != nil {
			return &coreerr.ProviderError{Op: "PollTail " + ltfTimeframe, Err: err}
		}
		if len(newLTF) <= len(ltfBars) {
			return nil
		}
		ltfBars = newLTF
		ltfFeatsAll := feature.BuildLTF(ltfBars, ltfCfg)
		aligned, err := feature.Align(htfBars, htfFeats, ltfBars)
		if err != nil {
			return err
		}
		r.step(ltfBars[len(ltfBars)-1], aligned[len(aligned)-1], ltfFeatsAll[len(ltfFeatsAll)-1])
		return nil
	}

	// tick runs one poll; a provider failure is logged and left for the
	// next tick to retry, any other error ends Poll.
	tick := func() error {
		err := poll()
		var pe *coreerr.ProviderError
		if errors.As(err, &pe) {
			if r.log != nil {
				r.log.Warn("provider poll failed, retrying on next tick", logger.String("symbol", r.symbol), logger.String("error", err.Error()))
			}
			return nil
		}
		return err
	}

	if err := tick(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			if err := tick(); err != nil {
				return err
			}
		}
	}
}
