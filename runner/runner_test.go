package runner

import (
	"context"
	"testing"
	"time"

	"github.com/barcore/trendcore/bar"
	"github.com/barcore/trendcore/config"
	"github.com/barcore/trendcore/execution"
	"github.com/barcore/trendcore/executor"
	"github.com/barcore/trendcore/feature"
	"github.com/barcore/trendcore/indicator"
	"github.com/barcore/trendcore/provider"
	"github.com/barcore/trendcore/risk"
	"github.com/barcore/trendcore/testutils"
)

func baseTime() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

func at(hours int) time.Time { return baseTime().Add(time.Duration(hours) * time.Hour) }

func bullHTF() feature.HTF {
	return feature.HTF{
		EMAMedium: indicator.Some(110.0),
		EMALong:   indicator.Some(100.0),
		ADX:       indicator.Some(25.0),
	}
}

// entryLTF satisfies every ENTRY condition against bullHTF and an entry
// bar whose close exceeds 100.
func entryLTF() feature.LTF {
	return feature.LTF{
		EMAShort:     indicator.Some(105.0),
		EMAMedium:    indicator.Some(100.0),
		ADX:          indicator.Some(30.0),
		DonchianHigh: indicator.Some(100.0),
	}
}

func newScenarioRunner() (*Runner, *execution.SimAdapter, config.Config) {
	cfg := config.Default()
	exec := execution.NewSimAdapter(cfg.InitialCapital, 0, 0)
	r := New(cfg, exec, nil, "BTC-PERP")
	return r, exec, cfg
}

func entryBar(closeTime time.Time, close float64) bar.Bar {
	return bar.Bar{OpenTime: closeTime.Add(-time.Hour), CloseTime: closeTime, Open: close - 1, High: close + 1, Low: close - 1, Close: close}
}

// Scenario 1: a flat/ranging market never satisfies the regime gate, so
// no position is ever opened and no trade is ever recorded.
func TestRunnerScenarioFlatMarketNeverEnters(t *testing.T) {
	r, exec, _ := newScenarioRunner()

	rangeHTF := feature.HTF{EMAMedium: indicator.Some(100.0), EMALong: indicator.Some(100.0), ADX: indicator.Some(25.0)}
	bars := bar.Series{entryBar(at(1), 101), entryBar(at(2), 102)}
	htfs := []feature.HTF{rangeHTF, rangeHTF}
	ltfs := []feature.LTF{entryLTF(), entryLTF()}

	r.Run(bars, ltfs, htfs)

	if r.Position() != nil {
		t.Fatalf("expected no position to ever open, got %+v", r.Position())
	}
	if len(exec.Trades()) != 0 {
		t.Fatalf("expected zero trades, got %d", len(exec.Trades()))
	}
}

// Scenario 2: the initial stop is hit on the very next bar after entry.
func TestRunnerScenarioInitialStopHit(t *testing.T) {
	r, exec, cfg := newScenarioRunner()

	entry := entryBar(at(1), 101)
	fillPrice := entry.Close // zero slippage
	sizing := risk.Size(fillPrice, cfg.InitialCapital, cfg.Risk)

	crash := bar.Bar{OpenTime: at(1), CloseTime: at(2), Open: 99.6, High: 99.6, Low: 99, Close: 99.5}

	bars := bar.Series{entry, crash}
	htfs := []feature.HTF{bullHTF(), bullHTF()}
	ltfs := []feature.LTF{entryLTF(), {}}

	r.Run(bars, ltfs, htfs)

	trades := exec.Trades()
	if len(trades) != 1 {
		t.Fatalf("expected exactly 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if string(tr.Reason) != string(risk.ReasonStopLossInitial) {
		t.Fatalf("expected reason %s, got %s", risk.ReasonStopLossInitial, tr.Reason)
	}
	wantPnL := (crash.Close - fillPrice) * sizing.Size
	if tr.PnL != wantPnL {
		t.Fatalf("expected pnl %v, got %v", wantPnL, tr.PnL)
	}
	if r.Position() != nil {
		t.Fatal("expected the runner to be flat after the stop-out")
	}
}

// Scenario 3: price advances enough to arm the break-even stop, then
// reverses just enough to trip it — the exit is STOP_LOSS_BREAK_EVEN
// rather than the initial stop, filled at the reversal bar's close.
func TestRunnerScenarioBreakEvenStopHit(t *testing.T) {
	r, exec, cfg := newScenarioRunner()

	entry := entryBar(at(1), 101)
	fillPrice := entry.Close
	sizing := risk.Size(fillPrice, cfg.InitialCapital, cfg.Risk)
	risk1 := fillPrice - sizing.InitialStop

	// r = 1.5 R, inside [BreakEvenR, TrailingActivationR) -> arms break-even.
	armClose := fillPrice + 1.5*risk1
	arm := bar.Bar{OpenTime: at(1), CloseTime: at(2), Open: fillPrice, High: armClose + 1, Low: fillPrice, Close: armClose}

	// Reverses below the now-armed break-even stop (= fillPrice).
	revClose := fillPrice - 0.5
	reversal := bar.Bar{OpenTime: at(2), CloseTime: at(3), Open: armClose, High: armClose, Low: fillPrice - 1, Close: revClose}

	bars := bar.Series{entry, arm, reversal}
	htfs := []feature.HTF{bullHTF(), bullHTF(), bullHTF()}
	ltfs := []feature.LTF{entryLTF(), {}, {}}

	r.Run(bars, ltfs, htfs)

	trades := exec.Trades()
	if len(trades) != 1 {
		t.Fatalf("expected exactly 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if string(tr.Reason) != string(risk.ReasonStopLossBreakEven) {
		t.Fatalf("expected reason %s, got %s", risk.ReasonStopLossBreakEven, tr.Reason)
	}
	wantPnL := (revClose - fillPrice) * sizing.Size
	if tr.PnL != wantPnL {
		t.Fatalf("expected pnl %v, got %v", wantPnL, tr.PnL)
	}
}

// Scenario 4: price reaches stage 3 (trailing active) and then dips to
// touch the trailing stop, but the ADX history shows a strong,
// undiminished trend — the touch is ignored and the trail keeps
// advancing rather than exiting.
func TestRunnerScenarioStage3TouchIgnoredUnderStrongTrend(t *testing.T) {
	r, exec, cfg := newScenarioRunner()

	entry := entryBar(at(1), 101)
	fillPrice := entry.Close
	sizing := risk.Size(fillPrice, cfg.InitialCapital, cfg.Risk)
	risk1 := fillPrice - sizing.InitialStop

	// r = 3 R -> activates trailing (EMA_SHORT basis); ema_short (104.5)
	// exceeds the entry-price seed, so the trail advances immediately.
	activateClose := fillPrice + 3*risk1
	activate := bar.Bar{OpenTime: at(1), CloseTime: at(2), Open: fillPrice, High: activateClose + 1, Low: fillPrice + 1, Close: activateClose}
	activateLTF := feature.LTF{EMAShort: indicator.Some(104.5), EMAMedium: indicator.Some(102.0)}

	// Touches the trailing stop (104.5) but adx_history is rising and
	// strong, so TrendExhausted is false: the touch must be ignored.
	touch := bar.Bar{OpenTime: at(2), CloseTime: at(3), Open: activateClose, High: activateClose, Low: 104, Close: 105}
	touchLTF := feature.LTF{EMAShort: indicator.Some(105.0), EMAMedium: indicator.Some(102.0), ADXHistory: []float64{18, 22, 26, 30}}

	bars := bar.Series{entry, activate, touch}
	htfs := []feature.HTF{bullHTF(), bullHTF(), bullHTF()}
	ltfs := []feature.LTF{entryLTF(), activateLTF, touchLTF}

	r.Run(bars, ltfs, htfs)

	if len(exec.Trades()) != 0 {
		t.Fatalf("expected no exit while the trend is not exhausted, got %d trades", len(exec.Trades()))
	}
	pos := r.Position()
	if pos == nil {
		t.Fatal("expected the position to remain open")
	}
	if pos.ActiveStop() != 105.0 {
		t.Fatalf("expected the trail to have advanced to 105.0, got %v", pos.ActiveStop())
	}
}

// Scenario 5: the same stage-3 touch, but this time the ADX history is
// strictly declining and below tau — the trend is exhausted, so the
// touch exits with a positive PnL.
func TestRunnerScenarioStage3ExitOnExhaustion(t *testing.T) {
	r, exec, cfg := newScenarioRunner()

	entry := entryBar(at(1), 101)
	fillPrice := entry.Close
	sizing := risk.Size(fillPrice, cfg.InitialCapital, cfg.Risk)
	risk1 := fillPrice - sizing.InitialStop

	activateClose := fillPrice + 3*risk1
	activate := bar.Bar{OpenTime: at(1), CloseTime: at(2), Open: fillPrice, High: activateClose + 1, Low: fillPrice + 1, Close: activateClose}
	activateLTF := feature.LTF{EMAShort: indicator.Some(104.5), EMAMedium: indicator.Some(102.0)}

	exitClose := 104.0
	touch := bar.Bar{OpenTime: at(2), CloseTime: at(3), Open: activateClose, High: activateClose, Low: 104, Close: exitClose}
	touchLTF := feature.LTF{EMAShort: indicator.Some(104.5), EMAMedium: indicator.Some(102.0), ADXHistory: []float64{30, 25, 21, 18}}

	bars := bar.Series{entry, activate, touch}
	htfs := []feature.HTF{bullHTF(), bullHTF(), bullHTF()}
	ltfs := []feature.LTF{entryLTF(), activateLTF, touchLTF}

	r.Run(bars, ltfs, htfs)

	trades := exec.Trades()
	if len(trades) != 1 {
		t.Fatalf("expected exactly 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if string(tr.Reason) != string(risk.ReasonTrailingStopHit) {
		t.Fatalf("expected reason %s, got %s", risk.ReasonTrailingStopHit, tr.Reason)
	}
	wantPnL := (exitClose - fillPrice) * sizing.Size
	if tr.PnL != wantPnL {
		t.Fatalf("expected pnl %v, got %v", wantPnL, tr.PnL)
	}
	if wantPnL <= 0 {
		t.Fatalf("expected a positive pnl on trend-exhaustion exit, got %v", wantPnL)
	}
}

// TestRunnerWithPassThroughExecutorWrapsPaperExecutor wires
// execution.PassThroughAdapter around executor.PaperExecutor (adapted to
// this module's single-instrument domain) through a full open/close
// cycle, so the package is actually exercised rather than left as
// unreachable reference code.
func TestRunnerWithPassThroughExecutorWrapsPaperExecutor(t *testing.T) {
	cfg := config.Default()
	paper := executor.NewPaperExecutor("BTC-PERP", cfg.InitialCapital)
	adapter := execution.NewPassThroughAdapter(paper, "BTC-PERP", 0, 0)
	r := New(cfg, adapter, nil, "BTC-PERP")

	entry := entryBar(at(1), 101)
	fillPrice := entry.Close
	sizing := risk.Size(fillPrice, cfg.InitialCapital, cfg.Risk)

	crash := bar.Bar{OpenTime: at(1), CloseTime: at(2), Open: 99.6, High: 99.6, Low: 99, Close: 99.5}

	bars := bar.Series{entry, crash}
	htfs := []feature.HTF{bullHTF(), bullHTF()}
	ltfs := []feature.LTF{entryLTF(), {}}

	r.Run(bars, ltfs, htfs)

	trades := r.Trades()
	if len(trades) != 1 {
		t.Fatalf("expected exactly 1 trade via the pass-through adapter, got %d", len(trades))
	}
	wantPnL := (crash.Close - fillPrice) * sizing.Size
	if trades[0].PnL != wantPnL {
		t.Fatalf("expected pnl %v, got %v", wantPnL, trades[0].PnL)
	}
	if paper.Equity() != adapter.Equity() {
		t.Fatalf("expected the pass-through adapter's equity to mirror the wrapped paper executor, got %v vs %v", adapter.Equity(), paper.Equity())
	}
	// The entry leg is submitted with size 0 (sizing isn't known until the
	// slipped fill price it depends on is returned), so only the exit leg's
	// Sell order ever reaches the wrapped executor's ledger.
	if qty, _ := paper.Position("BTC-PERP"); qty != -sizing.Size {
		t.Fatalf("expected the paper executor's qty to reflect only the exit leg (%v), got %v", -sizing.Size, qty)
	}
}

// manualTicker is a test double for Ticker: the test controls exactly
// when a tick fires instead of waiting on a real interval.
type manualTicker struct {
	c chan time.Time
}

func (m *manualTicker) C() <-chan time.Time { return m.c }
func (m *manualTicker) Stop()               {}

// countingClock wraps testutils.MockClock to prove Poll actually calls
// Now() rather than leaving the mock unreferenced.
type countingClock struct {
	*testutils.MockClock
	calls int
}

func (c *countingClock) Now() time.Time {
	c.calls++
	return c.MockClock.Now()
}

func TestRunnerPollConsumesClockAndTicksUntilCancelled(t *testing.T) {
	cfg := config.Default()
	exec := execution.NewSimAdapter(cfg.InitialCapital, 0, 0)

	htfProv := provider.NewSliceProvider()
	ltfProv := provider.NewSliceProvider()
	htfProv.Load("BTC-PERP", "4h", bar.Series{
		{OpenTime: baseTime(), CloseTime: baseTime().Add(4 * time.Hour), Open: 100, High: 101, Low: 99, Close: 100},
	})
	ltfProv.Load("BTC-PERP", "1h", bar.Series{
		{OpenTime: baseTime(), CloseTime: baseTime().Add(time.Hour), Open: 100, High: 101, Low: 99, Close: 100},
	})

	clock := &countingClock{MockClock: testutils.NewMockClock(baseTime())}
	mt := &manualTicker{c: make(chan time.Time, 1)}
	r := New(cfg, exec, testutils.NewMockLogger(), "BTC-PERP").
		WithClock(clock).
		WithTicker(func(time.Duration) Ticker { return mt })

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Poll(ctx, htfProv, ltfProv, "4h", "1h", cfg.HTFFeatureConfig(), cfg.LTFFeatureConfig(), time.Hour)
	}()

	time.Sleep(50 * time.Millisecond)
	callsAfterInitial := clock.calls
	if callsAfterInitial == 0 {
		t.Fatal("expected the injected clock to be consumed by the initial poll")
	}

	clock.Advance(time.Hour)
	mt.c <- clock.Now()
	time.Sleep(50 * time.Millisecond)
	if clock.calls <= callsAfterInitial {
		t.Fatalf("expected an additional heartbeat after the manual tick, calls before=%d after=%d", callsAfterInitial, clock.calls)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Poll did not return after context cancellation")
	}
}
