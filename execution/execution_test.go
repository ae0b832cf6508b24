package execution

import (
	"testing"
	"time"

	"github.com/barcore/trendcore/position"
)

func TestSimAdapterOpenAppliesSlippage(t *testing.T) {
	a := NewSimAdapter(10_000, 0, 0.001)
	fill := a.Open(position.Long, 1, 100, time.Now())
	want := 100 * 1.001
	if fill != want {
		t.Fatalf("expected fill %v, got %v", want, fill)
	}
}

func TestSimAdapterCloseComputesPnLAndEquity(t *testing.T) {
	a := NewSimAdapter(10_000, 0.001, 0.001)
	entryTime := time.Now()
	exitTime := entryTime.Add(time.Hour)
	rec := a.Close(position.Long, 1, 100, 110, entryTime, exitTime, "TRAILING_STOP_HIT")

	wantExit := 110 * 0.999
	if rec.ExitPrice != wantExit {
		t.Fatalf("expected exit price %v, got %v", wantExit, rec.ExitPrice)
	}
	wantCommission := (100*1 + wantExit*1) * 0.001
	if rec.Commission != wantCommission {
		t.Fatalf("expected commission %v, got %v", wantCommission, rec.Commission)
	}
	wantPnL := (wantExit-100)*1 - wantCommission
	if rec.PnL != wantPnL {
		t.Fatalf("expected pnl %v, got %v", wantPnL, rec.PnL)
	}
	if rec.EquityAfter != 10_000+wantPnL {
		t.Fatalf("expected equity_after %v, got %v", 10_000+wantPnL, rec.EquityAfter)
	}
	if a.Equity() != rec.EquityAfter {
		t.Fatalf("adapter equity out of sync with trade record")
	}
	if len(a.Trades()) != 1 {
		t.Fatalf("expected 1 recorded trade, got %d", len(a.Trades()))
	}
}
