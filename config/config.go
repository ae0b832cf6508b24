// Package config holds the single immutable configuration record every
// component is constructed from (spec.md §6). Validate aggregates every
// violation found rather than stopping at the first, in the same style as
// coreerr.ValidateBars.
package config

import (
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/barcore/trendcore/feature"
	"github.com/barcore/trendcore/risk"
	"github.com/barcore/trendcore/strategy"
)

// Timeframe names the HTF/LTF bar widths (e.g. "4h", "1h") as carried by a
// provider; the core itself only cares about their Duration.
type Timeframe struct {
	Name     string
	Duration time.Duration
}

// Config is the full set of recognised options from spec.md §6.
type Config struct {
	HTFTimeframe Timeframe
	LTFTimeframe Timeframe

	EMAShortPeriod  int
	EMAMediumPeriod int
	EMALongPeriod   int
	ATRPeriod       int
	ADXPeriod       int

	DonchianLookback int // strategy.lookback_period

	Risk risk.Config

	InitialCapital float64

	CommissionRate float64 // round-trip fraction
	SlippageRate   float64 // per-fill fraction

	BacktestStart time.Time
	BacktestEnd   time.Time
}

// Default returns the nominal configuration from spec.md §6/§9: HTF 4h,
// LTF 1h, EMA 20/50/200, ATR/ADX 14, Donchian 20, default risk parameters,
// zero commission/slippage, and a zero-value backtest window (paper mode
// doesn't use it).
func Default() Config {
	return Config{
		HTFTimeframe:     Timeframe{Name: "4h", Duration: 4 * time.Hour},
		LTFTimeframe:     Timeframe{Name: "1h", Duration: time.Hour},
		EMAShortPeriod:   20,
		EMAMediumPeriod:  50,
		EMALongPeriod:    200,
		ATRPeriod:        14,
		ADXPeriod:        14,
		DonchianLookback: 20,
		Risk:             risk.DefaultConfig(),
		InitialCapital:   10_000,
		CommissionRate:   0,
		SlippageRate:     0,
	}
}

// HTFFeatureConfig projects the indicator-period fields relevant to the
// HTF feature builder.
func (c Config) HTFFeatureConfig() feature.HTFConfig {
	return feature.HTFConfig{
		EMAMediumPeriod: c.EMAMediumPeriod,
		EMALongPeriod:   c.EMALongPeriod,
		ADXPeriod:       c.ADXPeriod,
	}
}

// LTFFeatureConfig projects the indicator-period fields relevant to the
// LTF feature builder. ADXHistoryBars is sized to at least
// trend_exhaust_bars+1 per spec.md §4.3.
func (c Config) LTFFeatureConfig() feature.LTFConfig {
	h := c.Risk.TrendExhaustBars + 1
	return feature.LTFConfig{
		EMAShortPeriod:   c.EMAShortPeriod,
		EMAMediumPeriod:  c.EMAMediumPeriod,
		ADXPeriod:        c.ADXPeriod,
		ATRPeriod:        c.ATRPeriod,
		DonchianLookback: c.DonchianLookback,
		ADXHistoryBars:   h,
	}
}

// StrategyConfig projects the regime/entry thresholds for strategy.Decide.
func (c Config) StrategyConfig() strategy.Config {
	return strategy.Config{
		HTFADXMin: 20,
		LTFADXMin: 25,
	}
}

// Validate checks every field against its documented range, aggregating
// all violations via multierr rather than stopping at the first (coreerr's
// ValidateBars pattern).
func (c Config) Validate() error {
	var errs error

	if c.HTFTimeframe.Duration <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("timeframe.trend: duration must be positive, got %v", c.HTFTimeframe.Duration))
	}
	if c.LTFTimeframe.Duration <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("timeframe.signal: duration must be positive, got %v", c.LTFTimeframe.Duration))
	}
	if c.LTFTimeframe.Duration >= c.HTFTimeframe.Duration && c.HTFTimeframe.Duration > 0 && c.LTFTimeframe.Duration > 0 {
		errs = multierr.Append(errs, fmt.Errorf("timeframe.signal (%v) must be strictly shorter than timeframe.trend (%v)", c.LTFTimeframe.Duration, c.HTFTimeframe.Duration))
	}

	if c.EMAShortPeriod <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("indicators.ema.short: period must be positive, got %d", c.EMAShortPeriod))
	}
	if c.EMAMediumPeriod <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("indicators.ema.medium: period must be positive, got %d", c.EMAMediumPeriod))
	}
	if c.EMALongPeriod <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("indicators.ema.long: period must be positive, got %d", c.EMALongPeriod))
	}
	if c.ATRPeriod <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("indicators.atr.period: must be positive, got %d", c.ATRPeriod))
	}
	if c.ADXPeriod <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("indicators.adx.period: must be positive, got %d", c.ADXPeriod))
	}
	if c.DonchianLookback <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("strategy.lookback_period: must be positive, got %d", c.DonchianLookback))
	}

	if c.Risk.MaxRiskPerTrade <= 0 || c.Risk.MaxRiskPerTrade > 0.5 {
		errs = multierr.Append(errs, fmt.Errorf("risk.max_risk_per_trade: must be in (0, 0.5], got %v", c.Risk.MaxRiskPerTrade))
	}
	if c.Risk.InitialStopPct <= 0 || c.Risk.InitialStopPct >= 1 {
		errs = multierr.Append(errs, fmt.Errorf("risk.initial_stop_pct: must be in (0, 1), got %v", c.Risk.InitialStopPct))
	}
	if c.Risk.BreakEvenR <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("risk.break_even_r: must be positive, got %v", c.Risk.BreakEvenR))
	}
	if c.Risk.TrailingActivationR <= c.Risk.BreakEvenR {
		errs = multierr.Append(errs, fmt.Errorf("risk.trailing_activation_r (%v) must exceed risk.break_even_r (%v)", c.Risk.TrailingActivationR, c.Risk.BreakEvenR))
	}
	if c.Risk.TrendExhaustADX <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("risk.trend_exhaust_adx: must be positive, got %v", c.Risk.TrendExhaustADX))
	}
	if c.Risk.TrendExhaustBars <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("risk.trend_exhaust_bars: must be positive, got %d", c.Risk.TrendExhaustBars))
	}
	if c.Risk.ProfitLockR < 0 {
		errs = multierr.Append(errs, fmt.Errorf("risk.profit_lock_r: cannot be negative, got %v", c.Risk.ProfitLockR))
	}

	if c.InitialCapital <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("account.initial_capital: must be positive, got %v", c.InitialCapital))
	}
	if c.CommissionRate < 0 || c.CommissionRate > 0.1 {
		errs = multierr.Append(errs, fmt.Errorf("execution.commission_rate: must be in [0, 0.1], got %v", c.CommissionRate))
	}
	if c.SlippageRate < 0 || c.SlippageRate > 0.1 {
		errs = multierr.Append(errs, fmt.Errorf("execution.slippage_rate: must be in [0, 0.1], got %v", c.SlippageRate))
	}

	if !c.BacktestStart.IsZero() && !c.BacktestEnd.IsZero() && !c.BacktestStart.Before(c.BacktestEnd) {
		errs = multierr.Append(errs, fmt.Errorf("backtest.start_date (%v) must be before backtest.end_date (%v)", c.BacktestStart, c.BacktestEnd))
	}

	return errs
}
