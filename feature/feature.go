// Package feature bundles indicator primitives into per-bar HTF/LTF
// feature records (spec §4.2) and aligns LTF bars to the most recent
// closed HTF feature record (spec §4.3).
package feature

import (
	"github.com/barcore/trendcore/bar"
	"github.com/barcore/trendcore/indicator"
)

// HTF is the higher-timeframe feature record for one HTF bar (spec §3).
// Fields are optional during warm-up.
type HTF struct {
	EMAMedium indicator.Optional[float64]
	EMALong   indicator.Optional[float64]
	ADX       indicator.Optional[float64]
}

// LTF is the lower-timeframe feature record for one LTF bar (spec §3).
type LTF struct {
	EMAShort     indicator.Optional[float64]
	EMAMedium    indicator.Optional[float64]
	ADX          indicator.Optional[float64]
	ADXHistory   []float64
	ATR          indicator.Optional[float64]
	DonchianHigh indicator.Optional[float64]
}

// HTFConfig configures the HTF builder's indicator periods.
type HTFConfig struct {
	EMAMediumPeriod int
	EMALongPeriod   int
	ADXPeriod       int
}

// LTFConfig configures the LTF builder's indicator periods and the
// adx_history/Donchian lookback windows.
type LTFConfig struct {
	EMAShortPeriod    int
	EMAMediumPeriod   int
	ADXPeriod         int
	ATRPeriod         int
	DonchianLookback  int
	ADXHistoryBars    int // H in spec §4.2; must be >= trend_exhaust_bars+1
}

// BuildHTF computes the HTF feature record for every bar in bars.
func BuildHTF(bars bar.Series, cfg HTFConfig) []HTF {
	closes := closesOf(bars)
	emaMedium := indicator.EMA(closes, cfg.EMAMediumPeriod)
	emaLong := indicator.EMA(closes, cfg.EMALongPeriod)
	adx := indicator.ADX(bars, cfg.ADXPeriod)

	out := make([]HTF, len(bars))
	for i := range bars {
		out[i] = HTF{
			EMAMedium: emaMedium[i],
			EMALong:   emaLong[i],
			ADX:       adx.ADX[i],
		}
	}
	return out
}

// BuildLTF computes the LTF feature record for every bar in bars,
// including adx_history (bars max(0,i-H)..i-1, warm-up undefineds
// dropped) and donchian_high computed from closed predecessors only.
func BuildLTF(bars bar.Series, cfg LTFConfig) []LTF {
	closes := closesOf(bars)
	emaShort := indicator.EMA(closes, cfg.EMAShortPeriod)
	emaMedium := indicator.EMA(closes, cfg.EMAMediumPeriod)
	adx := indicator.ADX(bars, cfg.ADXPeriod)
	atr := indicator.ATR(bars, cfg.ATRPeriod)
	donchian := indicator.DonchianHigh(bars, cfg.DonchianLookback)

	out := make([]LTF, len(bars))
	for i := range bars {
		out[i] = LTF{
			EMAShort:     emaShort[i],
			EMAMedium:    emaMedium[i],
			ADX:          adx.ADX[i],
			ADXHistory:   adxHistory(adx.ADX, i, cfg.ADXHistoryBars),
			ATR:          atr[i],
			DonchianHigh: donchian[i],
		}
	}
	return out
}

// adxHistory returns the defined ADX values from bars max(0,i-H)..i-1,
// strictly preceding i (no self-inclusion), dropping warm-up undefineds.
func adxHistory(adx indicator.Series, i, h int) []float64 {
	lo := i - h
	if lo < 0 {
		lo = 0
	}
	out := make([]float64, 0, h)
	for j := lo; j < i; j++ {
		if v, ok := adx[j].Get(); ok {
			out = append(out, v)
		}
	}
	return out
}

func closesOf(bars bar.Series) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
