package indicator

import "github.com/barcore/trendcore/bar"

// ADXResult bundles the strict-Wilder +DI/-DI/ADX series produced by ADX.
type ADXResult struct {
	PlusDI  Series
	MinusDI Series
	ADX     Series
}

// directionalMovement computes the raw +DM/-DM series for i >= 1. When both
// candidates would be positive the larger wins and the smaller is zeroed;
// exact equality yields both zero.
func directionalMovement(bars bar.Series) (plusDM, minusDM []float64) {
	n := len(bars)
	plusDM = make([]float64, n)
	minusDM = make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := bars[i].High - bars[i-1].High
		downMove := bars[i-1].Low - bars[i].Low
		switch {
		case upMove > downMove && upMove > 0:
			plusDM[i] = upMove
		case downMove > upMove && downMove > 0:
			minusDM[i] = downMove
		}
	}
	return plusDM, minusDM
}

// wilderSmooth seeds at index p as the sum over 1..p, then recurses
// S_i = S_{i-1} - S_{i-1}/p + x_i. Index 0..p-1 are left at zero (callers
// only read indices >= p).
func wilderSmooth(x []float64, p int) []float64 {
	n := len(x)
	s := make([]float64, n)
	if n <= p {
		return s
	}
	var sum float64
	for i := 1; i <= p; i++ {
		sum += x[i]
	}
	s[p] = sum
	for i := p + 1; i < n; i++ {
		s[i] = s[i-1] - s[i-1]/float64(p) + x[i]
	}
	return s
}

// ADX computes strict-Wilder +DI, -DI and ADX over period p (spec §4.1).
// +DI/-DI are defined from index p; ADX is defined from index 2p-1,
// seeded as mean(DX_p..DX_{2p-1}), thereafter the standard Wilder
// recursion. Zero-TR windows map both DIs and DX to zero, never NaN.
func ADX(bars bar.Series, p int) ADXResult {
	n := len(bars)
	res := ADXResult{
		PlusDI:  make(Series, n),
		MinusDI: make(Series, n),
		ADX:     make(Series, n),
	}
	for i := 0; i < n; i++ {
		res.PlusDI[i] = None[float64]()
		res.MinusDI[i] = None[float64]()
		res.ADX[i] = None[float64]()
	}
	if p <= 0 || n <= p {
		return res
	}

	tr := trueRange(bars)
	plusDM, minusDM := directionalMovement(bars)

	sTR := wilderSmooth(tr, p)
	sPlusDM := wilderSmooth(plusDM, p)
	sMinusDM := wilderSmooth(minusDM, p)

	dx := make([]float64, n)
	for i := p; i < n; i++ {
		var plusDI, minusDI float64
		if sTR[i] != 0 {
			plusDI = 100 * sPlusDM[i] / sTR[i]
			minusDI = 100 * sMinusDM[i] / sTR[i]
		}
		res.PlusDI[i] = Some(plusDI)
		res.MinusDI[i] = Some(minusDI)

		denom := plusDI + minusDI
		if denom == 0 {
			dx[i] = 0
		} else {
			diff := plusDI - minusDI
			if diff < 0 {
				diff = -diff
			}
			dx[i] = 100 * diff / denom
		}
	}

	if n < 2*p {
		return res
	}
	var sum float64
	for i := p; i < 2*p; i++ {
		sum += dx[i]
	}
	prev := sum / float64(p)
	res.ADX[2*p-1] = Some(prev)
	for i := 2 * p; i < n; i++ {
		prev = (prev*(float64(p)-1) + dx[i]) / float64(p)
		res.ADX[i] = Some(prev)
	}
	return res
}
