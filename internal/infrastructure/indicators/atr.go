package indicators

import "math"

// ATR computes the Average True Range with Wilder smoothing. The first valid
// value sits at index period-1; earlier indices stay zero.
func ATR(highs, lows, closes []float64, period int) []float64 {
	length := len(closes)
	atr := make([]float64, length)
	if length < period+1 {
		return atr
	}

	trs := make([]float64, length)
	trs[0] = highs[0] - lows[0]
	for i := 1; i < length; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])

		tr := hl
		if hc > tr {
			tr = hc
		}
		if lc > tr {
			tr = lc
		}
		trs[i] = tr
	}

	sumTR := 0.0
	for i := 0; i < period; i++ {
		sumTR += trs[i]
	}
	atr[period-1] = sumTR / float64(period)

	for i := period; i < length; i++ {
		atr[i] = (atr[i-1]*float64(period-1) + trs[i]) / float64(period)
	}

	return atr
}
