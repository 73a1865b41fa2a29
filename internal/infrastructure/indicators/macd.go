package indicators

// MACDResult holds the MACD line, its signal line and the histogram.
// Slices are aligned with the input; indices before slowPeriod+signalPeriod-2
// are not meaningful.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes the Moving Average Convergence Divergence with the standard
// 12/26/9 parameterization unless overridden.
func MACD(closes []float64, fastPeriod, slowPeriod, signalPeriod int) MACDResult {
	length := len(closes)
	macd := make([]float64, length)
	signal := make([]float64, length)
	histogram := make([]float64, length)

	if length < slowPeriod+signalPeriod {
		return MACDResult{macd, signal, histogram}
	}

	fast := EMA(closes, fastPeriod)
	slow := EMA(closes, slowPeriod)

	for i := slowPeriod - 1; i < length; i++ {
		macd[i] = fast[i] - slow[i]
	}

	// Signal line: EMA of the MACD line, seeded where MACD becomes valid.
	valid := macd[slowPeriod-1:]
	sigValid := EMA(valid, signalPeriod)
	for i, v := range sigValid {
		signal[slowPeriod-1+i] = v
	}

	for i := slowPeriod + signalPeriod - 2; i < length; i++ {
		histogram[i] = macd[i] - signal[i]
	}

	return MACDResult{MACD: macd, Signal: signal, Histogram: histogram}
}
