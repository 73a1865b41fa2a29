package indicators

// EMA computes the Exponential Moving Average. The first valid value sits at
// index period-1 (seeded with a simple average); earlier indices stay zero.
func EMA(data []float64, period int) []float64 {
	ema := make([]float64, len(data))
	if len(data) < period {
		return ema
	}

	k := 2.0 / (float64(period) + 1.0)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	ema[period-1] = sum / float64(period)

	for i := period; i < len(data); i++ {
		ema[i] = data[i]*k + ema[i-1]*(1-k)
	}

	return ema
}
