package indicators

import (
	"github.com/herberelias/cripto-signals/internal/domain"
)

const (
	rsiPeriod       = 14
	macdFastPeriod  = 12
	macdSlowPeriod  = 26
	macdSignalSpan  = 9
	bollingerPeriod = 20
	bollingerStdDev = 2.0
	atrPeriod       = 14
	volumeWindow    = 20
)

// Snapshot computes every indicator the scorer reads from one candle window.
// Fields whose indicator cannot be computed from the available history are
// left nil; callers must treat nil as "rule inapplicable".
func Snapshot(candles []domain.Candle) *domain.IndicatorSnapshot {
	n := len(candles)
	if n == 0 {
		return &domain.IndicatorSnapshot{}
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
		volumes[i] = c.Volume
	}

	snap := &domain.IndicatorSnapshot{
		LastClose:     closes[n-1],
		VolumeCurrent: volumes[n-1],
	}

	window := volumeWindow
	if n < window {
		window = n
	}
	sum := 0.0
	for i := n - window; i < n; i++ {
		sum += volumes[i]
	}
	snap.VolumeAverage = sum / float64(window)

	if n >= rsiPeriod+1 {
		rsi := RSI(closes, rsiPeriod)
		snap.RSI = domain.Float(rsi[n-1])
	}

	if n >= macdSlowPeriod+macdSignalSpan {
		m := MACD(closes, macdFastPeriod, macdSlowPeriod, macdSignalSpan)
		snap.MACD = domain.Float(m.MACD[n-1])
		snap.MACDSignal = domain.Float(m.Signal[n-1])
		snap.MACDHistogram = domain.Float(m.Histogram[n-1])
	}

	for _, p := range []struct {
		period int
		dst    **float64
	}{
		{20, &snap.EMA20},
		{50, &snap.EMA50},
		{200, &snap.EMA200},
	} {
		if n >= p.period {
			ema := EMA(closes, p.period)
			*p.dst = domain.Float(ema[n-1])
		}
	}

	if n >= bollingerPeriod {
		bb := Bollinger(closes, bollingerPeriod, bollingerStdDev)
		snap.BollingerUp = domain.Float(bb.Upper[n-1])
		snap.BollingerLow = domain.Float(bb.Lower[n-1])
	}

	if n >= atrPeriod+1 {
		atr := ATR(highs, lows, closes, atrPeriod)
		snap.ATR = domain.Float(atr[n-1])
	}

	return snap
}
