package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/herberelias/cripto-signals/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRSIAllGains(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi := RSI(closes, 14)
	if rsi[29] != 100 {
		t.Fatalf("expected RSI 100 on a gains-only series, got %f", rsi[29])
	}
}

func TestRSIBalancedMoves(t *testing.T) {
	// Alternating +1/-1: average gain equals average loss, RSI near 50.
	closes := make([]float64, 40)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%2 == 0 {
			closes[i] = closes[i-1] - 1
		} else {
			closes[i] = closes[i-1] + 1
		}
	}
	rsi := RSI(closes, 14)
	if rsi[39] < 40 || rsi[39] > 60 {
		t.Fatalf("expected RSI near 50, got %f", rsi[39])
	}
}

func TestRSIInsufficientHistory(t *testing.T) {
	rsi := RSI([]float64{100, 101, 102}, 14)
	for i, v := range rsi {
		if v != 0 {
			t.Fatalf("expected zeros for short input, got %f at %d", v, i)
		}
	}
}

func TestEMASeedAndConstantSeries(t *testing.T) {
	closes := []float64{2, 4, 6, 8, 10, 10, 10}
	ema := EMA(closes, 5)

	// Seeded with the simple average of the first period.
	if !almostEqual(ema[4], 6) {
		t.Fatalf("expected seed 6 at index 4, got %f", ema[4])
	}
	if ema[3] != 0 {
		t.Fatalf("expected zero before the seed, got %f", ema[3])
	}

	constant := []float64{10, 10, 10, 10, 10, 10}
	emaC := EMA(constant, 3)
	if !almostEqual(emaC[5], 10) {
		t.Fatalf("constant series must hold its EMA, got %f", emaC[5])
	}
}

func TestATRConstantRange(t *testing.T) {
	n := 30
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 101
		lows[i] = 99
		closes[i] = 100
	}
	atr := ATR(highs, lows, closes, 14)
	if !almostEqual(atr[n-1], 2) {
		t.Fatalf("expected ATR 2 for constant 2-point ranges, got %f", atr[n-1])
	}
}

func TestBollingerConstantSeries(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100
	}
	bb := Bollinger(closes, 20, 2.0)
	if !almostEqual(bb.Upper[24], 100) || !almostEqual(bb.Lower[24], 100) || !almostEqual(bb.Middle[24], 100) {
		t.Fatalf("zero variance must collapse the bands: upper=%f mid=%f lower=%f",
			bb.Upper[24], bb.Middle[24], bb.Lower[24])
	}
}

func TestMACDHistogramIsMACDMinusSignal(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5
	}
	m := MACD(closes, 12, 26, 9)

	last := len(closes) - 1
	if !almostEqual(m.Histogram[last], m.MACD[last]-m.Signal[last]) {
		t.Fatalf("histogram mismatch: %f vs %f", m.Histogram[last], m.MACD[last]-m.Signal[last])
	}
	if m.MACD[last] <= 0 {
		t.Fatalf("expected positive MACD in an uptrend, got %f", m.MACD[last])
	}
}

func testCandles(n int) []domain.Candle {
	candles := make([]domain.Candle, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		close := 100 + float64(i)*0.2
		candles[i] = domain.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open:     close - 0.1,
			High:     close + 0.2,
			Low:      close - 0.3,
			Close:    close,
			Volume:   50 + float64(i%10),
		}
	}
	return candles
}

func TestSnapshotFullHistory(t *testing.T) {
	snap := Snapshot(testCandles(250))

	if snap.RSI == nil || snap.MACD == nil || snap.MACDSignal == nil || snap.MACDHistogram == nil {
		t.Fatal("expected momentum indicators on full history")
	}
	if snap.EMA20 == nil || snap.EMA50 == nil || snap.EMA200 == nil {
		t.Fatal("expected all EMAs on full history")
	}
	if snap.BollingerUp == nil || snap.BollingerLow == nil || snap.ATR == nil {
		t.Fatal("expected Bollinger and ATR on full history")
	}
	if snap.LastClose != 100+249*0.2 {
		t.Fatalf("wrong last close %f", snap.LastClose)
	}
	if *snap.ATR <= 0 {
		t.Fatalf("expected positive ATR, got %f", *snap.ATR)
	}
	// Uptrend ordering.
	if !(*snap.EMA20 > *snap.EMA50 && *snap.EMA50 > *snap.EMA200) {
		t.Fatalf("expected EMA20 > EMA50 > EMA200, got %f %f %f", *snap.EMA20, *snap.EMA50, *snap.EMA200)
	}
}

func TestSnapshotShortHistoryLeavesFieldsNil(t *testing.T) {
	snap := Snapshot(testCandles(30))

	if snap.EMA50 != nil || snap.EMA200 != nil {
		t.Fatal("long EMAs must be nil on 30 candles")
	}
	if snap.MACD != nil {
		t.Fatal("MACD must be nil below slow+signal window")
	}
	if snap.RSI == nil || snap.EMA20 == nil || snap.ATR == nil {
		t.Fatal("short-window indicators should still compute on 30 candles")
	}
}

func TestSnapshotEmptyInput(t *testing.T) {
	snap := Snapshot(nil)
	if snap.RSI != nil || snap.ATR != nil || snap.LastClose != 0 {
		t.Fatalf("empty input must yield an empty snapshot: %+v", snap)
	}
}
