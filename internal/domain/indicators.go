package domain

// IndicatorSnapshot is the set of indicator values computed over a candle
// window. Optional fields are pointers: nil means the indicator could not be
// computed from the available history, and any rule reading it must treat
// the rule as inapplicable rather than assume zero.
type IndicatorSnapshot struct {
	RSI           *float64 `json:"rsi,omitempty"`
	MACD          *float64 `json:"macd,omitempty"`
	MACDSignal    *float64 `json:"macdSignal,omitempty"`
	MACDHistogram *float64 `json:"macdHistogram,omitempty"`
	EMA20         *float64 `json:"ema20,omitempty"`
	EMA50         *float64 `json:"ema50,omitempty"`
	EMA200        *float64 `json:"ema200,omitempty"`
	BollingerUp   *float64 `json:"bollingerUpper,omitempty"`
	BollingerLow  *float64 `json:"bollingerLower,omitempty"`
	ATR           *float64 `json:"atr,omitempty"`
	VolumeCurrent float64  `json:"volumeCurrent"`
	VolumeAverage float64  `json:"volumeAverage"`
	LastClose     float64  `json:"lastClose"`
}

// Float is a convenience constructor for optional snapshot fields.
func Float(v float64) *float64 { return &v }

// TrendBias is the higher-timeframe directional classification used by the
// trend filter.
type TrendBias string

const (
	BiasBullish TrendBias = "bullish"
	BiasBearish TrendBias = "bearish"
	BiasNeutral TrendBias = "neutral"
)

// Bias classifies the snapshot's EMA stack. Any missing EMA yields neutral.
func (s *IndicatorSnapshot) Bias() TrendBias {
	if s == nil || s.EMA20 == nil || s.EMA50 == nil || s.EMA200 == nil {
		return BiasNeutral
	}
	if *s.EMA20 > *s.EMA50 && *s.EMA50 > *s.EMA200 {
		return BiasBullish
	}
	if *s.EMA20 < *s.EMA50 && *s.EMA50 < *s.EMA200 {
		return BiasBearish
	}
	return BiasNeutral
}
