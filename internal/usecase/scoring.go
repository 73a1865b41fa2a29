package usecase

import (
	"fmt"
	"math"

	"github.com/herberelias/cripto-signals/internal/domain"
)

// MinScoringCandles is the history the scorer needs before it will evaluate
// anything (EMA200 plus smoothing warm-up).
const MinScoringCandles = 200

// ReasonCategory groups scoring reasons for the confirmation check.
type ReasonCategory string

const (
	CategoryTrend    ReasonCategory = "trend"
	CategoryMomentum ReasonCategory = "momentum"
	CategoryPattern  ReasonCategory = "pattern"
)

// Reason is one scoring rule that fired, tagged with its category.
type Reason struct {
	Category ReasonCategory `json:"category"`
	Text     string         `json:"text"`
}

// ScoreResult is the scorer's full verdict for one candle window.
type ScoreResult struct {
	Accepted            bool
	Direction           domain.Direction
	Points              int
	Reasons             []Reason // reasons for the accepted direction
	ReasonsLong         []Reason
	ReasonsShort        []Reason
	CategoriesConfirmed int
	VolumeBoost         float64
}

// Scorer converts an indicator snapshot plus the candle tail into a weighted
// directional score. It is a pure function of its inputs.
type Scorer struct{}

func NewScorer() *Scorer { return &Scorer{} }

// Score evaluates every rule and applies the acceptance gate. A rejected
// window (Accepted=false) is the normal outcome of most cycles.
func (sc *Scorer) Score(candles []domain.Candle, snap *domain.IndicatorSnapshot) (ScoreResult, error) {
	if len(candles) < MinScoringCandles {
		return ScoreResult{}, domain.ErrInsufficientData
	}

	var (
		points int
		long   []Reason
		short  []Reason
	)
	addLong := func(pts int, cat ReasonCategory, text string) {
		points += pts
		long = append(long, Reason{Category: cat, Text: text})
	}
	addShort := func(pts int, cat ReasonCategory, text string) {
		points += pts
		short = append(short, Reason{Category: cat, Text: text})
	}

	price := snap.LastClose

	// RSI extremes.
	if snap.RSI != nil {
		if *snap.RSI < 30 {
			addLong(20, CategoryMomentum, fmt.Sprintf("RSI oversold (%.2f)", *snap.RSI))
		} else if *snap.RSI > 70 {
			addShort(20, CategoryMomentum, fmt.Sprintf("RSI overbought (%.2f)", *snap.RSI))
		}
	}

	// MACD cross with confirming histogram.
	if snap.MACD != nil && snap.MACDSignal != nil && snap.MACDHistogram != nil {
		if *snap.MACD > *snap.MACDSignal && *snap.MACDHistogram > 0 {
			addLong(15, CategoryTrend, "MACD bullish cross")
		} else if *snap.MACD < *snap.MACDSignal && *snap.MACDHistogram < 0 {
			addShort(15, CategoryTrend, "MACD bearish cross")
		}
	}

	// EMA stack structure.
	if snap.EMA20 != nil && snap.EMA50 != nil {
		if price > *snap.EMA20 && *snap.EMA20 > *snap.EMA50 {
			addLong(20, CategoryTrend, "price above EMAs (uptrend structure)")
		} else if price < *snap.EMA20 && *snap.EMA20 < *snap.EMA50 {
			addShort(20, CategoryTrend, "price below EMAs (downtrend structure)")
		}
	}

	// EMA200 support/resistance test.
	if snap.EMA200 != nil && price > 0 {
		distPct := math.Abs(price-*snap.EMA200) / price * 100
		if distPct < 1 {
			if price > *snap.EMA200 {
				addLong(15, CategoryTrend, "price bouncing off EMA200 support")
			} else {
				addShort(15, CategoryTrend, "price rejected at EMA200 resistance")
			}
		}
	}

	// Bollinger band touches.
	if snap.BollingerLow != nil && price <= *snap.BollingerLow {
		addLong(10, CategoryPattern, "price at lower Bollinger band")
	} else if snap.BollingerUp != nil && price >= *snap.BollingerUp {
		addShort(10, CategoryPattern, "price at upper Bollinger band")
	}

	// Strong volume in the direction of the last candle.
	if snap.VolumeAverage > 0 && snap.VolumeCurrent > snap.VolumeAverage*1.5 {
		last := candles[len(candles)-1]
		if last.Bullish() {
			addLong(15, CategoryMomentum, "strong bullish volume")
		} else {
			addShort(15, CategoryMomentum, "strong bearish volume")
		}
	}

	// Candlestick patterns on the last one to three candles.
	for _, p := range detectPatterns(candles) {
		if p.Direction == domain.Long {
			addLong(15, CategoryPattern, p.Name)
		} else {
			addShort(15, CategoryPattern, p.Name)
		}
	}

	result := ScoreResult{
		Points:       points,
		ReasonsLong:  long,
		ReasonsShort: short,
		VolumeBoost:  volumeBoost(snap),
	}

	// Acceptance gate: strict reason majority, enough total evidence, and
	// confirmation from at least two of the three categories.
	var chosen []Reason
	switch {
	case len(long) > len(short):
		result.Direction = domain.Long
		chosen = long
	case len(short) > len(long):
		result.Direction = domain.Short
		chosen = short
	default:
		return result, nil
	}

	result.Reasons = chosen
	result.CategoriesConfirmed = countCategories(chosen)

	if points < 40 || len(chosen) < 3 || result.CategoriesConfirmed < 2 {
		result.Direction = ""
		result.Reasons = nil
		return result, nil
	}

	result.Accepted = true
	return result, nil
}

// RawProbability maps points to the uncalibrated probability estimate.
func (r ScoreResult) RawProbability() int {
	p := int(math.Round(float64(r.Points) * r.VolumeBoost))
	if p > 95 {
		p = 95
	}
	return p
}

func volumeBoost(snap *domain.IndicatorSnapshot) float64 {
	if snap.VolumeAverage > 0 && snap.VolumeCurrent > snap.VolumeAverage*1.3 {
		return 1.2
	}
	return 1.0
}

func countCategories(reasons []Reason) int {
	seen := make(map[ReasonCategory]bool, 3)
	for _, r := range reasons {
		seen[r.Category] = true
	}
	return len(seen)
}
