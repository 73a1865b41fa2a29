package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/herberelias/cripto-signals/internal/domain"
	"github.com/herberelias/cripto-signals/internal/infrastructure/indicators"
	"github.com/herberelias/cripto-signals/internal/metrics"
)

// Dynamic path tuning. The 5m triggers are deliberately noisier than the
// scheduled scorer, so the acceptance bar and the probability clamp are
// both tighter.
const (
	dynamicMinPoints   = 30
	dynamicMinTriggers = 2
	dynamicDedupWindow = 15 * time.Minute
	dynamicProbFloor   = 30
	dynamicProbCeil    = 70
	fastMoveLookback   = 3 // 5m candles, a 15 minute move
)

// Trigger is one fast-path condition that fired on the 5m window.
type Trigger struct {
	Name      string
	Direction domain.Direction
	Points    int
}

// TriggerService watches the 5m timeframe for abrupt conditions and emits
// dynamic signals outside the scheduled evaluation cadence.
type TriggerService struct {
	candles domain.CandleProvider
	gen     *SignalGenerator
	signals domain.SignalRepository
	symbol  string
	ttl     time.Duration
	log     zerolog.Logger
}

func NewTriggerService(candles domain.CandleProvider, gen *SignalGenerator, signals domain.SignalRepository, symbol string, ttl time.Duration, log zerolog.Logger) *TriggerService {
	return &TriggerService{
		candles: candles,
		gen:     gen,
		signals: signals,
		symbol:  symbol,
		ttl:     ttl,
		log:     log.With().Str("component", "dynamic_analysis").Logger(),
	}
}

// DetectTriggers evaluates the fast-path conditions on a 5m candle window.
func DetectTriggers(candles []domain.Candle, snap *domain.IndicatorSnapshot) []Trigger {
	var out []Trigger
	n := len(candles)
	if n < fastMoveLookback+1 {
		return out
	}
	last := candles[n-1]

	// Volume spike, graded.
	if snap.VolumeAverage > 0 {
		ratio := snap.VolumeCurrent / snap.VolumeAverage
		dir := domain.Short
		if last.Bullish() {
			dir = domain.Long
		}
		if ratio >= 2.0 {
			out = append(out, Trigger{Name: "volume spike x2", Direction: dir, Points: 20})
		} else if ratio >= 1.5 {
			out = append(out, Trigger{Name: "volume spike", Direction: dir, Points: 10})
		}
	}

	// Fast move over the lookback window.
	ref := candles[n-1-fastMoveLookback].Close
	if ref > 0 {
		movePct := (last.Close - ref) / ref * 100
		dir := domain.Long
		if movePct < 0 {
			dir = domain.Short
		}
		abs := math.Abs(movePct)
		if abs >= 2.0 {
			out = append(out, Trigger{Name: fmt.Sprintf("fast move %.2f%%", movePct), Direction: dir, Points: 25})
		} else if abs >= 1.0 {
			out = append(out, Trigger{Name: fmt.Sprintf("fast move %.2f%%", movePct), Direction: dir, Points: 15})
		}
	}

	// RSI extremes.
	if snap.RSI != nil {
		if *snap.RSI < 30 {
			out = append(out, Trigger{Name: "RSI oversold", Direction: domain.Long, Points: 15})
		} else if *snap.RSI > 70 {
			out = append(out, Trigger{Name: "RSI overbought", Direction: domain.Short, Points: 15})
		}
	}

	// EMA20/50 cross on the latest candle.
	if dir, ok := emaCross(candles); ok {
		name := "EMA bullish cross"
		if dir == domain.Short {
			name = "EMA bearish cross"
		}
		out = append(out, Trigger{Name: name, Direction: dir, Points: 20})
	}

	return out
}

// emaCross reports whether the EMA20/EMA50 ordering flipped on the last
// candle.
func emaCross(candles []domain.Candle) (domain.Direction, bool) {
	if len(candles) < 52 {
		return "", false
	}
	cur := indicators.Snapshot(candles)
	if cur.EMA20 == nil || cur.EMA50 == nil {
		return "", false
	}
	prev := indicators.Snapshot(candles[:len(candles)-1])
	if prev.EMA20 == nil || prev.EMA50 == nil {
		return "", false
	}

	if *prev.EMA20 <= *prev.EMA50 && *cur.EMA20 > *cur.EMA50 {
		return domain.Long, true
	}
	if *prev.EMA20 >= *prev.EMA50 && *cur.EMA20 < *cur.EMA50 {
		return domain.Short, true
	}
	return "", false
}

// RunDynamicAnalysis is the 5m fast path: detect triggers, adjust for the
// higher timeframe context, and emit a dynamic signal when the bar is met.
func (t *TriggerService) RunDynamicAnalysis(ctx context.Context) (*domain.Signal, error) {
	candles, err := t.candles.Candles(ctx, t.symbol, domain.Timeframe5m, 150)
	if err != nil {
		return nil, fmt.Errorf("fetch 5m candles: %w", err)
	}
	snap := indicators.Snapshot(candles)
	triggers := DetectTriggers(candles, snap)
	dir, points, aligned := dominantDirection(triggers)
	if dir == "" || aligned < dynamicMinTriggers {
		return nil, domain.ErrNoSignal
	}

	points += t.contextAdjustment(ctx, dir)
	if points < dynamicMinPoints {
		metrics.SignalsRejected.WithLabelValues("dynamic_gate").Inc()
		return nil, domain.ErrNoSignal
	}

	// One dynamic signal per direction per window.
	recent, err := t.signals.HasRecentSignal(ctx, dir, time.Now().Add(-dynamicDedupWindow))
	if err != nil {
		return nil, fmt.Errorf("dedup lookup: %w", err)
	}
	if recent {
		t.log.Debug().Str("direction", string(dir)).Msg("dynamic signal suppressed, recent duplicate")
		return nil, domain.ErrNoSignal
	}

	// Levels come from the 1h ATR so fast signals still carry meaningful
	// stop distance.
	hourly, err := t.candles.Candles(ctx, t.symbol, domain.Timeframe1h, 210)
	if err != nil {
		return nil, fmt.Errorf("fetch 1h candles: %w", err)
	}
	hourlySnap := indicators.Snapshot(hourly)
	lv, ok := BuildLevels(dir, snap.LastClose, hourlySnap.ATR)
	if !ok {
		metrics.SignalsRejected.WithLabelValues("risk_reward").Inc()
		return nil, domain.ErrNoSignal
	}

	reasons := make([]string, 0, len(triggers))
	for _, tr := range triggers {
		if tr.Direction == dir {
			reasons = append(reasons, tr.Name)
		}
	}

	now := time.Now().UTC()
	signal := &domain.Signal{
		ID:          uuid.NewString(),
		Symbol:      t.symbol,
		Direction:   dir,
		EntryPrice:  lv.Entry,
		StopLoss:    lv.StopLoss,
		TakeProfit1: lv.TakeProfit1,
		TakeProfit2: lv.TakeProfit2,
		TakeProfit3: lv.TakeProfit3,
		Probability: clampDynamicProbability(points),
		RiskReward:  lv.RiskReward,
		Score:       points,
		Reason:      strings.Join(reasons, "; "),
		Timeframe:   domain.Timeframe5m,
		Source:      domain.SourceDynamic,
		State:       domain.StateActive,
		CreatedAt:   now,
		ExpiresAt:   now.Add(t.ttl),
	}

	if err := t.gen.persist(ctx, signal); err != nil {
		return nil, err
	}
	return signal, nil
}

// contextAdjustment folds the 4h and 1h biases into the trigger score.
func (t *TriggerService) contextAdjustment(ctx context.Context, dir domain.Direction) int {
	adj := 0
	if bias := t.biasOf(ctx, domain.Timeframe4h); bias != domain.BiasNeutral {
		if biasMatches(bias, dir) {
			adj += 10
		} else {
			adj -= 15
		}
	}
	if bias := t.biasOf(ctx, domain.Timeframe1h); biasMatches(bias, dir) {
		adj += 5
	}
	return adj
}

func (t *TriggerService) biasOf(ctx context.Context, tf domain.Timeframe) domain.TrendBias {
	candles, err := t.candles.Candles(ctx, t.symbol, tf, 210)
	if err != nil {
		return domain.BiasNeutral
	}
	return indicators.Snapshot(candles).Bias()
}

func biasMatches(bias domain.TrendBias, dir domain.Direction) bool {
	return (bias == domain.BiasBullish && dir == domain.Long) ||
		(bias == domain.BiasBearish && dir == domain.Short)
}

// dominantDirection sums trigger points per side and returns the winner,
// its point total, and how many triggers aligned with it.
func dominantDirection(triggers []Trigger) (domain.Direction, int, int) {
	var longPts, shortPts, longN, shortN int
	for _, tr := range triggers {
		if tr.Direction == domain.Long {
			longPts += tr.Points
			longN++
		} else {
			shortPts += tr.Points
			shortN++
		}
	}
	switch {
	case longPts > shortPts:
		return domain.Long, longPts, longN
	case shortPts > longPts:
		return domain.Short, shortPts, shortN
	default:
		return "", 0, 0
	}
}

func clampDynamicProbability(points int) int {
	if points < dynamicProbFloor {
		return dynamicProbFloor
	}
	if points > dynamicProbCeil {
		return dynamicProbCeil
	}
	return points
}
