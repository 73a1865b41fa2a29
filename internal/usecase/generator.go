package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/herberelias/cripto-signals/internal/domain"
	"github.com/herberelias/cripto-signals/internal/infrastructure/indicators"
	"github.com/herberelias/cripto-signals/internal/metrics"
)

// fetchCandleLimit leaves headroom over the scorer's 200-candle minimum.
const fetchCandleLimit = 250

// SignalGenerator runs the full evaluation pipeline for the scheduled path:
// fetch, snapshot, score, gate, build levels, persist, notify.
type SignalGenerator struct {
	candles     domain.CandleProvider
	scorer      *Scorer
	trend       *TrendFilter
	calibration *CalibrationService
	signals     domain.SignalRepository
	events      domain.EventRepository
	notifier    Notifier
	symbol      string
	ttl         time.Duration
	log         zerolog.Logger
}

func NewSignalGenerator(
	candles domain.CandleProvider,
	scorer *Scorer,
	trend *TrendFilter,
	calibration *CalibrationService,
	signals domain.SignalRepository,
	events domain.EventRepository,
	notifier Notifier,
	symbol string,
	ttl time.Duration,
	log zerolog.Logger,
) *SignalGenerator {
	return &SignalGenerator{
		candles:     candles,
		scorer:      scorer,
		trend:       trend,
		calibration: calibration,
		signals:     signals,
		events:      events,
		notifier:    notifier,
		symbol:      symbol,
		ttl:         ttl,
		log:         log.With().Str("component", "generator").Logger(),
	}
}

// EvaluateSignal runs one evaluation cycle on the given timeframe. The
// common outcome is (nil, ErrNoSignal): the rules simply did not line up.
func (g *SignalGenerator) EvaluateSignal(ctx context.Context, tf domain.Timeframe) (*domain.Signal, error) {
	candles, err := g.candles.Candles(ctx, g.symbol, tf, fetchCandleLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}
	if len(candles) < MinScoringCandles {
		return nil, fmt.Errorf("%w: got %d candles, need %d", domain.ErrInsufficientData, len(candles), MinScoringCandles)
	}

	snap := indicators.Snapshot(candles)
	res, err := g.scorer.Score(candles, snap)
	if err != nil {
		return nil, err
	}
	if !res.Accepted {
		metrics.SignalsRejected.WithLabelValues("score_gate").Inc()
		return nil, domain.ErrNoSignal
	}

	bonus, vetoed := g.trend.Check(ctx, g.symbol, tf, res.Direction)
	if vetoed {
		g.log.Info().Str("direction", string(res.Direction)).Msg("signal vetoed by higher timeframe trend")
		metrics.SignalsRejected.WithLabelValues("trend_veto").Inc()
		return nil, domain.ErrNoSignal
	}

	lv, ok := BuildLevels(res.Direction, snap.LastClose, snap.ATR)
	if !ok {
		metrics.SignalsRejected.WithLabelValues("risk_reward").Inc()
		return nil, domain.ErrNoSignal
	}

	score := res.Points + bonus
	raw := res.RawProbability() + bonus
	if raw > 95 {
		raw = 95
	}
	prob := g.calibration.AdjustedProbability(ctx, score, raw)

	reasons := make([]string, 0, len(res.Reasons)+1)
	for _, r := range res.Reasons {
		reasons = append(reasons, r.Text)
	}
	if bonus > 0 {
		reasons = append(reasons, "higher timeframe trend aligned")
	}

	now := time.Now().UTC()
	signal := &domain.Signal{
		ID:          uuid.NewString(),
		Symbol:      g.symbol,
		Direction:   res.Direction,
		EntryPrice:  lv.Entry,
		StopLoss:    lv.StopLoss,
		TakeProfit1: lv.TakeProfit1,
		TakeProfit2: lv.TakeProfit2,
		TakeProfit3: lv.TakeProfit3,
		Probability: prob,
		RiskReward:  lv.RiskReward,
		Score:       score,
		Reason:      strings.Join(reasons, "; "),
		Timeframe:   tf,
		Source:      domain.SourceScheduled,
		State:       domain.StateActive,
		CreatedAt:   now,
		ExpiresAt:   now.Add(g.ttl),
	}

	if err := g.persist(ctx, signal); err != nil {
		return nil, err
	}
	return signal, nil
}

// persist stores the signal, appends the creation event and fires the push
// alert. Notification failure is logged, never fatal.
func (g *SignalGenerator) persist(ctx context.Context, s *domain.Signal) error {
	if err := g.signals.CreateSignal(ctx, s); err != nil {
		return fmt.Errorf("create signal: %w", err)
	}
	if err := g.events.Append(ctx, &domain.SignalEvent{
		SignalID: s.ID,
		At:       s.CreatedAt,
		Kind:     domain.EventCreated,
		Detail:   fmt.Sprintf("%s @ %.2f, score %d, probability %d%%", s.Direction, s.EntryPrice, s.Score, s.Probability),
	}); err != nil {
		g.log.Warn().Err(err).Str("signal_id", s.ID).Msg("creation event not recorded")
	}

	metrics.SignalsGenerated.WithLabelValues(string(s.Direction), string(s.Source)).Inc()
	g.log.Info().
		Str("signal_id", s.ID).
		Str("direction", string(s.Direction)).
		Float64("entry", s.EntryPrice).
		Int("score", s.Score).
		Int("probability", s.Probability).
		Msg("signal generated")

	if err := g.notifier.NotifySignal(ctx, s); err != nil {
		g.log.Warn().Err(err).Str("signal_id", s.ID).Msg("push notification failed")
	}
	return nil
}
