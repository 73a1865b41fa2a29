package usecase

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/herberelias/cripto-signals/internal/domain"
)

// calibrationDeltaPP is the minimum difference, in percentage points,
// between the raw estimate and the bucket hit rate before the bucket
// overrides the raw probability.
const calibrationDeltaPP = 5

// CalibrationService reconciles predicted probabilities with the observed
// hit rate of verified signals, bucketed by raw score.
type CalibrationService struct {
	buckets domain.BucketRepository
	log     zerolog.Logger
}

func NewCalibrationService(buckets domain.BucketRepository, log zerolog.Logger) *CalibrationService {
	return &CalibrationService{buckets: buckets, log: log.With().Str("component", "calibration").Logger()}
}

// AdjustedProbability returns the probability to attach to a new signal.
// The raw estimate stands unless the matching bucket has enough verified
// samples and its observed hit rate disagrees by more than the threshold.
func (c *CalibrationService) AdjustedProbability(ctx context.Context, score, raw int) int {
	buckets, err := c.buckets.GetBuckets(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("bucket lookup failed, using raw probability")
		return raw
	}

	for _, b := range buckets {
		if !b.Contains(score) {
			continue
		}
		if b.TotalSignals < domain.MinBucketSamples {
			return raw
		}
		if int(math.Abs(float64(b.AdjustedProbability-raw))) > calibrationDeltaPP {
			return b.AdjustedProbability
		}
		return raw
	}
	return raw
}

// Recalculate refreshes every bucket from the verified outcome table.
// Buckets below the sample threshold keep their previous adjustment so a
// handful of outcomes cannot swing new signal probabilities.
func (c *CalibrationService) Recalculate(ctx context.Context) error {
	buckets, err := c.buckets.GetBuckets(ctx)
	if err != nil {
		return err
	}

	for _, b := range buckets {
		total, wins, losses, err := c.buckets.BucketStats(ctx, b.MinScore, b.MaxScore)
		if err != nil {
			return err
		}
		if total < domain.MinBucketSamples {
			continue
		}

		b.TotalSignals = total
		b.Wins = wins
		b.Losses = losses
		b.HitRate = float64(wins) / float64(total)
		b.AdjustedProbability = clampProbability(int(math.Round(b.HitRate * 100)))

		if err := c.buckets.UpdateBucket(ctx, b); err != nil {
			return err
		}
		c.log.Info().
			Int("min_score", b.MinScore).
			Int("max_score", b.MaxScore).
			Int("total", total).
			Float64("hit_rate", b.HitRate).
			Msg("calibration bucket updated")
	}
	return nil
}

// RecordDaily folds one verified outcome into today's performance row.
func (c *CalibrationService) RecordDaily(ctx context.Context, result domain.OutcomeResult, at time.Time) error {
	day := at.UTC().Truncate(24 * time.Hour)

	row := &domain.DailyPerformance{Date: day}
	recent, err := c.buckets.GetDailyPerformance(ctx, 1)
	if err == nil && len(recent) == 1 && recent[0].Date.Equal(day) {
		row = recent[0]
	}

	row.Total++
	if result == domain.OutcomeWin {
		row.Wins++
	} else {
		row.Losses++
	}
	row.HitRate = float64(row.Wins) / float64(row.Total)

	return c.buckets.UpsertDailyPerformance(ctx, row)
}

func clampProbability(p int) int {
	if p < 5 {
		return 5
	}
	if p > 95 {
		return 95
	}
	return p
}
