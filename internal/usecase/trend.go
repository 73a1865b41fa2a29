package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/herberelias/cripto-signals/internal/domain"
	"github.com/herberelias/cripto-signals/internal/infrastructure/indicators"
)

// trendBonus is added to the score when the higher timeframe confirms the
// signal direction.
const trendBonus = 5

// trendCandleLimit covers EMA200 on the higher timeframe.
const trendCandleLimit = 210

// TrendFilter checks a candidate direction against the next-higher
// timeframe. An opposing higher-timeframe trend is a hard veto; an aligned
// one earns a small score bonus; neutral passes unchanged.
type TrendFilter struct {
	candles domain.CandleProvider
	log     zerolog.Logger
}

func NewTrendFilter(candles domain.CandleProvider, log zerolog.Logger) *TrendFilter {
	return &TrendFilter{candles: candles, log: log.With().Str("component", "trend_filter").Logger()}
}

// Check returns the score bonus and whether the direction is vetoed. A
// failed higher-timeframe fetch degrades to neutral rather than blocking
// signal generation.
func (f *TrendFilter) Check(ctx context.Context, symbol string, tf domain.Timeframe, dir domain.Direction) (int, bool) {
	higher := tf.Higher()
	candles, err := f.candles.Candles(ctx, symbol, higher, trendCandleLimit)
	if err != nil {
		f.log.Warn().Err(err).Str("timeframe", string(higher)).Msg("higher timeframe fetch failed, skipping trend filter")
		return 0, false
	}

	switch indicators.Snapshot(candles).Bias() {
	case domain.BiasBullish:
		if dir == domain.Short {
			return 0, true
		}
		if dir == domain.Long {
			return trendBonus, false
		}
	case domain.BiasBearish:
		if dir == domain.Long {
			return 0, true
		}
		if dir == domain.Short {
			return trendBonus, false
		}
	}
	return 0, false
}
