package domain

import (
	"context"
	"time"
)

// SignalRepository persists signals and their verification outcomes.
type SignalRepository interface {
	CreateSignal(ctx context.Context, s *Signal) error
	UpdateSignal(ctx context.Context, s *Signal) error
	GetSignalByID(ctx context.Context, id string) (*Signal, error)
	// GetActiveSignals returns signals still needing monitoring
	// (active and partially closed), oldest first.
	GetActiveSignals(ctx context.Context) ([]*Signal, error)
	// HasRecentSignal reports whether an open signal with the given
	// direction was created after the cutoff. Used to suppress duplicate
	// dynamic signals.
	HasRecentSignal(ctx context.Context, d Direction, after time.Time) (bool, error)
	GetHistory(ctx context.Context, limit int) ([]*Signal, error)
	// InsertOutcome records the verification result. Returns
	// ErrDuplicateOutcome if one already exists for the signal.
	InsertOutcome(ctx context.Context, o *Outcome) error
	GetOutcome(ctx context.Context, signalID string) (*Outcome, error)
}

// BucketRepository persists the score calibration buckets.
type BucketRepository interface {
	GetBuckets(ctx context.Context) ([]*ScoreBucket, error)
	UpdateBucket(ctx context.Context, b *ScoreBucket) error
	// BucketStats recomputes totals from verified outcomes whose raw score
	// falls in [minScore, maxScore).
	BucketStats(ctx context.Context, minScore, maxScore int) (total, wins, losses int, err error)
	UpsertDailyPerformance(ctx context.Context, p *DailyPerformance) error
	GetDailyPerformance(ctx context.Context, days int) ([]*DailyPerformance, error)
}

// EventRepository stores the append-only per-signal audit log.
type EventRepository interface {
	Append(ctx context.Context, e *SignalEvent) error
	ListBySignal(ctx context.Context, signalID string) ([]*SignalEvent, error)
}

// CandleProvider fetches ascending-ordered candles for a symbol/timeframe.
type CandleProvider interface {
	Name() string
	Candles(ctx context.Context, symbol string, tf Timeframe, limit int) ([]Candle, error)
}

// PriceProvider fetches the current spot price for a symbol.
type PriceProvider interface {
	Name() string
	Price(ctx context.Context, symbol string) (float64, error)
}
