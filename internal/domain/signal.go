package domain

import (
	"errors"
	"time"
)

// Direction of a trading signal.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}

// SignalState is the lifecycle state of a signal. A signal is created
// active, may pass through partially_closed while take-profit tiers fill,
// and ends in exactly one of the terminal states.
type SignalState string

const (
	StateActive          SignalState = "active"
	StatePartiallyClosed SignalState = "partially_closed"
	StateInvalidated     SignalState = "invalidated"
	StateClosedWin       SignalState = "closed_win"
	StateClosedLoss      SignalState = "closed_loss"
	StateClosedExpired   SignalState = "closed_expired"
)

// Terminal reports whether no further lifecycle transitions are allowed.
func (s SignalState) Terminal() bool {
	switch s {
	case StateInvalidated, StateClosedWin, StateClosedLoss, StateClosedExpired:
		return true
	}
	return false
}

// Open reports whether the signal still needs monitoring. Partially closed
// signals stay open until the full position is resolved.
func (s SignalState) Open() bool {
	return s == StateActive || s == StatePartiallyClosed
}

// SignalSource records which generation path produced the signal.
type SignalSource string

const (
	SourceScheduled SignalSource = "scheduled"
	SourceDynamic   SignalSource = "dynamic"
)

// Signal is a fully parameterized directional trade idea. StopLoss is the
// only mutable level after creation (trailing stop and breakeven may move
// it, and only toward reduced risk); the take-profit levels are fixed.
type Signal struct {
	ID            string       `json:"id"`
	Symbol        string       `json:"symbol"`
	Direction     Direction    `json:"direction"`
	EntryPrice    float64      `json:"entryPrice"`
	StopLoss      float64      `json:"stopLoss"`
	TakeProfit1   float64      `json:"takeProfit1"`
	TakeProfit2   float64      `json:"takeProfit2"`
	TakeProfit3   float64      `json:"takeProfit3"`
	Probability   int          `json:"probability"`
	RiskReward    float64      `json:"riskRewardRatio"`
	Score         int          `json:"score"`
	Reason        string       `json:"reason"`
	Timeframe     Timeframe    `json:"timeframe"`
	Source        SignalSource `json:"source"`
	State         SignalState  `json:"state"`
	ClosedPercent float64      `json:"closedPercent"`
	CreatedAt     time.Time    `json:"createdAt"`
	ExpiresAt     time.Time    `json:"expiresAt"`
	ClosePrice    *float64     `json:"closePrice,omitempty"`
}

// CloseReason explains why a signal resolved.
type CloseReason string

const (
	CloseTakeProfit CloseReason = "take_profit"
	CloseStopLoss   CloseReason = "stop_loss"
	CloseExpiration CloseReason = "expiration"
)

// OutcomeResult is the terminal classification of a verified signal.
type OutcomeResult string

const (
	OutcomeWin  OutcomeResult = "win"
	OutcomeLoss OutcomeResult = "loss"
)

// Outcome is the append-only verification record. At most one exists per
// signal; the storage layer enforces the uniqueness.
type Outcome struct {
	SignalID     string        `json:"signalId"`
	Result       OutcomeResult `json:"result"`
	ReachedPrice float64       `json:"reachedPrice"`
	CloseReason  CloseReason   `json:"closeReason"`
	VerifiedAt   time.Time     `json:"verifiedAt"`
}

// EventKind tags entries in a signal's audit log.
type EventKind string

const (
	EventCreated      EventKind = "created"
	EventTrailingStop EventKind = "trailing_stop"
	EventBreakeven    EventKind = "breakeven"
	EventInvalidated  EventKind = "invalidated"
	EventPartialClose EventKind = "partial_close"
	EventClosed       EventKind = "closed"
)

// SignalEvent is one entry in the per-signal append-only event log.
type SignalEvent struct {
	SignalID string    `json:"signalId"`
	At       time.Time `json:"at"`
	Kind     EventKind `json:"kind"`
	Detail   string    `json:"detail"`
}

// ScoreBucket groups verified signals by raw score range for probability
// calibration. AdjustedProbability replaces the raw score estimate once the
// bucket holds at least MinBucketSamples outcomes.
type ScoreBucket struct {
	ID                  int     `json:"id"`
	MinScore            int     `json:"minScore"`
	MaxScore            int     `json:"maxScore"`
	TotalSignals        int     `json:"totalSignals"`
	Wins                int     `json:"wins"`
	Losses              int     `json:"losses"`
	HitRate             float64 `json:"hitRate"`
	AdjustedProbability int     `json:"adjustedProbability"`
}

// MinBucketSamples is the sample size below which a bucket carries no
// calibration weight.
const MinBucketSamples = 10

// Contains reports whether a raw score falls in the bucket's range.
func (b ScoreBucket) Contains(score int) bool {
	return score >= b.MinScore && score < b.MaxScore
}

// DailyPerformance is the per-day verification rollup.
type DailyPerformance struct {
	Date    time.Time `json:"date"`
	Total   int       `json:"total"`
	Wins    int       `json:"wins"`
	Losses  int       `json:"losses"`
	HitRate float64   `json:"hitRate"`
}

// Sentinel errors shared across the engine.
var (
	// ErrInsufficientData: fewer candles than the indicator window needs.
	ErrInsufficientData = errors.New("insufficient candle history for evaluation")
	// ErrNoSignal: the scoring rules did not produce a signal this cycle.
	// This is the expected outcome of most evaluations, not a failure.
	ErrNoSignal = errors.New("no signal this cycle")
	// ErrDuplicateOutcome: an outcome already exists for the signal.
	ErrDuplicateOutcome = errors.New("outcome already recorded for signal")
	// ErrNotFound: the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAllProvidersFailed: every market data provider in the chain failed.
	ErrAllProvidersFailed = errors.New("no market data provider responded")
)
