package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/herberelias/cripto-signals/internal/domain"
)

// InMemorySignalRepository backs tests and backtests. It enforces the same
// one-outcome-per-signal rule the Postgres unique constraint does.
type InMemorySignalRepository struct {
	mu       sync.RWMutex
	signals  map[string]*domain.Signal
	outcomes map[string]*domain.Outcome
}

func NewInMemorySignalRepository() *InMemorySignalRepository {
	return &InMemorySignalRepository{
		signals:  make(map[string]*domain.Signal),
		outcomes: make(map[string]*domain.Outcome),
	}
}

func (r *InMemorySignalRepository) CreateSignal(_ context.Context, s *domain.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.signals[s.ID]; exists {
		return domain.ErrDuplicateOutcome
	}
	cp := *s
	r.signals[s.ID] = &cp
	return nil
}

func (r *InMemorySignalRepository) UpdateSignal(_ context.Context, s *domain.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.signals[s.ID]; !exists {
		return domain.ErrNotFound
	}
	cp := *s
	r.signals[s.ID] = &cp
	return nil
}

func (r *InMemorySignalRepository) GetSignalByID(_ context.Context, id string) (*domain.Signal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.signals[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *InMemorySignalRepository) GetActiveSignals(_ context.Context) ([]*domain.Signal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]*domain.Signal, 0)
	for _, s := range r.signals {
		if s.State.Open() {
			cp := *s
			active = append(active, &cp)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})
	return active, nil
}

func (r *InMemorySignalRepository) HasRecentSignal(_ context.Context, d domain.Direction, after time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.signals {
		if s.Direction == d && s.State.Open() && s.CreatedAt.After(after) {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemorySignalRepository) GetHistory(_ context.Context, limit int) ([]*domain.Signal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	closed := make([]*domain.Signal, 0)
	for _, s := range r.signals {
		if !s.State.Open() {
			cp := *s
			closed = append(closed, &cp)
		}
	}
	sort.Slice(closed, func(i, j int) bool {
		return closed[i].CreatedAt.After(closed[j].CreatedAt)
	})
	if limit > 0 && len(closed) > limit {
		closed = closed[:limit]
	}
	return closed, nil
}

func (r *InMemorySignalRepository) InsertOutcome(_ context.Context, o *domain.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.outcomes[o.SignalID]; exists {
		return domain.ErrDuplicateOutcome
	}
	cp := *o
	r.outcomes[o.SignalID] = &cp
	return nil
}

func (r *InMemorySignalRepository) GetOutcome(_ context.Context, signalID string) (*domain.Outcome, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, exists := r.outcomes[signalID]
	if !exists {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

// OutcomeCount reports how many outcomes are stored. Test helper.
func (r *InMemorySignalRepository) OutcomeCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.outcomes)
}

// InMemoryBucketRepository holds calibration buckets for tests and
// backtests.
type InMemoryBucketRepository struct {
	mu      sync.RWMutex
	buckets []*domain.ScoreBucket
	daily   map[string]*domain.DailyPerformance
	signals *InMemorySignalRepository
}

// NewInMemoryBucketRepository seeds the standard bucket layout. The signal
// repository is consulted for BucketStats; it may be nil when stats are not
// needed.
func NewInMemoryBucketRepository(signals *InMemorySignalRepository) *InMemoryBucketRepository {
	bounds := [][2]int{{0, 20}, {20, 40}, {40, 60}, {60, 80}, {80, 101}}
	buckets := make([]*domain.ScoreBucket, 0, len(bounds))
	for i, b := range bounds {
		buckets = append(buckets, &domain.ScoreBucket{ID: i + 1, MinScore: b[0], MaxScore: b[1]})
	}
	return &InMemoryBucketRepository{
		buckets: buckets,
		daily:   make(map[string]*domain.DailyPerformance),
		signals: signals,
	}
}

func (r *InMemoryBucketRepository) GetBuckets(_ context.Context) ([]*domain.ScoreBucket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.ScoreBucket, 0, len(r.buckets))
	for _, b := range r.buckets {
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (r *InMemoryBucketRepository) UpdateBucket(_ context.Context, b *domain.ScoreBucket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.buckets {
		if existing.ID == b.ID {
			cp := *b
			r.buckets[i] = &cp
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *InMemoryBucketRepository) BucketStats(_ context.Context, minScore, maxScore int) (int, int, int, error) {
	if r.signals == nil {
		return 0, 0, 0, nil
	}

	r.signals.mu.RLock()
	defer r.signals.mu.RUnlock()

	var total, wins, losses int
	for id, o := range r.signals.outcomes {
		s, ok := r.signals.signals[id]
		if !ok || s.Score < minScore || s.Score >= maxScore {
			continue
		}
		total++
		if o.Result == domain.OutcomeWin {
			wins++
		} else {
			losses++
		}
	}
	return total, wins, losses, nil
}

func (r *InMemoryBucketRepository) UpsertDailyPerformance(_ context.Context, p *domain.DailyPerformance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *p
	r.daily[p.Date.Format("2006-01-02")] = &cp
	return nil
}

func (r *InMemoryBucketRepository) GetDailyPerformance(_ context.Context, days int) ([]*domain.DailyPerformance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.DailyPerformance, 0, len(r.daily))
	for _, p := range r.daily {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if days > 0 && len(out) > days {
		out = out[:days]
	}
	return out, nil
}

// InMemoryEventRepository keeps each signal's audit trail in memory.
type InMemoryEventRepository struct {
	mu     sync.RWMutex
	events map[string][]*domain.SignalEvent
}

func NewInMemoryEventRepository() *InMemoryEventRepository {
	return &InMemoryEventRepository{events: make(map[string][]*domain.SignalEvent)}
}

func (r *InMemoryEventRepository) Append(_ context.Context, e *domain.SignalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *e
	r.events[e.SignalID] = append(r.events[e.SignalID], &cp)
	return nil
}

func (r *InMemoryEventRepository) ListBySignal(_ context.Context, signalID string) ([]*domain.SignalEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.events[signalID]
	out := make([]*domain.SignalEvent, 0, len(src))
	for _, e := range src {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}
