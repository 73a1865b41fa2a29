package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSchedulerRunsAndStops(t *testing.T) {
	var runs int64
	sched := NewScheduler(zerolog.Nop())
	sched.Add(Job{
		Name:     "counter",
		Interval: 10 * time.Millisecond,
		Run: func(context.Context) error {
			atomic.AddInt64(&runs, 1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	sched.Start(ctx)
	time.Sleep(60 * time.Millisecond)
	cancel()
	sched.Wait()

	got := atomic.LoadInt64(&runs)
	if got < 2 {
		t.Fatalf("expected at least 2 runs, got %d", got)
	}

	// No more runs after shutdown.
	time.Sleep(30 * time.Millisecond)
	if after := atomic.LoadInt64(&runs); after != got {
		t.Fatalf("job ran after cancellation: %d -> %d", got, after)
	}
}

func TestSchedulerNeverOverlapsAJob(t *testing.T) {
	var inFlight, overlaps int64
	sched := NewScheduler(zerolog.Nop())
	sched.Add(Job{
		Name:     "slow",
		Interval: 5 * time.Millisecond,
		Run: func(context.Context) error {
			if atomic.AddInt64(&inFlight, 1) > 1 {
				atomic.AddInt64(&overlaps, 1)
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	sched.Start(ctx)
	time.Sleep(100 * time.Millisecond)
	cancel()
	sched.Wait()

	if n := atomic.LoadInt64(&overlaps); n != 0 {
		t.Fatalf("job overlapped itself %d times", n)
	}
}
