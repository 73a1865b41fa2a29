package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/herberelias/cripto-signals/internal/metrics"
)

// Job is one recurring unit of scheduled work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs each job on its own synchronous loop: the next tick only
// fires after the previous run returned, so a job can never overlap itself.
type Scheduler struct {
	jobs []Job
	log  zerolog.Logger
	wg   sync.WaitGroup
}

func NewScheduler(log zerolog.Logger) *Scheduler {
	return &Scheduler{log: log.With().Str("component", "scheduler").Logger()}
}

func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start launches every job loop. It returns immediately; jobs stop when
// the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go func(j Job) {
			defer s.wg.Done()
			s.runEvery(ctx, j)
		}(job)
	}
}

// Wait blocks until every job loop has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runEvery(ctx context.Context, j Job) {
	s.log.Info().Str("job", j.Name).Dur("interval", j.Interval).Msg("job started")

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Str("job", j.Name).Msg("job stopped")
			return
		case <-ticker.C:
			start := time.Now()
			if err := j.Run(ctx); err != nil {
				s.log.Error().Err(err).Str("job", j.Name).Msg("job run failed")
			}
			metrics.CycleDuration.WithLabelValues(j.Name).Observe(time.Since(start).Seconds())
		}
	}
}
