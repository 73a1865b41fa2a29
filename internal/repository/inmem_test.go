package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/herberelias/cripto-signals/internal/domain"
)

func seedSignal(t *testing.T, repo *InMemorySignalRepository, id string, state domain.SignalState, created time.Time) {
	t.Helper()
	err := repo.CreateSignal(context.Background(), &domain.Signal{
		ID:         id,
		Symbol:     "BTC",
		Direction:  domain.Long,
		EntryPrice: 100,
		State:      state,
		CreatedAt:  created,
		ExpiresAt:  created.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestInsertOutcomeIsUniquePerSignal(t *testing.T) {
	repo := NewInMemorySignalRepository()
	ctx := context.Background()
	seedSignal(t, repo, "s1", domain.StateActive, time.Now())

	outcome := &domain.Outcome{SignalID: "s1", Result: domain.OutcomeWin, VerifiedAt: time.Now()}
	if err := repo.InsertOutcome(ctx, outcome); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	second := &domain.Outcome{SignalID: "s1", Result: domain.OutcomeLoss, VerifiedAt: time.Now()}
	if err := repo.InsertOutcome(ctx, second); !errors.Is(err, domain.ErrDuplicateOutcome) {
		t.Fatalf("expected ErrDuplicateOutcome, got %v", err)
	}

	// The original record is untouched.
	got, err := repo.GetOutcome(ctx, "s1")
	if err != nil {
		t.Fatalf("GetOutcome: %v", err)
	}
	if got.Result != domain.OutcomeWin {
		t.Fatalf("outcome overwritten: %+v", got)
	}
}

func TestGetActiveSignalsOrderAndFilter(t *testing.T) {
	repo := NewInMemorySignalRepository()
	now := time.Now()
	seedSignal(t, repo, "newer", domain.StateActive, now)
	seedSignal(t, repo, "older", domain.StateActive, now.Add(-time.Hour))
	seedSignal(t, repo, "partial", domain.StatePartiallyClosed, now.Add(-30*time.Minute))
	seedSignal(t, repo, "done", domain.StateClosedWin, now.Add(-2*time.Hour))

	active, err := repo.GetActiveSignals(context.Background())
	if err != nil {
		t.Fatalf("GetActiveSignals: %v", err)
	}
	if len(active) != 3 {
		t.Fatalf("expected 3 open signals, got %d", len(active))
	}
	if active[0].ID != "older" || active[1].ID != "partial" || active[2].ID != "newer" {
		t.Fatalf("wrong order: %s %s %s", active[0].ID, active[1].ID, active[2].ID)
	}
}

func TestHasRecentSignal(t *testing.T) {
	repo := NewInMemorySignalRepository()
	ctx := context.Background()
	now := time.Now()
	seedSignal(t, repo, "s1", domain.StateActive, now.Add(-10*time.Minute))

	recent, err := repo.HasRecentSignal(ctx, domain.Long, now.Add(-15*time.Minute))
	if err != nil {
		t.Fatalf("HasRecentSignal: %v", err)
	}
	if !recent {
		t.Fatal("expected recent long signal")
	}

	recent, err = repo.HasRecentSignal(ctx, domain.Short, now.Add(-15*time.Minute))
	if err != nil {
		t.Fatalf("HasRecentSignal: %v", err)
	}
	if recent {
		t.Fatal("no short signal exists")
	}

	recent, err = repo.HasRecentSignal(ctx, domain.Long, now.Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("HasRecentSignal: %v", err)
	}
	if recent {
		t.Fatal("signal is older than the cutoff")
	}
}

func TestGetHistoryReturnsClosedNewestFirst(t *testing.T) {
	repo := NewInMemorySignalRepository()
	now := time.Now()
	seedSignal(t, repo, "open", domain.StateActive, now)
	seedSignal(t, repo, "old-close", domain.StateClosedLoss, now.Add(-2*time.Hour))
	seedSignal(t, repo, "new-close", domain.StateClosedWin, now.Add(-time.Hour))

	history, err := repo.GetHistory(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 closed signals, got %d", len(history))
	}
	if history[0].ID != "new-close" || history[1].ID != "old-close" {
		t.Fatalf("wrong order: %s %s", history[0].ID, history[1].ID)
	}
}
