package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/herberelias/cripto-signals/internal/domain"
)

// PostgresEventRepository is the append-only audit log behind each signal.
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

func (r *PostgresEventRepository) Append(ctx context.Context, e *domain.SignalEvent) error {
	if e == nil {
		return errors.New("nil event")
	}

	_, err := r.pool.Exec(ctx, `
		insert into signal_events(signal_id, at, kind, detail)
		values ($1,$2,$3,$4)
	`, e.SignalID, e.At, string(e.Kind), e.Detail)
	return err
}

func (r *PostgresEventRepository) ListBySignal(ctx context.Context, signalID string) ([]*domain.SignalEvent, error) {
	rows, err := r.pool.Query(ctx, `
		select signal_id, at, kind, detail
		from signal_events
		where signal_id = $1
		order by at asc
	`, signalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.SignalEvent, 0)
	for rows.Next() {
		var e domain.SignalEvent
		var kind string
		if err := rows.Scan(&e.SignalID, &e.At, &kind, &e.Detail); err != nil {
			return nil, err
		}
		e.Kind = domain.EventKind(kind)
		events = append(events, &e)
	}
	return events, rows.Err()
}
