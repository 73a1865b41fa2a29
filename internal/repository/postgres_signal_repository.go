package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/herberelias/cripto-signals/internal/domain"
)

// PostgresSignalRepository stores signals, outcomes and their event log in
// Postgres. The signal_outcomes unique constraint on signal_id is what makes
// verification idempotent under concurrent passes.
type PostgresSignalRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresSignalRepository(pool *pgxpool.Pool) *PostgresSignalRepository {
	return &PostgresSignalRepository{pool: pool}
}

const signalColumns = `id, symbol, direction, entry_price, stop_loss,
	take_profit_1, take_profit_2, take_profit_3,
	probability, risk_reward, score, reason, timeframe, source,
	state, closed_percent, created_at, expires_at, close_price`

func (r *PostgresSignalRepository) CreateSignal(ctx context.Context, s *domain.Signal) error {
	if s == nil {
		return errors.New("nil signal")
	}

	_, err := r.pool.Exec(ctx, `
		insert into signals(`+signalColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`,
		s.ID, s.Symbol, string(s.Direction), s.EntryPrice, s.StopLoss,
		s.TakeProfit1, s.TakeProfit2, s.TakeProfit3,
		s.Probability, s.RiskReward, s.Score, s.Reason, string(s.Timeframe), string(s.Source),
		string(s.State), s.ClosedPercent, s.CreatedAt, s.ExpiresAt, nullableFloat(s.ClosePrice),
	)
	return err
}

func (r *PostgresSignalRepository) UpdateSignal(ctx context.Context, s *domain.Signal) error {
	if s == nil {
		return errors.New("nil signal")
	}

	tag, err := r.pool.Exec(ctx, `
		update signals set
			stop_loss=$2,
			state=$3,
			closed_percent=$4,
			close_price=$5
		where id=$1
	`, s.ID, s.StopLoss, string(s.State), s.ClosedPercent, nullableFloat(s.ClosePrice))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresSignalRepository) GetSignalByID(ctx context.Context, id string) (*domain.Signal, error) {
	row := r.pool.QueryRow(ctx, `select `+signalColumns+` from signals where id = $1`, id)
	s, err := scanSignal(row)
	if err != nil {
		return nil, fmt.Errorf("signal %s: %w", id, domain.ErrNotFound)
	}
	return s, nil
}

func (r *PostgresSignalRepository) GetActiveSignals(ctx context.Context) ([]*domain.Signal, error) {
	rows, err := r.pool.Query(ctx, `
		select `+signalColumns+`
		from signals
		where state in ('active', 'partially_closed')
		order by created_at asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	signals := make([]*domain.Signal, 0)
	for rows.Next() {
		s, scanErr := scanSignal(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

func (r *PostgresSignalRepository) HasRecentSignal(ctx context.Context, d domain.Direction, after time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		select exists(
			select 1 from signals
			where direction = $1
			and state in ('active', 'partially_closed')
			and created_at > $2
		)
	`, string(d), after).Scan(&exists)
	return exists, err
}

func (r *PostgresSignalRepository) GetHistory(ctx context.Context, limit int) ([]*domain.Signal, error) {
	rows, err := r.pool.Query(ctx, `
		select `+signalColumns+`
		from signals
		where state not in ('active', 'partially_closed')
		order by created_at desc
		limit $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	signals := make([]*domain.Signal, 0)
	for rows.Next() {
		s, scanErr := scanSignal(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

func (r *PostgresSignalRepository) InsertOutcome(ctx context.Context, o *domain.Outcome) error {
	if o == nil {
		return errors.New("nil outcome")
	}

	_, err := r.pool.Exec(ctx, `
		insert into signal_outcomes(signal_id, result, reached_price, close_reason, verified_at)
		values ($1,$2,$3,$4,$5)
	`, o.SignalID, string(o.Result), o.ReachedPrice, string(o.CloseReason), o.VerifiedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique_violation on signal_id.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateOutcome
		}
		return err
	}
	return nil
}

func (r *PostgresSignalRepository) GetOutcome(ctx context.Context, signalID string) (*domain.Outcome, error) {
	var o domain.Outcome
	var result, closeReason string
	err := r.pool.QueryRow(ctx, `
		select signal_id, result, reached_price, close_reason, verified_at
		from signal_outcomes where signal_id = $1
	`, signalID).Scan(&o.SignalID, &result, &o.ReachedPrice, &closeReason, &o.VerifiedAt)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	o.Result = domain.OutcomeResult(result)
	o.CloseReason = domain.CloseReason(closeReason)
	return &o, nil
}

// Helpers

type scanner interface {
	Scan(dest ...any) error
}

func scanSignal(s scanner) (*domain.Signal, error) {
	var sig domain.Signal
	var direction, timeframe, source, state string
	var closePrice pgtype.Float8

	if err := s.Scan(
		&sig.ID, &sig.Symbol, &direction, &sig.EntryPrice, &sig.StopLoss,
		&sig.TakeProfit1, &sig.TakeProfit2, &sig.TakeProfit3,
		&sig.Probability, &sig.RiskReward, &sig.Score, &sig.Reason, &timeframe, &source,
		&state, &sig.ClosedPercent, &sig.CreatedAt, &sig.ExpiresAt, &closePrice,
	); err != nil {
		return nil, err
	}

	sig.Direction = domain.Direction(direction)
	sig.Timeframe = domain.Timeframe(timeframe)
	sig.Source = domain.SignalSource(source)
	sig.State = domain.SignalState(state)
	if closePrice.Valid {
		v := closePrice.Float64
		sig.ClosePrice = &v
	}
	return &sig, nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return pgtype.Float8{Valid: false}
	}
	return pgtype.Float8{Valid: true, Float64: *v}
}
