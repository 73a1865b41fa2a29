package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the tables the engine needs. Kept as plain DDL so setup
// works without an external migration tool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`create table if not exists signals (
			id text primary key,
			symbol text not null,
			direction text not null,
			entry_price double precision not null,
			stop_loss double precision not null,
			take_profit_1 double precision not null,
			take_profit_2 double precision not null,
			take_profit_3 double precision not null,
			probability int not null,
			risk_reward double precision not null,
			score int not null,
			reason text not null default '',
			timeframe text not null,
			source text not null default 'scheduled',
			state text not null default 'active',
			closed_percent double precision not null default 0,
			created_at timestamptz not null default now(),
			expires_at timestamptz not null,
			close_price double precision null
		);`,
		`create index if not exists signals_state_idx on signals(state);`,
		`create index if not exists signals_created_at_idx on signals(created_at desc);`,

		// unique(signal_id) is what makes outcome verification idempotent at
		// the storage layer.
		`create table if not exists signal_outcomes (
			id bigserial primary key,
			signal_id text not null references signals(id),
			result text not null,
			reached_price double precision not null,
			close_reason text not null,
			verified_at timestamptz not null default now(),
			unique(signal_id)
		);`,

		`create table if not exists signal_events (
			id bigserial primary key,
			signal_id text not null references signals(id),
			at timestamptz not null default now(),
			kind text not null,
			detail text not null default ''
		);`,
		`create index if not exists signal_events_signal_idx on signal_events(signal_id, at);`,

		`create table if not exists score_buckets (
			id serial primary key,
			min_score int not null,
			max_score int not null,
			total_signals int not null default 0,
			wins int not null default 0,
			losses int not null default 0,
			hit_rate double precision not null default 0,
			adjusted_probability int not null default 0,
			unique(min_score, max_score)
		);`,
		`insert into score_buckets (min_score, max_score) values
			(0, 20), (20, 40), (40, 60), (60, 80), (80, 101)
		on conflict (min_score, max_score) do nothing;`,

		`create table if not exists daily_performance (
			date date primary key,
			total_signals int not null default 0,
			wins int not null default 0,
			losses int not null default 0,
			hit_rate double precision not null default 0
		);`,

		`create table if not exists device_tokens (
			token text primary key,
			platform text not null default '',
			created_at timestamptz not null default now()
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
