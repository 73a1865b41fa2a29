package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/herberelias/cripto-signals/internal/domain"
)

// PostgresBucketRepository stores calibration buckets and the daily
// performance rollup.
type PostgresBucketRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresBucketRepository(pool *pgxpool.Pool) *PostgresBucketRepository {
	return &PostgresBucketRepository{pool: pool}
}

func (r *PostgresBucketRepository) GetBuckets(ctx context.Context) ([]*domain.ScoreBucket, error) {
	rows, err := r.pool.Query(ctx, `
		select id, min_score, max_score, total_signals, wins, losses, hit_rate, adjusted_probability
		from score_buckets
		order by min_score asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := make([]*domain.ScoreBucket, 0)
	for rows.Next() {
		var b domain.ScoreBucket
		if err := rows.Scan(&b.ID, &b.MinScore, &b.MaxScore, &b.TotalSignals, &b.Wins, &b.Losses, &b.HitRate, &b.AdjustedProbability); err != nil {
			return nil, err
		}
		buckets = append(buckets, &b)
	}
	return buckets, rows.Err()
}

func (r *PostgresBucketRepository) UpdateBucket(ctx context.Context, b *domain.ScoreBucket) error {
	if b == nil {
		return errors.New("nil bucket")
	}

	tag, err := r.pool.Exec(ctx, `
		update score_buckets set
			total_signals=$2, wins=$3, losses=$4, hit_rate=$5, adjusted_probability=$6
		where id=$1
	`, b.ID, b.TotalSignals, b.Wins, b.Losses, b.HitRate, b.AdjustedProbability)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresBucketRepository) BucketStats(ctx context.Context, minScore, maxScore int) (int, int, int, error) {
	var total, wins, losses int
	err := r.pool.QueryRow(ctx, `
		select count(*),
			count(*) filter (where o.result = 'win'),
			count(*) filter (where o.result = 'loss')
		from signal_outcomes o
		join signals s on s.id = o.signal_id
		where s.score >= $1 and s.score < $2
	`, minScore, maxScore).Scan(&total, &wins, &losses)
	return total, wins, losses, err
}

func (r *PostgresBucketRepository) UpsertDailyPerformance(ctx context.Context, p *domain.DailyPerformance) error {
	if p == nil {
		return errors.New("nil performance row")
	}

	_, err := r.pool.Exec(ctx, `
		insert into daily_performance(date, total_signals, wins, losses, hit_rate)
		values ($1,$2,$3,$4,$5)
		on conflict (date) do update set
			total_signals = excluded.total_signals,
			wins = excluded.wins,
			losses = excluded.losses,
			hit_rate = excluded.hit_rate
	`, p.Date, p.Total, p.Wins, p.Losses, p.HitRate)
	return err
}

func (r *PostgresBucketRepository) GetDailyPerformance(ctx context.Context, days int) ([]*domain.DailyPerformance, error) {
	rows, err := r.pool.Query(ctx, `
		select date, total_signals, wins, losses, hit_rate
		from daily_performance
		order by date desc
		limit $1
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.DailyPerformance, 0)
	for rows.Next() {
		var p domain.DailyPerformance
		if err := rows.Scan(&p.Date, &p.Total, &p.Wins, &p.Losses, &p.HitRate); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
