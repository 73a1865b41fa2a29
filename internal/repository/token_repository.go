package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DeviceToken is a registered push notification target.
type DeviceToken struct {
	Token     string
	Platform  string // "android" or "ios"
	CreatedAt time.Time
}

// TokenRepository keeps device tokens in memory and mirrors them to
// Postgres when a pool is provided, so registrations survive restarts.
type TokenRepository struct {
	tokens map[string]*DeviceToken
	pool   *pgxpool.Pool
	mu     sync.RWMutex
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	r := &TokenRepository{
		tokens: make(map[string]*DeviceToken),
		pool:   pool,
	}
	r.loadFromStore()
	return r
}

func (r *TokenRepository) loadFromStore() {
	if r.pool == nil {
		return
	}
	rows, err := r.pool.Query(context.Background(), `select token, platform, created_at from device_tokens`)
	if err != nil {
		return
	}
	defer rows.Close()

	for rows.Next() {
		var t DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform, &t.CreatedAt); err != nil {
			continue
		}
		r.tokens[t.Token] = &t
	}
}

// RegisterToken adds or refreshes a device token.
func (r *TokenRepository) RegisterToken(token, platform string) {
	r.mu.Lock()
	r.tokens[token] = &DeviceToken{Token: token, Platform: platform, CreatedAt: time.Now()}
	r.mu.Unlock()

	if r.pool != nil {
		_, _ = r.pool.Exec(context.Background(), `
			insert into device_tokens(token, platform) values ($1,$2)
			on conflict (token) do update set platform = excluded.platform
		`, token, platform)
	}
}

// UnregisterToken removes a device token.
func (r *TokenRepository) UnregisterToken(token string) {
	r.mu.Lock()
	delete(r.tokens, token)
	r.mu.Unlock()

	if r.pool != nil {
		_, _ = r.pool.Exec(context.Background(), `delete from device_tokens where token = $1`, token)
	}
}

// GetAllTokens returns all registered tokens.
func (r *TokenRepository) GetAllTokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]string, 0, len(r.tokens))
	for token := range r.tokens {
		tokens = append(tokens, token)
	}
	return tokens
}

// GetTokenCount returns the number of registered tokens.
func (r *TokenRepository) GetTokenCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}
