package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/prediction-market-poc/internal/market-api/store"
)

const keyStatsVersion = "stats:platform:version"

func keyStats(version int64) string { return fmt.Sprintf("stats:platform:%d", version) }

// StatsCache guarda o último PlatformStats calculado no Redis.
// Cada entrada pertence a uma versão; Invalidate avança a versão, então um Set
// feito com a versão lida antes do cálculo nunca é servido depois de uma escrita.
type StatsCache struct {
	R   *redis.Client
	TTL time.Duration
}

// NewStatsCache grava cada entrada com expiração ttl
func NewStatsCache(r *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{R: r, TTL: ttl}
}

// Get devolve a versão atual junto com a entrada; ok=false em cache miss
func (c *StatsCache) Get(ctx context.Context) (store.PlatformStats, int64, bool, error) {
	var st store.PlatformStats
	version, err := c.R.Get(ctx, keyStatsVersion).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return st, 0, false, err
	}

	b, err := c.R.Get(ctx, keyStats(version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return st, version, false, nil
	}
	if err != nil {
		return st, version, false, err
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return st, version, false, err
	}
	return st, version, true, nil
}

// Set grava st sob version, a versão devolvida pelo Get que deu miss
func (c *StatsCache) Set(ctx context.Context, version int64, st store.PlatformStats) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, keyStats(version), b, c.TTL).Err()
}

// Invalidate é chamado em toda escrita que muda as estatísticas.
// Entradas de versões antigas expiram pelo TTL.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	return c.R.Incr(ctx, keyStatsVersion).Err()
}
