// Package redis implementa la cache de claves de idempotencia sobre Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/pkg/config"
)

const defaultTTL = 24 * time.Hour

var _ inventory.IdempotencyCache = (*IdempotencyCache)(nil)

// NewClient crea el cliente y verifica la conexión con PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// IdempotencyCache recuerda claves ya aplicadas. Sólo acelera la detección de reintentos:
// la unicidad real la garantiza el índice de la base.
type IdempotencyCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewIdempotencyCache construye la cache. ttl <= 0 usa 24h.
func NewIdempotencyCache(client *redis.Client, prefix string, ttl time.Duration) *IdempotencyCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &IdempotencyCache{client: client, prefix: prefix, ttl: ttl}
}

// Seen indica si la clave fue registrada.
func (c *IdempotencyCache) Seen(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Remember guarda la clave con el ID del movimiento. No sobrescribe una clave existente.
func (c *IdempotencyCache) Remember(ctx context.Context, key, movementID string) error {
	return c.client.SetNX(ctx, c.prefix+key, movementID, c.ttl).Err()
}
