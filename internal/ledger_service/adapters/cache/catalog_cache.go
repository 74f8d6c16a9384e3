package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/servis30/golang_services/internal/ledger_service/app"
	"github.com/servis30/golang_services/internal/ledger_service/domain"
)

const keyPrefix = "catalog:"

// DefaultTTL applies when no TTL is configured.
const DefaultTTL = 5 * time.Minute

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// CatalogCache is a read-through cache of active catalog entries. Redis is
// never authoritative: any Redis failure falls through to next.
type CatalogCache struct {
	client redis.Cmdable
	next   app.CatalogReader
	ttl    time.Duration
	logger *slog.Logger
}

func NewCatalogCache(client redis.Cmdable, next app.CatalogReader, ttl time.Duration, logger *slog.Logger) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CatalogCache{
		client: client,
		next:   next,
		ttl:    ttl,
		logger: logger.With("component", "catalog_cache"),
	}
}

// GetActive implements app.CatalogReader.
func (c *CatalogCache) GetActive(ctx context.Context, key string) (*domain.CatalogEntry, error) {
	cacheKey := keyPrefix + key

	raw, err := c.client.Get(ctx, cacheKey).Result()
	switch {
	case err == nil:
		var entry domain.CatalogEntry
		if jsonErr := json.Unmarshal([]byte(raw), &entry); jsonErr == nil {
			return &entry, nil
		}
		c.logger.WarnContext(ctx, "Discarding undecodable cached catalog entry", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.WarnContext(ctx, "Catalog cache read failed, using database", "key", key, "error", err)
		return c.next.GetActive(ctx, key)
	}

	entry, err := c.next.GetActive(ctx, key)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return entry, nil
	}
	if err := c.client.Set(ctx, cacheKey, string(data), c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Catalog cache write failed", "key", key, "error", err)
	}
	return entry, nil
}

// Invalidate implements app.CatalogInvalidator.
func (c *CatalogCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("invalidate catalog key %s: %w", key, err)
	}
	return nil
}
