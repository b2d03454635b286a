package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vanlogix/tribill/internal/config"
	"github.com/vanlogix/tribill/internal/domain"
)

const rateKeyPrefix = "rates:active"

// ActiveRateCache caches the active exchange rate per ordered currency pair.
// Rate rotation must invalidate the pair before readers see the new rate.
type ActiveRateCache interface {
	Get(ctx context.Context, base, target domain.Currency) (*domain.ExchangeRate, bool, error)
	Set(ctx context.Context, rate *domain.ExchangeRate) error
	Invalidate(ctx context.Context, base, target domain.Currency) error
}

type redisRateCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRateCache struct{}

func NewActiveRateCache(cfg config.CacheConfig) (ActiveRateCache, error) {
	if !cfg.Enabled {
		return &noopRateCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisRateCache{client: client, ttl: ttl}, nil
}

func NewNoopRateCache() ActiveRateCache {
	return &noopRateCache{}
}

func (c *redisRateCache) Get(ctx context.Context, base, target domain.Currency) (*domain.ExchangeRate, bool, error) {
	payload, err := c.client.Get(ctx, rateKey(base, target)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rate domain.ExchangeRate
	if err := json.Unmarshal(payload, &rate); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached rate: %w", err)
	}

	return &rate, true, nil
}

func (c *redisRateCache) Set(ctx context.Context, rate *domain.ExchangeRate) error {
	payload, err := json.Marshal(rate)
	if err != nil {
		return fmt.Errorf("failed to encode rate: %w", err)
	}

	key := rateKey(rate.BaseCurrency, rate.TargetCurrency)
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisRateCache) Invalidate(ctx context.Context, base, target domain.Currency) error {
	if err := c.client.Del(ctx, rateKey(base, target)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}

	return nil
}

func (c *noopRateCache) Get(ctx context.Context, base, target domain.Currency) (*domain.ExchangeRate, bool, error) {
	return nil, false, nil
}

func (c *noopRateCache) Set(ctx context.Context, rate *domain.ExchangeRate) error {
	return nil
}

func (c *noopRateCache) Invalidate(ctx context.Context, base, target domain.Currency) error {
	return nil
}

func rateKey(base, target domain.Currency) string {
	return fmt.Sprintf("%s:%s:%s", rateKeyPrefix, base, target)
}
