package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/config"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	forecastSummaryKeyPrefix = "forecast:summary"
	forecastScanBatchSize    = 100
)

// ForecastSummaryCache keeps recently computed forecast summaries so the
// dashboard polling loop doesn't re-aggregate on every request.
type ForecastSummaryCache interface {
	GetSummary(ctx context.Context, hoursBack int) (*domain.ForecastSummary, bool, error)
	SetSummary(ctx context.Context, summary *domain.ForecastSummary) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastSummaryCache struct{}

func NewForecastSummaryCache(cfg config.CacheConfig) (ForecastSummaryCache, error) {
	if !cfg.Enabled {
		return &noopForecastSummaryCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastSummaryCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopForecastSummaryCache() ForecastSummaryCache {
	return &noopForecastSummaryCache{}
}

func (c *redisForecastSummaryCache) GetSummary(ctx context.Context, hoursBack int) (*domain.ForecastSummary, bool, error) {
	key := buildForecastSummaryKey(hoursBack)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var summary domain.ForecastSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, false, fmt.Errorf("decode forecast summary cache: %w", err)
	}

	return &summary, true, nil
}

func (c *redisForecastSummaryCache) SetSummary(ctx context.Context, summary *domain.ForecastSummary) error {
	key := buildForecastSummaryKey(summary.HoursBack)
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode forecast summary cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastSummaryCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastSummaryKeyPrefix, forecastScanBatchSize)
}

func (n *noopForecastSummaryCache) GetSummary(ctx context.Context, hoursBack int) (*domain.ForecastSummary, bool, error) {
	return nil, false, nil
}

func (n *noopForecastSummaryCache) SetSummary(ctx context.Context, summary *domain.ForecastSummary) error {
	return nil
}

func (n *noopForecastSummaryCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildForecastSummaryKey(hoursBack int) string {
	return fmt.Sprintf("%s:%d", forecastSummaryKeyPrefix, hoursBack)
}
