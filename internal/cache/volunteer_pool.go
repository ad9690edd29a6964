package cache

import (
	"context"
	"fmt"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	volunteerKeyPrefix     = "volunteer"
	volunteerScanBatchSize = 100

	availableValue   = "available"
	unavailableValue = "unavailable"
)

// VolunteerPool tracks which registered volunteers are currently willing
// to donate, per blood type. Shortage alerts use the pool to report how
// many volunteers can be notified.
type VolunteerPool interface {
	// MarkAvailability records one volunteer's current willingness to donate.
	MarkAvailability(ctx context.Context, bloodType string, volunteerID int64, available bool) error

	// CountAvailable counts available volunteers for a blood type,
	// stopping at limit when limit > 0.
	CountAvailable(ctx context.Context, bloodType string, limit int) (int, error)
}

type redisVolunteerPool struct {
	client *redis.Client
}

type noopVolunteerPool struct{}

func NewVolunteerPool(cfg config.CacheConfig) (VolunteerPool, error) {
	if !cfg.Enabled {
		return &noopVolunteerPool{}, nil
	}

	client, _, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisVolunteerPool{client: client}, nil
}

func NewNoopVolunteerPool() VolunteerPool {
	return &noopVolunteerPool{}
}

func (p *redisVolunteerPool) MarkAvailability(ctx context.Context, bloodType string, volunteerID int64, available bool) error {
	value := unavailableValue
	if available {
		value = availableValue
	}

	// No expiration: availability holds until the volunteer changes it
	if err := p.client.Set(ctx, volunteerKey(bloodType, volunteerID), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (p *redisVolunteerPool) CountAvailable(ctx context.Context, bloodType string, limit int) (int, error) {
	pattern := fmt.Sprintf("%s:%s:*", volunteerKeyPrefix, bloodType)

	count := 0
	var cursor uint64
	for {
		keys, nextCursor, err := p.client.Scan(ctx, cursor, pattern, volunteerScanBatchSize).Result()
		if err != nil {
			return 0, fmt.Errorf("redis scan failed: %w", err)
		}

		if len(keys) > 0 {
			values, err := p.client.MGet(ctx, keys...).Result()
			if err != nil {
				return 0, fmt.Errorf("redis mget failed: %w", err)
			}
			for _, value := range values {
				if s, ok := value.(string); ok && s == availableValue {
					count++
					if limit > 0 && count >= limit {
						return count, nil
					}
				}
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return count, nil
}

func (n *noopVolunteerPool) MarkAvailability(ctx context.Context, bloodType string, volunteerID int64, available bool) error {
	return nil
}

func (n *noopVolunteerPool) CountAvailable(ctx context.Context, bloodType string, limit int) (int, error) {
	return 0, nil
}

func volunteerKey(bloodType string, volunteerID int64) string {
	return fmt.Sprintf("%s:%s:%d", volunteerKeyPrefix, bloodType, volunteerID)
}
