package stats

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/kobadaidesu/shade-route-app/internal/session"
	"github.com/redis/go-redis/v9"
)

// Service serves lifetime stats, caching snapshots in Redis when available.
type Service struct {
	store *session.Store
	redis *redis.Client
	ttl   time.Duration
}

func NewService(store *session.Store, redisClient *redis.Client, ttl time.Duration) *Service {
	return &Service{store: store, redis: redisClient, ttl: ttl}
}

func (s *Service) Lifetime(ctx context.Context, deviceID string) (Lifetime, error) {
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey(deviceID)).Bytes(); err == nil {
			var stats Lifetime
			if err := json.Unmarshal(cached, &stats); err == nil {
				return stats, nil
			}
		}
	}

	sessions, err := s.store.ListCompleted(ctx, deviceID)
	if err != nil {
		return Lifetime{}, err
	}
	stats := Aggregate(sessions)

	if s.redis != nil {
		payload, _ := json.Marshal(stats)
		if err := s.redis.Set(ctx, cacheKey(deviceID), payload, s.ttl).Err(); err != nil {
			log.Printf("stats cache write error: %v", err)
		}
	}
	return stats, nil
}

// Invalidate drops the cached snapshot, forcing a recompute on next read.
func (s *Service) Invalidate(ctx context.Context, deviceID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, cacheKey(deviceID)).Err(); err != nil {
		log.Printf("stats cache invalidate error: %v", err)
	}
}

func cacheKey(deviceID string) string {
	return "stats:" + deviceID + ":lifetime"
}
