package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"alfredoptarigan/resume-parser/internal/models"
)

type ProfileCache interface {
	Get(ctx context.Context, clerkID string) (*models.Profile, bool, error)
	Set(ctx context.Context, profile *models.Profile) error
	Invalidate(ctx context.Context, clerkID string) error
}

type redisProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProfileCache(client *redis.Client, ttl time.Duration) ProfileCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisProfileCache{client: client, ttl: ttl}
}

func profileCacheKey(clerkID string) string {
	return "profile:" + clerkID
}

func (c *redisProfileCache) Get(ctx context.Context, clerkID string) (*models.Profile, bool, error) {
	data, err := c.client.Get(ctx, profileCacheKey(clerkID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached profile %s: %w", clerkID, err)
	}

	var profile models.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached profile %s: %w", clerkID, err)
	}
	return &profile, true, nil
}

func (c *redisProfileCache) Set(ctx context.Context, profile *models.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile %s: %w", profile.ClerkID, err)
	}

	if err := c.client.Set(ctx, profileCacheKey(profile.ClerkID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache profile %s: %w", profile.ClerkID, err)
	}
	return nil
}

func (c *redisProfileCache) Invalidate(ctx context.Context, clerkID string) error {
	if err := c.client.Del(ctx, profileCacheKey(clerkID)).Err(); err != nil {
		return fmt.Errorf("failed to evict cached profile %s: %w", clerkID, err)
	}
	return nil
}
