package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AnalysisCache keeps each user's most recent grouped analysis in redis
// so repeated reads don't re-run the detectors
type AnalysisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAnalysisCache creates a cache with the given entry lifetime
func NewAnalysisCache(client *redis.Client, ttl time.Duration) *AnalysisCache {
	return &AnalysisCache{client: client, ttl: ttl}
}

func analysisCacheKey(userID uuid.UUID) string {
	return "analysis:latest:" + userID.String()
}

// SetLatest stores a user's analysis snapshot
func (c *AnalysisCache) SetLatest(ctx context.Context, userID uuid.UUID, analysis any) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}
	if err := c.client.Set(ctx, analysisCacheKey(userID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache analysis: %w", err)
	}
	return nil
}

// GetLatest loads a user's cached analysis into dest. The boolean is
// false on a cache miss.
func (c *AnalysisCache) GetLatest(ctx context.Context, userID uuid.UUID, dest any) (bool, error) {
	payload, err := c.client.Get(ctx, analysisCacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cached analysis: %w", err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached analysis: %w", err)
	}
	return true, nil
}

// Invalidate drops a user's cached analysis
func (c *AnalysisCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, analysisCacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached analysis: %w", err)
	}
	return nil
}
