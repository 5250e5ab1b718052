package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verdantleaf/quote_api/internal/models"
	"github.com/verdantleaf/quote_api/internal/utils"
)

// SessionCache stores quote sessions in Redis as JSON blobs with a sliding
// TTL, so an abandoned quote eventually expires on its own.
type SessionCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewSessionCache creates a new SessionCache.
func NewSessionCache(redis *RedisClient, ttl time.Duration) *SessionCache {
	return &SessionCache{
		redis: redis,
		ttl:   ttl,
	}
}

func (c *SessionCache) key(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Save stores a session, refreshing its TTL.
func (c *SessionCache) Save(ctx context.Context, session *models.Session) error {
	jsonData, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := c.redis.Set(ctx, c.key(session.ID), string(jsonData), c.ttl); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID. Missing or expired sessions return
// utils.ErrSessionNotFound.
func (c *SessionCache) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	jsonData, err := c.redis.Get(ctx, c.key(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, utils.ErrSessionNotFound
		}
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal([]byte(jsonData), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete removes a session.
func (c *SessionCache) Delete(ctx context.Context, sessionID string) error {
	return c.redis.Delete(ctx, c.key(sessionID))
}
