package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevokedTokenStore records token IDs invalidated by logout until their
// natural expiry.
type RevokedTokenStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const revokedKeyPrefix = "revoked_token:"

type redisRevokedTokenStore struct {
	client *redis.Client
}

// NewRevokedTokenStore returns a Redis-backed implementation.
func NewRevokedTokenStore(client *redis.Client) RevokedTokenStore {
	return &redisRevokedTokenStore{client: client}
}

func (s *redisRevokedTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already expired, nothing to record.
		return nil
	}
	return s.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err()
}

func (s *redisRevokedTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	count, err := s.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
