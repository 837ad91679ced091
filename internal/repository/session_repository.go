package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matricula/matricula/internal/config"
)

// SessionRepository tracks issued token IDs in Redis. A token is only
// honored while its key exists; the key expires together with the token.
type SessionRepository struct {
	rdb *redis.Client
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

// Register records jti as a live token for userID.
func (r *SessionRepository) Register(ctx context.Context, userID int, jti string, ttl time.Duration) error {
	return r.rdb.Set(ctx, config.CacheKey.UserSessionKey(userID, jti), time.Now().Unix(), ttl).Err()
}

// Exists reports whether jti is still live.
func (r *SessionRepository) Exists(ctx context.Context, userID int, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, config.CacheKey.UserSessionKey(userID, jti)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Revoke deletes a single token.
func (r *SessionRepository) Revoke(ctx context.Context, userID int, jti string) error {
	return r.rdb.Del(ctx, config.CacheKey.UserSessionKey(userID, jti)).Err()
}

// RevokeAll deletes every live token of userID.
func (r *SessionRepository) RevokeAll(ctx context.Context, userID int) error {
	iter := r.rdb.Scan(ctx, 0, config.CacheKey.UserSessionPattern(userID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}
