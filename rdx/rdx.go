package rdx

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// New builds a Redis client. The caller owns its lifecycle.
func New(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

// Locker provides short-lived mutual exclusion keyed by string, backed by
// SET NX with a TTL so an abandoned lock always expires.
type Locker struct {
	Client *redis.Client
}

// Acquire takes the lock; false means someone else holds it.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.Client.SetNX(ctx, key, "1", ttl).Result()
}

func (l *Locker) Release(ctx context.Context, key string) error {
	return l.Client.Del(ctx, key).Err()
}

// CheckoutKey names the per-user checkout lock.
func CheckoutKey(userID string) string {
	return "checkout:lock:" + userID
}

// TokenStore keeps a denylist of revoked access tokens until they would
// have expired anyway.
type TokenStore struct {
	Client *redis.Client
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "auth:revoked:" + hex.EncodeToString(sum[:])
}

func (s *TokenStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.Client.Set(ctx, tokenKey(token), "1", ttl).Err()
}

func (s *TokenStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.Client.Exists(ctx, tokenKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
