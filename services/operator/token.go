package operator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"hotspot-voucherd/pkg/config"
	"hotspot-voucherd/pkg/rediskey"

	"github.com/redis/go-redis/v9"
)

// TokenStore keeps bearer login tokens with a TTL. The token value maps to
// the operator id.
type TokenStore interface {
	Create(ctx context.Context, operatorID string) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

var ErrTokenNotFound = errors.New("token not found")

type redisTokenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTokenStore(rdb *redis.Client, cfg *config.Config) TokenStore {
	return &redisTokenStore{rdb: rdb, ttl: cfg.Auth.TokenTTL}
}

func (s *redisTokenStore) Create(ctx context.Context, operatorID string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)

	if err := s.rdb.Set(ctx, rediskey.BuildAuthTokenKey(token), operatorID, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *redisTokenStore) Resolve(ctx context.Context, token string) (string, error) {
	id, err := s.rdb.Get(ctx, rediskey.BuildAuthTokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *redisTokenStore) Revoke(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, rediskey.BuildAuthTokenKey(token)).Err()
}
