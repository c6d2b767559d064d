package operator

import (
	"context"
	"time"

	"hotspot-voucherd/pkg/config"
	"hotspot-voucherd/pkg/rediskey"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter throttles password attempts per client address. After MaxFails
// consecutive failures the address is locked for the lock window.
type LoginLimiter interface {
	Allowed(ctx context.Context, ip string) (bool, error)
	RecordFail(ctx context.Context, ip string) error
	RecordSuccess(ctx context.Context, ip string) error
}

type redisLoginLimiter struct {
	rdb      *redis.Client
	maxFails int
	lockFor  time.Duration
}

func NewLoginLimiter(rdb *redis.Client, cfg *config.Config) LoginLimiter {
	return &redisLoginLimiter{
		rdb:      rdb,
		maxFails: cfg.Login.MaxFails,
		lockFor:  time.Duration(cfg.Login.LockSeconds) * time.Second,
	}
}

func (l *redisLoginLimiter) Allowed(ctx context.Context, ip string) (bool, error) {
	n, err := l.rdb.Exists(ctx, rediskey.BuildLoginLockKey(ip)).Result()
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func (l *redisLoginLimiter) RecordFail(ctx context.Context, ip string) error {
	key := rediskey.BuildLoginFailKey(ip)
	fails, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if fails == 1 {
		_ = l.rdb.Expire(ctx, key, l.lockFor).Err()
	}
	if int(fails) >= l.maxFails {
		if err := l.rdb.Set(ctx, rediskey.BuildLoginLockKey(ip), 1, l.lockFor).Err(); err != nil {
			return err
		}
		return l.rdb.Del(ctx, key).Err()
	}
	return nil
}

func (l *redisLoginLimiter) RecordSuccess(ctx context.Context, ip string) error {
	return l.rdb.Del(ctx, rediskey.BuildLoginFailKey(ip), rediskey.BuildLoginLockKey(ip)).Err()
}
