package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/checkmapper/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyUploadOperator = "checks:upload:operator:%s"
	keyUploadLock     = "checks:upload:lock:%s"
)

// UploadLimiter throttles check uploads per operator and serializes
// concurrent uploads of the same check token. A nil limiter allows
// everything.
type UploadLimiter struct {
	bucket *bucket
	lock   keyLock
}

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
}

func NewUploadLimiter(p Params) (*UploadLimiter, error) {
	limitCfg := p.Config.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: limitCfg.RedisPassword,
		DB:       limitCfg.RedisDB,
	})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				p.Log.Warn("rate limit redis unreachable", zap.String("addr", addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return NewUploadLimiterWithClient(client, limitCfg.UploadRate, limitCfg.UploadBurst, time.Duration(limitCfg.UploadLockTTLSeconds)*time.Second)
}

func NewUploadLimiterWithClient(client *redis.Client, rate float64, burst int, lockTTL time.Duration) (*UploadLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if rate <= 0 || burst <= 0 {
		return nil, errors.New("upload rate limit must be positive")
	}
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &UploadLimiter{
		bucket: newBucket(client, rate, burst),
		lock:   keyLock{client: client, ttl: lockTTL},
	}, nil
}

func (l *UploadLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *UploadLimiter) Allow(ctx context.Context, operator string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.take(ctx, fmt.Sprintf(keyUploadOperator, strings.TrimSpace(operator)))
}

// TryLock returns the release token and whether the lock was taken.
func (l *UploadLimiter) TryLock(ctx context.Context, checkID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.lock.acquire(ctx, fmt.Sprintf(keyUploadLock, strings.TrimSpace(checkID)))
}

func (l *UploadLimiter) Release(ctx context.Context, checkID, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.lock.release(ctx, fmt.Sprintf(keyUploadLock, strings.TrimSpace(checkID)), token)
}
