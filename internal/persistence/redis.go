package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lumen-shop/storefront-service/internal/config"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration. An empty
// address leaves the client unset.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not provided; reset tokens are tracked in memory")
		return &Redis{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Configured reports whether a client was created.
func (r *Redis) Configured() bool {
	return r != nil && r.Client != nil
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

const resetLedgerPrefix = "password_reset:used:"

// RedisResetLedger records redeemed reset token ids with SETNX, expiring each
// key together with its token.
type RedisResetLedger struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisResetLedger builds a ledger on top of client.
func NewRedisResetLedger(client redis.Cmdable) *RedisResetLedger {
	return &RedisResetLedger{client: client, now: time.Now}
}

func (l *RedisResetLedger) Consume(ctx context.Context, tokenID string, until time.Time) (bool, error) {
	ttl := until.Sub(l.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	return l.client.SetNX(ctx, resetLedgerPrefix+tokenID, 1, ttl).Result()
}

func (l *RedisResetLedger) Release(ctx context.Context, tokenID string) error {
	return l.client.Del(ctx, resetLedgerPrefix+tokenID).Err()
}
