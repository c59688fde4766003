package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumen-shop/storefront-service/internal/config"
)

func TestNewRedisWithoutAddress(t *testing.T) {
	r := NewRedis(config.RedisConfig{}, zap.NewNop())
	assert.False(t, r.Configured())
	assert.Error(t, r.Ping(context.Background()))
	assert.NotPanics(t, r.Close)
}

func TestRedisResetLedgerAgainstUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	ledger := NewRedisResetLedger(client)
	ok, err := ledger.Consume(context.Background(), "jti", time.Now().Add(time.Minute))
	require.Error(t, err)
	assert.False(t, ok)
}

func newLedger(t *testing.T) (*RedisResetLedger, *miniredis.Miniredis, time.Time) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger := NewRedisResetLedger(client)
	ledger.now = func() time.Time { return now }
	return ledger, server, now
}

func TestRedisResetLedgerIsSingleUse(t *testing.T) {
	ledger, server, now := newLedger(t)
	ctx := context.Background()

	ok, err := ledger.Consume(ctx, "jti-1", now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, server.Exists(resetLedgerPrefix+"jti-1"))
	assert.Equal(t, 10*time.Minute, server.TTL(resetLedgerPrefix+"jti-1"))

	ok, err = ledger.Consume(ctx, "jti-1", now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok, "second redemption must be refused")

	ok, err = ledger.Consume(ctx, "jti-2", now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok, "ids are tracked independently")
}

func TestRedisResetLedgerRelease(t *testing.T) {
	ledger, server, now := newLedger(t)
	ctx := context.Background()

	ok, err := ledger.Consume(ctx, "jti-1", now.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, ledger.Release(ctx, "jti-1"))
	assert.False(t, server.Exists(resetLedgerPrefix+"jti-1"))

	ok, err = ledger.Consume(ctx, "jti-1", now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisResetLedgerExpiry(t *testing.T) {
	ledger, server, now := newLedger(t)
	ctx := context.Background()

	ok, err := ledger.Consume(ctx, "late", now.Add(-time.Hour))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Second, server.TTL(resetLedgerPrefix+"late"), "expired tokens still get a minimal ttl")

	ok, err = ledger.Consume(ctx, "jti-1", now.Add(5*time.Minute))
	require.NoError(t, err)
	require.True(t, ok)
	server.FastForward(5*time.Minute + time.Second)
	assert.False(t, server.Exists(resetLedgerPrefix+"jti-1"))
}

func TestPostgresWithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, pg.Configured())
	assert.Nil(t, pg.PoolHandle())
	assert.Error(t, pg.Ping(context.Background()))
}
