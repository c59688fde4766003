package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lumen-shop/storefront-service/internal/config"
	"github.com/lumen-shop/storefront-service/internal/events"
)

type fakeSweeper struct {
	mu     sync.Mutex
	calls  []time.Duration
	result int64
	err    error
}

func (f *fakeSweeper) SweepAbandoned(_ context.Context, maxAge time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, maxAge)
	return f.result, f.err
}

func TestScheduleCartSweep(t *testing.T) {
	s := NewScheduler(nil)
	sweeper := &fakeSweeper{}

	require.NoError(t, s.ScheduleCartSweep("@every 1h", 720*time.Hour, sweeper))
	assert.Equal(t, 1, s.Entries())

	require.NoError(t, s.ScheduleCartSweep("", time.Hour, sweeper))
	require.NoError(t, s.ScheduleCartSweep("@every 1h", 0, sweeper))
	assert.Equal(t, 1, s.Entries(), "disabled configurations add no job")

	assert.Error(t, s.ScheduleCartSweep("every tuesday", time.Hour, sweeper))
}

func TestRunCartSweep(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sweeper := &fakeSweeper{result: 3}

	RunCartSweep(context.Background(), sweeper, 48*time.Hour, zap.New(core))
	assert.Equal(t, []time.Duration{48 * time.Hour}, sweeper.calls)
	assert.Equal(t, 1, logs.FilterMessage("cart sweep finished").Len())

	sweeper.err = errors.New("db down")
	RunCartSweep(context.Background(), sweeper, time.Hour, zap.New(core))
	assert.Equal(t, 1, logs.FilterMessage("cart sweep failed").Len())
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(nil)
	require.NoError(t, s.ScheduleCartSweep("@every 1h", time.Hour, &fakeSweeper{}))
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	assert.NoError(t, ctx.Err())
}

func TestStartNotificationsSubscribes(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	StartNotifications(dispatcher, zap.New(core), config.NotificationConfig{})

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventPasswordResetCompleted}))
	assert.Equal(t, 1, logs.FilterMessage("PasswordResetCompleted").Len())

	assert.NotPanics(t, func() { StartNotifications(nil, zap.NewNop(), config.NotificationConfig{}) })
}
