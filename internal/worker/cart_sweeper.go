package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CartSweeper is the part of the cart service the sweeper drives.
type CartSweeper interface {
	SweepAbandoned(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler builds an idle scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: logger,
	}
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

// ScheduleCartSweep deletes cart lines older than maxAge on the given cron
// schedule. An empty schedule or non-positive maxAge leaves the job unscheduled.
func (s *Scheduler) ScheduleCartSweep(schedule string, maxAge time.Duration, carts CartSweeper) error {
	if schedule == "" || maxAge <= 0 || carts == nil {
		s.logger.Info("cart sweeper disabled")
		return nil
	}
	_, err := s.cron.AddFunc(schedule, func() {
		RunCartSweep(context.Background(), carts, maxAge, s.logger)
	})
	if err != nil {
		return fmt.Errorf("schedule cart sweep %q: %w", schedule, err)
	}
	s.logger.Info("cart sweeper scheduled", zap.String("schedule", schedule), zap.Duration("max_age", maxAge))
	return nil
}

// Start runs scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Entries reports how many jobs are scheduled.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// RunCartSweep performs one sweep with a bounded deadline.
func RunCartSweep(ctx context.Context, carts CartSweeper, maxAge time.Duration, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	n, err := carts.SweepAbandoned(ctx, maxAge)
	if err != nil {
		logger.Error("cart sweep failed", zap.Error(err))
		return
	}
	logger.Debug("cart sweep finished", zap.Int64("removed", n))
}
