package services

import (
	"context"
	"time"

	"infocripto/internal/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// WeeklyDigestSchedule fires every Monday at 12:00 UTC.
const WeeklyDigestSchedule = "0 12 * * MON"

type subscriptionCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Scheduler runs periodic jobs. The weekly digest is a placeholder that only
// reports the audience size; mail campaigns are run by the newsletter provider.
type Scheduler struct {
	cron    *cron.Cron
	counter subscriptionCounter
	timeout time.Duration
}

func NewScheduler(counter subscriptionCounter) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		counter: counter,
		timeout: 30 * time.Second,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(WeeklyDigestSchedule, func() { s.WeeklyDigest(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	logger.Log.Info("scheduler started", zap.String("weekly_digest", WeeklyDigestSchedule))
	return nil
}

// Stop waits for a running job or for ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) WeeklyDigest(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.counter.Count(ctx)
	if err != nil {
		logger.Log.Error("weekly digest: count subscriptions failed", zap.Error(err))
		return
	}
	logger.Log.Info("weekly digest", zap.Int64("newsletter_subscriptions", n))
}
