package services

import (
	"context"
	"sync"
	"time"

	"infocripto/internal/logger"
	"infocripto/internal/utils/helpers"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Mailer delivers one HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type EmailJob struct {
	To      string
	Subject string
	HTML    string
}

// EmailQueue hands emails to background workers. Delivery is best-effort:
// failures are logged and never reach the code that enqueued the job.
type EmailQueue struct {
	mailer  Mailer
	jobs    chan EmailJob
	timeout time.Duration
	retries uint64
	backoff time.Duration

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

func NewEmailQueue(mailer Mailer, size int, timeout time.Duration) *EmailQueue {
	if size <= 0 {
		size = 100
	}
	return &EmailQueue{
		mailer:  mailer,
		jobs:    make(chan EmailJob, size),
		timeout: timeout,
		retries: 2,
		backoff: time.Second,
	}
}

func (q *EmailQueue) Start(workers int) {
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
}

func (q *EmailQueue) work() {
	defer q.wg.Done()
	for job := range q.jobs {
		if err := q.Deliver(context.Background(), job); err != nil {
			logger.Log.Error("email delivery failed",
				zap.String("to", helpers.MaskEmail(job.To)),
				zap.String("subject", job.Subject),
				zap.Error(err),
			)
			continue
		}
		logger.Log.Info("email sent", zap.String("to", helpers.MaskEmail(job.To)))
	}
}

// Enqueue never blocks. It returns false when the queue is full or stopped.
func (q *EmailQueue) Enqueue(job EmailJob) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return false
	}
	select {
	case q.jobs <- job:
		return true
	default:
		logger.Log.Warn("email queue full, dropping job", zap.String("to", helpers.MaskEmail(job.To)))
		return false
	}
}

// Deliver sends job within the queue timeout, retrying transient failures.
func (q *EmailQueue) Deliver(ctx context.Context, job EmailJob) error {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	b := retry.WithMaxRetries(q.retries, retry.NewExponential(q.backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := q.mailer.Send(ctx, job.To, job.Subject, job.HTML); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// Stop rejects new jobs and waits for queued ones to finish.
func (q *EmailQueue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}
