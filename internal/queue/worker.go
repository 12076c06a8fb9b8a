package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopworks/mailroom/internal/mailer"
)

const claimBlock = 5 * time.Second

// Sender delivers a rendered email. Implemented by mailer.SMTP.
type Sender interface {
	SendMail(ctx context.Context, to, subject, templateName string, tmplCtx map[string]any) error
}

// Worker is the sole consumer of the queue. It claims jobs, dispatches them
// to the email sender and reports the outcome back to the store so that
// retry/backoff and terminal-state bookkeeping happen there. The worker does
// not count retries itself beyond the attempt bump performed at claim time.
type Worker struct {
	store       Store
	sender      Sender
	logger      *slog.Logger
	concurrency int
}

// NewWorker creates a Worker with the given number of concurrent claim loops.
func NewWorker(store Store, sender Sender, logger *slog.Logger, concurrency int) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{
		store:       store,
		sender:      sender,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Run starts the claim loops and blocks until ctx is canceled. In-flight
// jobs finish and acknowledge before Run returns (graceful drain).
func (w *Worker) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w.loop(ctx, n)
		}(i)
	}
	wg.Wait()
	w.logger.Info("worker drained")
	return nil
}

func (w *Worker) loop(ctx context.Context, n int) {
	logger := w.logger.With("loop", n)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.store.Claim(ctx, claimBlock)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("claim failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		// Outcome reporting uses a fresh context so that a shutdown mid-job
		// still acknowledges the attempt.
		w.process(context.WithoutCancel(ctx), job, logger)
	}
}

// process runs one delivery attempt and reports the outcome to the store.
func (w *Worker) process(ctx context.Context, job *ClaimedJob, logger *slog.Logger) {
	logger.Info("processing job",
		"job_id", job.ID, "type", job.Type, "attempt", job.AttemptsMade)

	err := w.handle(ctx, job)

	outcome, delay := Decide(err, job.AttemptsMade, job.MaxAttempts, job.BackoffMS)
	switch outcome {
	case OutcomeCompleted:
		if ackErr := w.store.Ack(ctx, job); ackErr != nil {
			logger.Error("ack failed", "job_id", job.ID, "error", ackErr)
			return
		}
		logger.Info("job completed", "job_id", job.ID, "attempts", job.AttemptsMade)

	case OutcomeRetry:
		due := time.Now().Add(delay)
		if retryErr := w.store.Retry(ctx, job, due, err); retryErr != nil {
			logger.Error("retry scheduling failed", "job_id", job.ID, "error", retryErr)
			return
		}
		logger.Warn("job attempt failed, retry scheduled",
			"job_id", job.ID, "attempt", job.AttemptsMade, "delay", delay, "error", err)

	case OutcomeFailed:
		if failErr := w.store.Fail(ctx, job, err); failErr != nil {
			logger.Error("fail bookkeeping failed", "job_id", job.ID, "error", failErr)
			return
		}
		logger.Error("job failed permanently",
			"job_id", job.ID, "attempts", job.AttemptsMade, "error", err)
	}
}

// handle dispatches a job to the channel provider for its type. Errors are
// returned unwrapped so that Decide sees the provider's classification.
func (w *Worker) handle(ctx context.Context, job *ClaimedJob) error {
	switch job.Type {
	case TypeEmail:
		return w.sender.SendMail(ctx, job.Data.To, job.Data.Subject, job.Data.Template, job.Data.Context)
	default:
		return mailer.Permanent(fmt.Errorf("unknown job type %q", job.Type))
	}
}

// Outcome is the decision taken after a processing attempt.
type Outcome int

const (
	// OutcomeCompleted removes the job from the store.
	OutcomeCompleted Outcome = iota
	// OutcomeRetry parks the job until its backoff delay elapses.
	OutcomeRetry
	// OutcomeFailed retains the job in the failed set.
	OutcomeFailed
)

// Decide maps an attempt result to an outcome. Transient errors retry with
// exponential backoff until maxAttempts is reached; permanent errors (bad
// template, invalid address) go straight to failed without burning the
// remaining attempts.
func Decide(err error, attemptsMade, maxAttempts, backoffMS int) (Outcome, time.Duration) {
	if err == nil {
		return OutcomeCompleted, 0
	}
	if mailer.IsPermanent(err) {
		return OutcomeFailed, 0
	}
	if attemptsMade >= maxAttempts {
		return OutcomeFailed, 0
	}
	return OutcomeRetry, RetryDelay(backoffMS, attemptsMade)
}
