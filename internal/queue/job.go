// Package queue implements the durable notification job queue backed by
// Redis: a producer that persists email jobs before returning, a worker that
// claims and processes them, and a sweeper that promotes due retries and
// reclaims jobs from crashed workers.
package queue

import "time"

// TypeEmail is the only job type currently dispatched through the queue.
const TypeEmail = "email"

// Default retry policy applied to every enqueued job.
const (
	DefaultMaxAttempts = 3
	DefaultBackoffMS   = 1000
)

// Status is the lifecycle state of a job as tracked by the queue store.
type Status string

const (
	// StatusWaiting means the job is queued and unclaimed.
	StatusWaiting Status = "waiting"
	// StatusActive means a worker has claimed the job and is processing it.
	StatusActive Status = "active"
	// StatusRetryScheduled means the job failed and is parked until its
	// backoff delay elapses.
	StatusRetryScheduled Status = "retry_scheduled"
	// StatusFailed means the job exhausted its attempts (or hit a permanent
	// error) and is retained for inspection.
	StatusFailed Status = "failed"
)

// EmailPayload is the immutable payload of an email job. The worker only
// reads it for rendering; it is never mutated after enqueue.
type EmailPayload struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Context  map[string]any `json:"context,omitempty"`
}

// Job is the envelope persisted in the queue store for the lifetime between
// enqueue and a terminal state. Attempt counting and status live in the
// store's bookkeeping, not in the envelope.
type Job struct {
	ID          string       `json:"id"`
	Type        string       `json:"type"`
	Data        EmailPayload `json:"data"`
	MaxAttempts int          `json:"max_attempts"`
	BackoffMS   int          `json:"backoff_ms"`
	EnqueuedAt  time.Time    `json:"enqueued_at"`
}

// ClaimedJob is a job handed to a worker, together with the bookkeeping the
// worker needs to report the outcome.
type ClaimedJob struct {
	Job
	// AttemptsMade counts processing attempts including the current one, so
	// it is 1 the first time a job is handed out.
	AttemptsMade int
}

// FailedJob is a terminally failed job retained for operator inspection.
type FailedJob struct {
	Job
	AttemptsMade int       `json:"attempts_made"`
	LastError    string    `json:"last_error"`
	FailedAt     time.Time `json:"failed_at"`
}

// RetryDelay returns the backoff delay before the next attempt of a job that
// has failed attemptsMade times: backoffMS * 2^(attemptsMade-1).
func RetryDelay(backoffMS, attemptsMade int) time.Duration {
	if attemptsMade < 1 {
		attemptsMade = 1
	}
	return time.Duration(backoffMS) * time.Millisecond << (attemptsMade - 1)
}
