package queue

import (
	"context"
	"time"
)

// Store is the durable backing store for the queue. It is the sole arbiter of
// job-claim exclusivity: Claim atomically hands a waiting job to exactly one
// caller. Producers and workers never touch the store's internal bookkeeping
// directly.
type Store interface {
	// Push persists the job and makes it visible to workers. Once Push
	// returns nil the job survives a crash of the producing process.
	Push(ctx context.Context, job Job) error

	// Claim blocks up to block for a waiting job and atomically transitions
	// it to active. The store records a claim deadline, measured from the
	// moment the job is handed out, after which the claim is considered
	// abandoned. Returns (nil, nil) when no job arrived in time.
	Claim(ctx context.Context, block time.Duration) (*ClaimedJob, error)

	// Ack marks the job completed. The envelope and bookkeeping are removed
	// immediately (removeOnComplete).
	Ack(ctx context.Context, job *ClaimedJob) error

	// Retry parks the job until due, after which the sweeper returns it to
	// the waiting queue.
	Retry(ctx context.Context, job *ClaimedJob, due time.Time, cause error) error

	// Fail marks the job terminally failed. The job is retained for
	// inspection and never handed out again.
	Fail(ctx context.Context, job *ClaimedJob, cause error) error

	// PromoteDueRetries moves jobs whose backoff delay has elapsed back to
	// the waiting queue. Returns the number of jobs promoted.
	PromoteDueRetries(ctx context.Context, now time.Time, limit int64) (int, error)

	// ReclaimExpired returns jobs whose claim deadline has passed (crashed or
	// stuck worker) to the waiting queue. Returns the number reclaimed.
	ReclaimExpired(ctx context.Context, now time.Time, limit int64) (int, error)

	// ListFailed returns up to limit terminally failed jobs, newest first.
	ListFailed(ctx context.Context, limit int64) ([]FailedJob, error)
}
