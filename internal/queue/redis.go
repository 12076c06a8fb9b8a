package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key layout. Lists and sorted sets hold job ids only; the envelope and
// all bookkeeping live in a per-job hash so that moving a job between states
// never rewrites its payload.
const (
	keyWaiting   = "mailroom:waiting"          // list of waiting job ids
	keyActive    = "mailroom:active"           // list of claimed job ids
	keyDeadlines = "mailroom:active:deadlines" // zset id -> claim deadline (unix ms)
	keyRetry     = "mailroom:retry"            // zset id -> due time (unix ms)
	keyFailed    = "mailroom:failed"           // list of terminally failed job ids
	jobKeyPrefix = "mailroom:job:"             // hash per job
)

const defaultClaimTimeout = 60 * time.Second

// RedisStore implements Store on a Redis instance.
type RedisStore struct {
	rdb          *redis.Client
	claimTimeout time.Duration
}

// NewRedisStore creates a Store backed by the given Redis client. claimTimeout
// is how long a claimed job may stay active before the sweeper treats its
// worker as dead; <= 0 selects the default of one minute.
func NewRedisStore(rdb *redis.Client, claimTimeout time.Duration) *RedisStore {
	if claimTimeout <= 0 {
		claimTimeout = defaultClaimTimeout
	}
	return &RedisStore{rdb: rdb, claimTimeout: claimTimeout}
}

func jobKey(id string) string { return jobKeyPrefix + id }

// Push persists the job hash and appends its id to the waiting list in one
// transaction.
func (s *RedisStore) Push(ctx context.Context, job Job) error {
	envelope, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job %s: %w", job.ID, err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, jobKey(job.ID), map[string]any{
		"envelope":      string(envelope),
		"status":        string(StatusWaiting),
		"attempts_made": 0,
		"updated_at":    time.Now().UnixMilli(),
	})
	pipe.LPush(ctx, keyWaiting, job.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pushing job %s: %w", job.ID, err)
	}
	return nil
}

// Claim atomically moves one waiting job id to the active list and bumps its
// attempt counter. BLMOVE guarantees no two callers receive the same id. The
// claim deadline is measured from the moment the id lands, not from when the
// caller started blocking, so the full claimTimeout is available for
// processing. Should this process die between the BLMOVE and the deadline
// write, ReclaimExpired adopts the orphaned id on its next sweep.
func (s *RedisStore) Claim(ctx context.Context, block time.Duration) (*ClaimedJob, error) {
	id, err := s.rdb.BLMove(ctx, keyWaiting, keyActive, "RIGHT", "LEFT", block).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claiming job: %w", err)
	}
	deadline := time.Now().Add(s.claimTimeout)

	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, keyDeadlines, redis.Z{Score: float64(deadline.UnixMilli()), Member: id})
	attemptsCmd := pipe.HIncrBy(ctx, jobKey(id), "attempts_made", 1)
	pipe.HSet(ctx, jobKey(id), "status", string(StatusActive), "updated_at", time.Now().UnixMilli())
	envelopeCmd := pipe.HGet(ctx, jobKey(id), "envelope")
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("activating job %s: %w", id, err)
	}

	var job Job
	if err := json.Unmarshal([]byte(envelopeCmd.Val()), &job); err != nil {
		// The hash is unreadable; drop the id from active bookkeeping so it
		// does not get reclaimed forever.
		s.dropFromActive(ctx, id)
		return nil, fmt.Errorf("decoding job %s: %w", id, err)
	}

	return &ClaimedJob{Job: job, AttemptsMade: int(attemptsCmd.Val())}, nil
}

// Ack removes a completed job entirely (removeOnComplete semantics).
func (s *RedisStore) Ack(ctx context.Context, job *ClaimedJob) error {
	pipe := s.rdb.TxPipeline()
	pipe.LRem(ctx, keyActive, 0, job.ID)
	pipe.ZRem(ctx, keyDeadlines, job.ID)
	pipe.Del(ctx, jobKey(job.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("acking job %s: %w", job.ID, err)
	}
	return nil
}

// Retry parks the job in the retry set until due.
func (s *RedisStore) Retry(ctx context.Context, job *ClaimedJob, due time.Time, cause error) error {
	pipe := s.rdb.TxPipeline()
	pipe.LRem(ctx, keyActive, 0, job.ID)
	pipe.ZRem(ctx, keyDeadlines, job.ID)
	pipe.ZAdd(ctx, keyRetry, redis.Z{Score: float64(due.UnixMilli()), Member: job.ID})
	pipe.HSet(ctx, jobKey(job.ID),
		"status", string(StatusRetryScheduled),
		"last_error", cause.Error(),
		"updated_at", time.Now().UnixMilli(),
	)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("scheduling retry for job %s: %w", job.ID, err)
	}
	return nil
}

// Fail moves the job to the failed list, where it is retained for inspection.
func (s *RedisStore) Fail(ctx context.Context, job *ClaimedJob, cause error) error {
	pipe := s.rdb.TxPipeline()
	pipe.LRem(ctx, keyActive, 0, job.ID)
	pipe.ZRem(ctx, keyDeadlines, job.ID)
	pipe.LPush(ctx, keyFailed, job.ID)
	pipe.HSet(ctx, jobKey(job.ID),
		"status", string(StatusFailed),
		"last_error", cause.Error(),
		"failed_at", time.Now().UnixMilli(),
		"updated_at", time.Now().UnixMilli(),
	)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failing job %s: %w", job.ID, err)
	}
	return nil
}

// PromoteDueRetries moves jobs whose backoff has elapsed back to waiting.
func (s *RedisStore) PromoteDueRetries(ctx context.Context, now time.Time, limit int64) (int, error) {
	ids, err := s.rdb.ZRangeByScore(ctx, keyRetry, &redis.ZRangeBy{
		Min: "-inf", Max: strconv.FormatInt(now.UnixMilli(), 10), Offset: 0, Count: limit,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("listing due retries: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.rdb.TxPipeline()
	for _, id := range ids {
		pipe.ZRem(ctx, keyRetry, id)
		pipe.LPush(ctx, keyWaiting, id)
		pipe.HSet(ctx, jobKey(id), "status", string(StatusWaiting), "updated_at", time.Now().UnixMilli())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("promoting retries: %w", err)
	}
	return len(ids), nil
}

// ReclaimExpired requeues jobs whose claim deadline has passed. The attempt
// consumed by the dead worker stays counted, so a job that repeatedly kills
// its worker still terminates within MaxAttempts.
func (s *RedisStore) ReclaimExpired(ctx context.Context, now time.Time, limit int64) (int, error) {
	if err := s.adoptOrphans(ctx, now); err != nil {
		return 0, err
	}

	ids, err := s.rdb.ZRangeByScore(ctx, keyDeadlines, &redis.ZRangeBy{
		Min: "-inf", Max: strconv.FormatInt(now.UnixMilli(), 10), Offset: 0, Count: limit,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("listing expired claims: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.rdb.TxPipeline()
	for _, id := range ids {
		pipe.ZRem(ctx, keyDeadlines, id)
		pipe.LRem(ctx, keyActive, 0, id)
		pipe.LPush(ctx, keyWaiting, id)
		pipe.HSet(ctx, jobKey(id), "status", string(StatusWaiting), "updated_at", time.Now().UnixMilli())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("reclaiming expired claims: %w", err)
	}
	return len(ids), nil
}

// ListFailed returns terminally failed jobs, newest first.
func (s *RedisStore) ListFailed(ctx context.Context, limit int64) ([]FailedJob, error) {
	if limit <= 0 {
		limit = 50
	}
	ids, err := s.rdb.LRange(ctx, keyFailed, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing failed jobs: %w", err)
	}

	out := make([]FailedJob, 0, len(ids))
	for _, id := range ids {
		fields, err := s.rdb.HGetAll(ctx, jobKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("reading failed job %s: %w", id, err)
		}
		if len(fields) == 0 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(fields["envelope"]), &job); err != nil {
			continue
		}
		attempts, _ := strconv.Atoi(fields["attempts_made"])
		failedAtMS, _ := strconv.ParseInt(fields["failed_at"], 10, 64)
		out = append(out, FailedJob{
			Job:          job,
			AttemptsMade: attempts,
			LastError:    fields["last_error"],
			FailedAt:     time.UnixMilli(failedAtMS),
		})
	}
	return out, nil
}

// adoptOrphans assigns a deadline to any active id that has none. A claim
// that died between the BLMOVE and the deadline write leaves its id on the
// active list only; without a deadline entry the reclaim scan would never see
// it and the job would be stranded. ZADD NX never shortens a deadline a live
// claim wrote concurrently.
func (s *RedisStore) adoptOrphans(ctx context.Context, now time.Time) error {
	ids, err := s.rdb.LRange(ctx, keyActive, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("listing active jobs: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	deadline := float64(now.Add(s.claimTimeout).UnixMilli())
	pipe := s.rdb.TxPipeline()
	for _, id := range ids {
		pipe.ZAddNX(ctx, keyDeadlines, redis.Z{Score: deadline, Member: id})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("adopting orphaned claims: %w", err)
	}
	return nil
}

// dropFromActive removes an id from the active bookkeeping outside the normal
// outcome paths.
func (s *RedisStore) dropFromActive(ctx context.Context, id string) {
	pipe := s.rdb.TxPipeline()
	pipe.LRem(ctx, keyActive, 0, id)
	pipe.ZRem(ctx, keyDeadlines, id)
	_, _ = pipe.Exec(ctx)
}
