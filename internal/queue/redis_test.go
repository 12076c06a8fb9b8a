package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopworks/mailroom/internal/queue"
)

func newRedisTestStore(t *testing.T, claimTimeout time.Duration) (*queue.RedisStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return queue.NewRedisStore(rdb, claimTimeout), mr, rdb
}

func TestRedisStore_PushClaimAck(t *testing.T) {
	store, mr, _ := newRedisTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Push(ctx, emailJob("job-1")))
	assert.Equal(t, "waiting", mr.HGet("mailroom:job:job-1", "status"))

	claimed, err := store.Claim(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, "job-1", claimed.ID)
	assert.Equal(t, "a@b.com", claimed.Data.To)
	assert.Equal(t, 1, claimed.AttemptsMade)
	assert.Equal(t, "active", mr.HGet("mailroom:job:job-1", "status"))

	require.NoError(t, store.Ack(ctx, claimed))

	// removeOnComplete: envelope, status hash and bookkeeping are all gone.
	assert.False(t, mr.Exists("mailroom:job:job-1"))
	assert.False(t, mr.Exists("mailroom:active"))
	assert.False(t, mr.Exists("mailroom:active:deadlines"))
}

func TestRedisStore_ClaimEmptyQueueTimesOut(t *testing.T) {
	store, _, _ := newRedisTestStore(t, time.Minute)

	claimed, err := store.Claim(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestRedisStore_RetryThenPromote(t *testing.T) {
	store, mr, _ := newRedisTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Push(ctx, emailJob("job-1")))
	claimed, err := store.Claim(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, claimed)

	due := time.Now().Add(time.Second)
	require.NoError(t, store.Retry(ctx, claimed, due, errors.New("smtp timeout")))

	assert.Equal(t, "retry_scheduled", mr.HGet("mailroom:job:job-1", "status"))
	assert.Equal(t, "smtp timeout", mr.HGet("mailroom:job:job-1", "last_error"))
	score, err := mr.ZScore("mailroom:retry", "job-1")
	require.NoError(t, err)
	assert.Equal(t, float64(due.UnixMilli()), score)

	// Not due yet.
	n, err := store.PromoteDueRetries(ctx, time.Now(), 100)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Due: back to waiting and claimable, attempt count preserved.
	n, err = store.PromoteDueRetries(ctx, due.Add(time.Millisecond), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "waiting", mr.HGet("mailroom:job:job-1", "status"))

	claimed, err = store.Claim(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, 2, claimed.AttemptsMade)
}

func TestRedisStore_FailRetainsJob(t *testing.T) {
	store, mr, _ := newRedisTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Push(ctx, emailJob("job-1")))
	claimed, err := store.Claim(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, claimed)

	require.NoError(t, store.Fail(ctx, claimed, errors.New("mailbox unavailable")))
	assert.Equal(t, "failed", mr.HGet("mailroom:job:job-1", "status"))

	failed, err := store.ListFailed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "job-1", failed[0].ID)
	assert.Equal(t, 1, failed[0].AttemptsMade)
	assert.Equal(t, "mailbox unavailable", failed[0].LastError)
	assert.False(t, failed[0].FailedAt.IsZero())
}

func TestRedisStore_ReclaimExpired(t *testing.T) {
	store, _, _ := newRedisTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Push(ctx, emailJob("job-1")))
	claimed, err := store.Claim(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, claimed)

	// Deadline still in the future.
	n, err := store.ReclaimExpired(ctx, time.Now(), 100)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Worker presumed dead: the job returns to waiting and the attempt it
	// consumed stays counted.
	n, err = store.ReclaimExpired(ctx, time.Now().Add(2*time.Minute), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	claimed, err = store.Claim(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, 2, claimed.AttemptsMade)
}

func TestRedisStore_ReclaimAdoptsOrphanedClaims(t *testing.T) {
	// A claim that dies between the BLMOVE and the deadline write leaves its
	// id on the active list with no deadline entry. The sweep must adopt it
	// so the job is eventually reclaimed instead of stranded forever.
	store, mr, rdb := newRedisTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Push(ctx, emailJob("job-1")))
	_, err := rdb.LMove(ctx, "mailroom:waiting", "mailroom:active", "RIGHT", "LEFT").Result()
	require.NoError(t, err)

	// First sweep: nothing due yet, but the orphan gets a deadline.
	now := time.Now()
	n, err := store.ReclaimExpired(ctx, now, 100)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = mr.ZScore("mailroom:active:deadlines", "job-1")
	require.NoError(t, err, "orphaned claim was not assigned a deadline")

	// Once the adopted deadline passes the job is reclaimed.
	n, err = store.ReclaimExpired(ctx, now.Add(2*time.Minute), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	claimed, err := store.Claim(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, "job-1", claimed.ID)
	assert.Equal(t, 1, claimed.AttemptsMade)
}
