package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopworks/mailroom/internal/queue"
)

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attemptsMade int
		want         time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{0, time.Second}, // clamped
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, queue.RetryDelay(queue.DefaultBackoffMS, tt.attemptsMade),
			"attemptsMade=%d", tt.attemptsMade)
	}
}

func TestJobWireShape(t *testing.T) {
	job := queue.Job{
		ID:          "j-1",
		Type:        queue.TypeEmail,
		Data:        queue.EmailPayload{To: "a@b.com", Subject: "Hi", Template: "welcome"},
		MaxAttempts: 3,
		BackoffMS:   1000,
	}

	raw, err := json.Marshal(job)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "email", fields["type"])
	assert.EqualValues(t, 3, fields["max_attempts"])
	assert.EqualValues(t, 1000, fields["backoff_ms"])
	data := fields["data"].(map[string]any)
	assert.Equal(t, "a@b.com", data["to"])
	assert.Equal(t, "welcome", data["template"])
}

func TestProducer_AppliesDefaultPolicy(t *testing.T) {
	store := newFakeStore()
	p := queue.NewProducer(store)

	id, err := p.EnqueueEmail(context.Background(), queue.EmailPayload{
		To: "a@b.com", Subject: "Hi", Template: "welcome",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Len(t, store.waiting, 1)
	job := store.waiting[0]
	assert.Equal(t, id, job.ID)
	assert.Equal(t, queue.TypeEmail, job.Type)
	assert.Equal(t, queue.DefaultMaxAttempts, job.MaxAttempts)
	assert.Equal(t, queue.DefaultBackoffMS, job.BackoffMS)
	assert.False(t, job.EnqueuedAt.IsZero())
}

func TestProducer_DoesNotValidatePayload(t *testing.T) {
	store := newFakeStore()
	p := queue.NewProducer(store)

	// Missing `to` enqueues fine; validation is the provider's concern.
	_, err := p.EnqueueEmail(context.Background(), queue.EmailPayload{Template: "welcome"})
	require.NoError(t, err)
	require.Len(t, store.waiting, 1)
	assert.Empty(t, store.waiting[0].Data.To)
}

func TestProducer_StoreErrorPropagates(t *testing.T) {
	store := newFakeStore()
	store.pushErr = errors.New("redis unreachable")
	p := queue.NewProducer(store)

	_, err := p.EnqueueEmail(context.Background(), queue.EmailPayload{To: "a@b.com"})
	assert.Error(t, err)
}
