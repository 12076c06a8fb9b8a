package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Producer enqueues notification jobs. Once EnqueueEmail returns nil the job
// is durably persisted and will be seen by any worker, including one started
// later or on another host.
type Producer interface {
	// EnqueueEmail persists an email job with the default retry policy and
	// returns its id. The payload is not validated here: a malformed payload
	// enqueues fine and surfaces at dispatch time.
	EnqueueEmail(ctx context.Context, payload EmailPayload) (string, error)
}

type producer struct {
	store Store
}

// NewProducer creates a Producer on top of the given store.
func NewProducer(store Store) Producer {
	return &producer{store: store}
}

func (p *producer) EnqueueEmail(ctx context.Context, payload EmailPayload) (string, error) {
	job := Job{
		ID:          uuid.NewString(),
		Type:        TypeEmail,
		Data:        payload,
		MaxAttempts: DefaultMaxAttempts,
		BackoffMS:   DefaultBackoffMS,
		EnqueuedAt:  time.Now().UTC(),
	}
	if err := p.store.Push(ctx, job); err != nil {
		return "", fmt.Errorf("enqueueing email job: %w", err)
	}
	return job.ID, nil
}
