package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const (
	sweepInterval = time.Second
	sweepBatch    = 100
)

// Sweeper runs the queue's background maintenance: promoting jobs whose
// backoff delay has elapsed back to the waiting queue, and reclaiming jobs
// abandoned by crashed workers.
type Sweeper struct {
	cron   gocron.Scheduler
	store  Store
	logger *slog.Logger
}

// NewSweeper creates a Sweeper. Call Start to begin sweeping.
func NewSweeper(store Store, logger *slog.Logger) (*Sweeper, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating sweep scheduler: %w", err)
	}
	return &Sweeper{cron: cron, store: store, logger: logger}, nil
}

// Start registers the periodic sweep jobs and starts the scheduler.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.NewJob(
		gocron.DurationJob(sweepInterval),
		gocron.NewTask(func() { s.promoteRetries(ctx) }),
	)
	if err != nil {
		return fmt.Errorf("scheduling retry promotion: %w", err)
	}

	_, err = s.cron.NewJob(
		gocron.DurationJob(sweepInterval),
		gocron.NewTask(func() { s.reclaimExpired(ctx) }),
	)
	if err != nil {
		return fmt.Errorf("scheduling claim reclaim: %w", err)
	}

	s.cron.Start()
	s.logger.Info("queue sweeper started", "interval", sweepInterval)
	return nil
}

// Stop shuts down the sweep scheduler.
func (s *Sweeper) Stop() error {
	return s.cron.Shutdown()
}

func (s *Sweeper) promoteRetries(ctx context.Context) {
	n, err := s.store.PromoteDueRetries(ctx, time.Now(), sweepBatch)
	if err != nil {
		s.logger.Error("promoting due retries failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Debug("promoted due retries", "count", n)
	}
}

func (s *Sweeper) reclaimExpired(ctx context.Context) {
	n, err := s.store.ReclaimExpired(ctx, time.Now(), sweepBatch)
	if err != nil {
		s.logger.Error("reclaiming expired claims failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Warn("reclaimed jobs from expired claims", "count", n)
	}
}
