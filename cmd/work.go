package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shopworks/mailroom/internal/config"
	"github.com/shopworks/mailroom/internal/logger"
	"github.com/shopworks/mailroom/internal/mailer"
	"github.com/shopworks/mailroom/internal/queue"
)

var workCmd = &cobra.Command{
	Use:   "work",
	Short: "Start the delivery worker",
	Long: "Start the queue consumer: claims email jobs, renders templates, " +
		"delivers over SMTP and drives the retry/backoff machinery. Multiple " +
		"worker instances may run against the same queue.",
	RunE: runWork,
}

func runWork(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogFile, cfg.SlogLevel())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rdb, err := newRedisClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	jobStore := queue.NewRedisStore(rdb, cfg.ClaimTimeout())

	renderer := mailer.NewRenderer(cfg.TemplatesDir)
	sender := mailer.NewSMTP(mailer.Config{
		Host:       cfg.EmailHost,
		Port:       cfg.EmailPort,
		Username:   cfg.EmailUser,
		Password:   cfg.EmailPass,
		From:       cfg.EmailFrom,
		AppName:    cfg.AppName,
		Encryption: cfg.EmailEncryption,
	}, renderer)

	sweeper, err := queue.NewSweeper(jobStore, log)
	if err != nil {
		return err
	}
	if err := sweeper.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := sweeper.Stop(); err != nil {
			log.Warn("sweeper shutdown failed", "error", err)
		}
	}()

	worker := queue.NewWorker(jobStore, sender, log, cfg.WorkerConcurrency)

	log.Info("worker starting",
		"concurrency", cfg.WorkerConcurrency, "redis", cfg.RedisAddr())
	return worker.Run(ctx)
}
