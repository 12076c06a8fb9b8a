package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/shopworks/mailroom/internal/api"
	"github.com/shopworks/mailroom/internal/config"
	"github.com/shopworks/mailroom/internal/eventbus"
	"github.com/shopworks/mailroom/internal/logger"
	"github.com/shopworks/mailroom/internal/queue"
	"github.com/shopworks/mailroom/internal/server"
	"github.com/shopworks/mailroom/internal/service"
	"github.com/shopworks/mailroom/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the notification API server",
	Long: "Start the HTTP API: in-app notification endpoints, the event " +
		"emitter, and the job producer. Jobs are delivered by `mailroom work`.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP server port (overrides PORT env var)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}

	log := logger.New(cfg.LogFile, cfg.SlogLevel())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := storage.NewSQLiteDB(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	rdb, err := newRedisClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	notifStore := storage.NewSQLiteNotificationStore(db)
	jobStore := queue.NewRedisStore(rdb, cfg.ClaimTimeout())
	producer := queue.NewProducer(jobStore)

	bus := eventbus.New(0, log)
	defer bus.Close()

	notifSvc := service.NewNotificationService(producer, notifStore, log, cfg.AppName)
	service.RegisterHandlers(bus, notifSvc, notifStore, log)

	apiSrv := api.New(notifSvc, bus, jobStore, log)
	srv := server.New(apiSrv, cfg.Port, log)

	log.Info("notification API starting", "port", cfg.Port, "redis", cfg.RedisAddr())
	return srv.Run(ctx)
}

// newRedisClient connects to the durable queue store and verifies the
// connection.
func newRedisClient(ctx context.Context, cfg *config.AppConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr(), err)
	}
	return rdb, nil
}
