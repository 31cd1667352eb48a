// cmd/historian is an asynchronous historian service that pops match actions from a Redis queue
// and persists them to PostgreSQL, marking matches abandoned once they go quiet.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/cache"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/config"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/database"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/historian"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalf("historian exited: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if cfg.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required")
	}

	pg, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := pg.Migrate(ctx); err != nil {
		return err
	}

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	queue := cache.NewActionLog(rdb, cfg.RedisQueue)
	defer queue.Close()

	svc := historian.New(queue, pg, historian.Options{
		BatchSize:  cfg.Historian.BatchSize,
		FlushDelay: cfg.Historian.FlushDelay,
		Inactivity: cfg.Historian.Inactivity,
		Logger:     logger,
	})
	logger.Infof("historian draining %s", cfg.RedisQueue)
	err = svc.Run(ctx)
	logger.Info("historian shutting down")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
