// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/auth"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/cache"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/config"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/database"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/game"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/handlers"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/lobby"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/metrics"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/schedule"
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
		logger.Fatalf("server exited: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	auth.Cost = cfg.PasswordCost()
	if cfg.PrivateKeyPath != "" {
		if err := auth.InitFromPath(cfg.PrivateKeyPath, cfg.PublicKeyPath, cfg.TokenTTL); err != nil {
			return err
		}
	} else {
		logger.Warn("no signing key configured; tokens will not survive a restart")
		if err := auth.Init(cfg.TokenTTL); err != nil {
			return err
		}
	}

	var store database.Store
	if cfg.DatabaseURL != "" {
		pg, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		store = pg
		logger.Info("connected to postgres")
	} else {
		logger.Warn("DATABASE_URL not set; accounts are kept in memory")
		store = database.NewMemoryStore()
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return err
		}
		cat = loaded
	}

	reg := prometheus.NewRegistry()
	m := metrics.New("party", reg)
	sched := schedule.NewTimers()
	hub := handlers.NewHub(logger, m)

	engineOpts := game.Options{
		Catalog:     cat,
		Scheduler:   sched,
		Broadcaster: hub,
		Store:       store,
		Metrics:     m,
		Logger:      logger,
		Timings:     cfg.Timings(),
	}
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		actions := cache.NewActionLog(rdb, cfg.RedisQueue)
		defer actions.Close()
		engineOpts.Actions = actions
		logger.Infof("publishing actions to redis list %s", cfg.RedisQueue)
	}
	engine := game.NewEngine(engineOpts)

	orch := lobby.NewOrchestrator(lobby.Options{
		Catalog:     cat,
		Launcher:    engine,
		Scheduler:   sched,
		Broadcaster: hub.LobbyBroadcaster(),
		Metrics:     m,
		Logger:      logger,
		VoteWindow:  cfg.VoteWindow,
	})
	engine.OnMatchEnd = orch.MatchEnded

	gs := handlers.NewGameServer(engine, orch, store, cat, hub, m, logger)
	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           gs.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("listening on %s", srv.Addr)
		return serve(srv)
	})
	g.Go(func() error {
		logger.Infof("metrics on %s", metricsSrv.Addr)
		return serve(metricsSrv)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), metricsSrv.Shutdown(shutdownCtx))
	})
	return g.Wait()
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
