// Command pidgend runs the pid generator's HTTP daemon: the three engine
// operations (Initialize, Generate, Exists) exposed as a thin API,
// backed by either the in-memory store or PostgreSQL.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vesaakerman/easy-pid-generator/internal/config"
	"github.com/vesaakerman/easy-pid-generator/internal/pid"
	"github.com/vesaakerman/easy-pid-generator/internal/server"
	"github.com/vesaakerman/easy-pid-generator/internal/storage"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	encoderCfg := pid.EncoderConfig{
		DOIPrefix:    cfg.DOIPrefix,
		DOINamespace: cfg.DOINamespace,
		URNNamespace: cfg.URNNamespace,
	}
	generator := pid.NewGenerator(store, encoderCfg, func() time.Time { return time.Now().UTC() }, cfg.Timezone)

	h := server.New(cfg, store, generator, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddress,
		Handler:           server.NewMetricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("pidgend starting", "addr", srv.Addr, "env", cfg.Env, "driver", cfg.DatabaseDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "addr", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	} else {
		logger.Info("shutdown complete")
	}
	_ = metricsSrv.Shutdown(ctx)
}

// buildStore constructs the configured backend and returns a cleanup
// function that closes any underlying resources.
func buildStore(cfg config.Config) (pid.Store, func(), error) {
	switch cfg.DatabaseDriver {
	case "postgres":
		pg, err := storage.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := storage.Migrate(context.Background(), pg.DB()); err != nil {
			return nil, nil, err
		}
		return pg, func() { _ = pg.Close() }, nil
	default:
		return storage.NewMemory(), func() {}, nil
	}
}
