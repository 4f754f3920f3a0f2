// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pigmarket/pigmarket-backend/internal/config"
	"github.com/pigmarket/pigmarket-backend/internal/database"
	"github.com/pigmarket/pigmarket-backend/internal/events"
	"github.com/pigmarket/pigmarket-backend/internal/i18n"
	"github.com/pigmarket/pigmarket-backend/internal/metrics"
	"github.com/pigmarket/pigmarket-backend/internal/presence"
	"github.com/pigmarket/pigmarket-backend/internal/router"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("Server stopped")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if err := database.SeedInitialData(db, cfg.Admin); err != nil {
		return fmt.Errorf("seed superuser: %w", err)
	}
	if err := i18n.Initialize(cfg.I18n.LocalesPath, cfg.I18n.DefaultLocale); err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	metrics.Register()

	tracker, closeTracker := newTracker(cfg)
	defer closeTracker()

	publisher := events.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	defer publisher.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Initialize(db, cfg, tracker, publisher),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logrus.Info("Server exited")
	return nil
}

// newTracker keeps presence in Redis when it is enabled and reachable so
// several instances agree, and in memory otherwise.
func newTracker(cfg *config.Config) (presence.Tracker, func()) {
	window := time.Duration(cfg.Business.OnlineWindowMinutes) * time.Minute
	if !cfg.Redis.Enabled {
		return presence.NewMemoryTracker(window), func() {}
	}

	client := presence.NewRedisClient(cfg.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("Redis unavailable, tracking presence in memory")
		_ = client.Close()
		return presence.NewMemoryTracker(window), func() {}
	}
	return presence.NewRedisTracker(client, window), func() { _ = client.Close() }
}
