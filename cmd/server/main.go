package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	webAdapter "medbill/internal/adapters/web"
	"medbill/internal/app"
	"medbill/internal/config"
	"medbill/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()

	svc := app.NewAppService(pool, logger, cfg.MedicineBundlePath)

	migrated, err := svc.Migrate(ctx)
	if err != nil {
		logger.Fatalf("migrate: %v", err)
	}
	if len(migrated.Applied) > 0 {
		logger.WithField("applied", migrated.Applied).Info("migrations applied")
	}

	// First run seeds the catalog from the bundle; later runs skip.
	if imported, err := svc.ImportMedicines(ctx, ""); err != nil {
		logger.WithError(err).Warn("medicine bundle not imported")
	} else if !imported.Skipped {
		logger.WithField("imported", imported.Imported).Info("medicine catalog imported")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           webAdapter.NewHandler(svc, cfg.AllowedOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("server starting on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}
