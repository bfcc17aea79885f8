package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"separation/cmd"
	"separation/internal/adapters/out/postgres"
	"separation/internal/pkg/logging"
	"separation/internal/pkg/tracing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configs, err := cmd.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger := logging.New(configs.ServiceName, configs.LogLevel, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracer, err := tracing.Setup(ctx, tracing.Config{
		ServiceName:  configs.ServiceName,
		OTLPEndpoint: configs.OTLPEndpoint,
		SampleRate:   configs.TraceSampleRate,
	})
	if err != nil {
		log.Fatalf("Error setting up tracing: %v", err)
	}

	gormDB := mustOpenDB(configs)

	app, err := cmd.NewCompositionRoot(configs, gormDB, logger)
	if err != nil {
		log.Fatalf("Error building application: %v", err)
	}

	jobManager := app.CreateJobManager()
	if err = jobManager.StartAll(); err != nil {
		log.Fatalf("Error starting jobs: %v", err)
	}

	e, err := app.CreateHTTPServer()
	if err != nil {
		log.Fatalf("Error building HTTP server: %v", err)
	}
	serverErr := startWebServer(e, configs.HTTPPort, logger)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err = <-serverErr:
		logger.Error("http server stopped", "error", err)
	}

	shutdown(e, jobManager.StopAll, app, tracer, gormDB, logger)
}

func mustOpenDB(configs cmd.Config) *gorm.DB {
	gormDB, err := gorm.Open(gormpostgres.Open(configs.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("Error getting database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err = postgres.Migrate(gormDB); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}
	return gormDB
}

func startWebServer(e *echo.Echo, port string, logger *slog.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "port", port)
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

// shutdown stops intake before draining the relay and closing the database.
func shutdown(
	e *echo.Echo,
	stopJobs func(),
	app *cmd.CompositionRoot,
	tracer *tracing.Provider,
	gormDB *gorm.DB,
	logger *slog.Logger,
) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	stopJobs()

	// Shutdown does not wait for hijacked websocket connections; they end
	// when the hub closes.
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down http server", "error", err)
	}
	if err := app.Close(ctx); err != nil {
		logger.Error("failed to close application", "error", err)
	}
	if err := tracer.Shutdown(ctx); err != nil {
		logger.Error("failed to flush traces", "error", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("shutdown complete")
}
