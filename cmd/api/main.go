package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/callmaker24/segmentation/config"
	"github.com/callmaker24/segmentation/internal/app"
	"github.com/callmaker24/segmentation/pkg/logger"
)

// osExit is a variable to allow mocking os.Exit in tests
var osExit = os.Exit

// For testing purposes - allows us to mock the signal channel
var signalNotify = signal.Notify

const (
	appShutdownTimeout   = 30 * time.Second
	totalShutdownTimeout = 35 * time.Second
)

// NewAppFunc defines the function signature for creating a new app
type NewAppFunc func(cfg *config.Config, opts ...app.AppOption) app.AppInterface

// runServer initializes the app, serves until a signal arrives and shuts down.
// A second signal during shutdown forces an immediate exit.
func runServer(cfg *config.Config, appLogger logger.Logger, newApp NewAppFunc) error {
	appInstance := newApp(cfg, app.WithLogger(appLogger))

	if err := appInstance.Initialize(); err != nil {
		appLogger.WithField("error", err.Error()).Error("Failed to initialize application")
		return err
	}

	shutdown := make(chan os.Signal, 1)
	signalNotify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverError := make(chan error, 1)
	go func() {
		appLogger.Info("Server started successfully")
		serverError <- appInstance.Start()
	}()

	select {
	case err := <-serverError:
		if err != nil {
			appLogger.WithField("error", err.Error()).Error("Server error")
		}
		return err
	case sig := <-shutdown:
		appLogger.WithField("signal", sig.String()).Info("Shutdown signal received - starting graceful shutdown")

		appInstance.SetShutdownTimeout(appShutdownTimeout)

		ctx, cancel := context.WithTimeout(context.Background(), totalShutdownTimeout)
		defer cancel()

		appLogger.WithField("active_requests", appInstance.GetActiveRequestCount()).Info("Starting graceful shutdown")

		forceShutdown := make(chan os.Signal, 1)
		signalNotify(forceShutdown, os.Interrupt, syscall.SIGTERM)

		shutdownDone := make(chan error, 1)
		go func() {
			shutdownDone <- appInstance.Shutdown(ctx)
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				appLogger.WithField("error", err.Error()).Error("Error during graceful shutdown")
				return err
			}
			appLogger.Info("Server shut down gracefully")
			return nil
		case forceSig := <-forceShutdown:
			appLogger.WithField("signal", forceSig.String()).Warn("Force shutdown signal received - terminating immediately")
			cancel()

			select {
			case err := <-shutdownDone:
				if err != nil {
					appLogger.WithField("error", err.Error()).Error("Error during forced shutdown")
				}
			case <-time.After(2 * time.Second):
				appLogger.Warn("Forced shutdown timeout - exiting immediately")
			}

			return fmt.Errorf("forced shutdown")
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewLoggerWithLevel(cfg.LogLevel)
	appLogger.Info(fmt.Sprintf("Starting segmentation API on %s:%d", cfg.Server.Host, cfg.Server.Port))

	if err := runServer(cfg, appLogger, app.NewApp); err != nil {
		osExit(1)
	}
}
