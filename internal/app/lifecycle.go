package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cleanedge.io/forms/internal/observe"
	"cleanedge.io/forms/internal/pkg/logger"
)

// Start starts the background services (River workers).
func (a *Application) Start(ctx context.Context) error {
	if a.DB != nil && a.DB.RiverClient != nil {
		if err := a.DB.RiverClient.Start(ctx); err != nil {
			return fmt.Errorf("start river client: %w", err)
		}
		logger.Info("River client started, jobs will now be consumed")
	}
	return nil
}

// Shutdown gracefully shuts down all application components.
func (a *Application) Shutdown() {
	shutdownCtx := context.Background()

	if a.DB != nil && a.DB.RiverClient != nil {
		if err := a.DB.RiverClient.Stop(shutdownCtx); err != nil {
			logger.Error("failed to stop river client", zap.Error(err))
		}
		logger.Info("River client stopped")
	}

	// The limiter owns its store; closing it also closes the redis client.
	if a.limiter != nil {
		if err := a.limiter.Close(); err != nil {
			logger.Warn("rate limiter close returned error", zap.Error(err))
		}
	}

	// Drain in-flight sink dispatches before flushing Sentry.
	if a.Pools != nil {
		a.Pools.Shutdown()
	}
	if s, ok := a.sink.(*observe.SentrySink); ok {
		s.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
