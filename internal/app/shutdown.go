package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	// Cancel context to signal all components.
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	// Engine.Run returns on ctx cancellation; wait for it before tearing
	// down the components it depends on.
	a.eng.Wait()

	if err := a.marketFeed.Close(); err != nil {
		a.logger.Error("market-feed-close-error", zap.Error(err))
	}

	a.detector.Close()

	if err := a.storage.Close(); err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	a.idemStore.Close()
	a.marketCache.Close()

	if a.chainClient != nil {
		a.chainClient.Close()
	}

	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")

	return nil
}
