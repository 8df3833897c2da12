package app

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/telemetry"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("mode", a.cfg.ExecutionMode),
		zap.Float64("risk-max-position", a.cfg.RiskMaxPosition),
		zap.String("log-level", a.cfg.LogLevel))

	err := a.startComponents()
	if err != nil {
		return err
	}

	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.String("ws-url", a.cfg.PolymarketWSURL))

	return a.waitForShutdown()
}

func (a *App) startComponents() error {
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give the HTTP server a moment to start before anything else depends on it.
	time.Sleep(100 * time.Millisecond)

	a.wg.Add(1)
	go a.runDiscoveryService()

	if err := a.wsPool.Start(); err != nil {
		return fmt.Errorf("start websocket pool: %w", err)
	}

	if err := a.marketFeed.Start(a.ctx, nil); err != nil {
		return fmt.Errorf("start market feed: %w", err)
	}

	a.wg.Add(1)
	go a.handleNewMarkets()

	a.wg.Add(1)
	go a.runDetector()

	if a.walletTracker != nil {
		a.wg.Add(1)
		go a.runWalletTracker()
	}

	a.wg.Add(1)
	go a.runSignalConsumer()

	return nil
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runDiscoveryService() {
	defer a.wg.Done()
	err := a.discoveryService.Run(a.ctx)
	if err != nil && !errors.Is(err, a.ctx.Err()) {
		a.logger.Error("discovery-service-error", zap.Error(err))
	}
}

func (a *App) runDetector() {
	defer a.wg.Done()
	a.detector.Run(a.ctx)
}

func (a *App) runWalletTracker() {
	defer a.wg.Done()
	err := a.walletTracker.Run(a.ctx)
	if err != nil && !errors.Is(err, a.ctx.Err()) {
		a.logger.Error("wallet-tracker-error", zap.Error(err))
	}
}

// runSignalConsumer drives detected signals through the risk/execution
// engine, except in dry-run mode, where opportunities are logged and
// recorded but never routed to an executor (detection only; the "paper"
// mode is the one that routes signals to the simulated executor).
func (a *App) runSignalConsumer() {
	defer a.wg.Done()

	if a.cfg.ExecutionMode == "dry-run" {
		a.logger.Info("engine-disabled-dry-run-mode",
			zap.String("reason", "detection-only; opportunities are logged, not executed"))
		for {
			select {
			case <-a.ctx.Done():
				return
			case sig, ok := <-a.detector.SignalChan():
				if !ok {
					return
				}
				a.recorder.Emit(sig.TraceID, telemetry.KindOpportunityFound,
					zap.String("strategy", sig.StrategyName),
					zap.String("kind", sig.Kind.String()),
					zap.String("mode", "dry-run"))
				a.logger.Info("opportunity-detected-dry-run",
					zap.String("trace-id", sig.TraceID),
					zap.String("strategy", sig.StrategyName))
			}
		}
	}

	a.eng.Run(a.ctx, a.detector.SignalChan())
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
