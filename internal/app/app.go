// Package app wires storage, analysis and controllers into the tempwatch server.
package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/tempwatch/internal/analysis"
	"github.com/chrissnell/tempwatch/internal/climate"
	"github.com/chrissnell/tempwatch/internal/log"
	"github.com/chrissnell/tempwatch/internal/managers"
	"github.com/chrissnell/tempwatch/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	config *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		config: cfg,
		logger: logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	storageManager, err := managers.NewStorageManager(ctx, &wg, a.config, a.logger)
	if err != nil {
		return err
	}

	params := climate.DetectorParams{
		WindowSize: a.config.Analysis.WindowSize,
		Sigma:      a.config.Analysis.Sigma,
	}
	analyzer := analysis.NewAnalyzer(storageManager.Store, params, a.logger)

	cm, err := managers.NewControllerManager(ctx, &wg, a.config, storageManager, analyzer, a.logger)
	if err != nil {
		cancel()
		wg.Wait()
		return err
	}
	err = cm.StartControllers()
	if err != nil {
		cancel()
		wg.Wait()
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
