package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mikey/zimbra-queue-guard/internal/config"
	"github.com/mikey/zimbra-queue-guard/internal/core"
	"github.com/mikey/zimbra-queue-guard/internal/di"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	coordinator *core.Coordinator,
	store core.StateStore,
) error {
	defer logger.Sync()

	interval, err := cfg.GetDuration("monitor.poll_interval")
	if err != nil {
		return fmt.Errorf("invalid poll interval: %w", err)
	}

	logger.Info("Starting queue guard",
		zap.String("server", cfg.GetString("zimbra.server_name")),
		zap.String("queue", cfg.GetString("zimbra.queue_name")),
		zap.Int("count_threshold", cfg.GetInt("monitor.count_threshold")),
		zap.String("domain_suffix", cfg.GetString("monitor.domain_suffix")),
		zap.String("state_store", cfg.GetString("state.type")),
		zap.Duration("poll_interval", interval))

	if cfg.GetBool("metrics.enabled") {
		addr := cfg.GetString("metrics.listen_address")
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("Serving metrics", zap.String("address", addr))
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("Metrics server stopped", zap.Error(err))
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.GetBool("monitor.run_once") {
		coordinator.RunCycle(ctx)
	} else {
		runLoop(ctx, coordinator, interval, logger)
	}

	// Close the store if the backend holds a connection
	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close state store", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}

// runLoop polls until SIGINT or SIGTERM. An immediate first cycle runs before
// the ticker starts; overlapping ticks are dropped by the coordinator.
func runLoop(ctx context.Context, coordinator *core.Coordinator, interval time.Duration, logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	coordinator.RunCycle(ctx)
	for {
		select {
		case <-ticker.C:
			go coordinator.RunCycle(ctx)
		case sig := <-sigCh:
			logger.Info("Shutting down...", zap.String("signal", sig.String()))
			return
		}
	}
}
