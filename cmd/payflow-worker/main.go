package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"payflow/internal/backend"
	"payflow/internal/cli"
	"payflow/internal/log"
	"payflow/internal/metrics"
	"payflow/internal/worker"
)

const (
	shutdownTimeout = 30 * time.Second
	metricsAddr     = ":9090"
)

func main() {
	logger := cli.SetupLogger(nil, log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting payflow-worker")

	ctx, stop := cli.ShutdownContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger)
	be, err := factory.Open(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to open backend", log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := be.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	writer, err := factory.OpenSheetWriter(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to open spreadsheet writer", log.FieldError, err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	syncWorker := worker.NewSyncWorker(be.Repo, writer, metrics.NewDomain(reg), cfg.SyncBatchSize)

	metricsSrv := &http.Server{
		Addr:              metricsAddr,
		Handler:           metrics.Handler(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", log.FieldError, err)
		}
	}()

	// Pick up shifts that were stored while the worker was down.
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	if be.AMQP != nil {
		go func() {
			if err := be.AMQP.ConsumeShiftSync(ctx, syncWorker.HandleSyncMessage); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
				stop()
			}
		}()
	} else {
		logger.Warn("AMQP not configured, relying on the pending shift poller")
	}

	poller := worker.NewPoller(syncWorker.ProcessPendingShifts, worker.PollerConfig{Interval: cfg.SyncInterval})
	if err := poller.Start(ctx); err != nil {
		logger.Error("Failed to start poller", log.FieldError, err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Shutting down worker...", log.FieldOperation, log.OpShutdown)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := poller.Stop(shutdownCtx); err != nil {
		logger.Warn("Poller did not stop cleanly", log.FieldError, err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Metrics server shutdown error", log.FieldError, err)
	}
	logger.Info("Worker shutdown complete")
}
