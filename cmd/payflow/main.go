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
	apphttp "payflow/internal/http"
	"payflow/internal/log"
	"payflow/internal/metrics"
	"payflow/internal/middleware/ratelimit"
	"payflow/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := cli.SetupLogger(nil, log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg, log.ComponentApp)

	ctx, stop := cli.ShutdownContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).Open(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to open backend", log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := be.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	domain := metrics.NewDomain(reg)

	reports := services.NewReportService(be.Repo, be.Repo, be.ReportCache, domain)
	svc := apphttp.Services{
		Jobs:     services.NewJobService(be.Repo, reports),
		Shifts:   services.NewShiftService(be.Repo, be.Repo, be.Publisher(), reports, domain, cfg.Wage),
		Expenses: services.NewExpenseService(be.Repo, reports),
		Budgets:  services.NewBudgetService(be.Repo, be.Repo),
		Receipts: services.NewReceiptService(be.Repo),
		Reports:  reports,
	}

	limiter, err := ratelimit.New(ratelimit.Config{Rate: cfg.RateLimit, Redis: be.Redis}, apphttp.RateLimited)
	if err != nil {
		logger.Error("Failed to initialize rate limiter", log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:        cfg.Addr(),
		Logger:      logger,
		Metrics:     metrics.NewHTTPMetrics(reg),
		Gatherer:    reg,
		Limiter:     limiter,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Checks:      be.Checks(),
	}, svc)
	srv.MaxHeaderBytes = 1 << 16

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting payflow server",
			"addr", srv.Addr,
			"report_cache", be.CacheType.String(),
			"amqp_enabled", be.AMQP != nil,
			"night_shift", cfg.Wage.EnableNightShift,
			"overtime", cfg.Wage.EnableOvertime)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", log.FieldError, err, "addr", srv.Addr)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully", "blocked_requests", srv.BlockedRequests())
}
