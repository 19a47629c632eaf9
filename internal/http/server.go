// Package http exposes the PayFlow JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"payflow/internal/log"
	"payflow/internal/metrics"
	"payflow/internal/middleware/ratelimit"
	"payflow/internal/middleware/security"
	"payflow/internal/middleware/trace"
	"payflow/internal/services"
)

// Services groups the domain services the handlers call into.
type Services struct {
	Jobs     *services.JobService
	Shifts   *services.ShiftService
	Expenses *services.ExpenseService
	Budgets  *services.BudgetService
	Receipts *services.ReceiptService
	Reports  *services.ReportService
}

// Options configures the transport around the handlers. Zero values turn
// the matching middleware off.
type Options struct {
	Addr        string
	Logger      *log.Logger
	Metrics     *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
	Limiter     *ratelimit.Limiter
	CORSOrigins []string
	// Checks are run by /readyz, keyed by dependency name.
	Checks map[string]func(context.Context) error
}

type Server struct {
	http.Server
	svc      Services
	checks   map[string]func(context.Context) error
	detector *security.Detector

	shutdownOnce sync.Once
}

func NewServer(opts Options, svc Services) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		svc:      svc,
		checks:   opts.Checks,
		detector: security.NewDetector(),
	}

	r := chi.NewRouter()
	r.Use(trace.Middleware)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(log.Middleware(logger, trace.GetRequestID))
	r.Use(opts.Metrics.Middleware)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.detector.Middleware)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", trace.HeaderRequestID},
			ExposedHeaders: []string{trace.HeaderRequestID, "Content-Disposition"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", metrics.Handler(opts.Gatherer))

	r.Route("/api", func(api chi.Router) {
		if opts.Limiter != nil {
			api.Use(opts.Limiter.Middleware)
		}

		api.Route("/jobs", func(jr chi.Router) {
			jr.Get("/", s.handleListJobs)
			jr.Post("/", s.handleCreateJob)
			jr.Delete("/{id}", s.handleDeleteJob)
		})
		api.Route("/shifts", func(sr chi.Router) {
			sr.Get("/", s.handleListShifts)
			sr.Post("/", s.handleCreateShift)
			sr.Delete("/{id}", s.handleDeleteShift)
		})
		api.Post("/wage/calculate", s.handleCalculateWage)
		api.Get("/wage/config", s.handleWageConfig)
		api.Route("/expenses", func(er chi.Router) {
			er.Get("/", s.handleListExpenses)
			er.Post("/", s.handleCreateExpense)
			er.Delete("/{id}", s.handleDeleteExpense)
		})
		api.Route("/budgets", func(br chi.Router) {
			br.Get("/", s.handleListBudgets)
			br.Post("/", s.handleSaveBudget)
			br.Get("/progress", s.handleBudgetProgress)
			br.Get("/alerts", s.handleBudgetAlerts)
			br.Delete("/{id}", s.handleDeleteBudget)
		})
		api.Route("/receipts", func(rr chi.Router) {
			rr.Get("/", s.handleListReceipts)
			rr.Post("/", s.handleCreateReceipt)
			rr.Get("/{id}", s.handleGetReceipt)
			rr.Get("/{id}/pdf", s.handleReceiptPDF)
			rr.Delete("/{id}", s.handleDeleteReceipt)
		})
		api.Get("/report", s.handleReport)
		api.Get("/export", s.handleExportCSV)
		api.Get("/export/shifts.csv", s.handleExportCSV)
		api.Get("/export/shifts.xlsx", s.handleExportXLSX)
		api.Get("/export/shifts.pdf", s.handleExportPDF)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, NewAppError("not_found", "route not found", http.StatusNotFound, nil))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, NewAppError("method_not_allowed", "method not allowed", http.StatusMethodNotAllowed, nil))
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           otelhttp.NewHandler(r, "payflow"),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// RateLimited writes the 429 body used by the rate limiter.
func RateLimited(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, NewAppError("rate_limited", "rate limit exceeded, try again later", http.StatusTooManyRequests, nil))
}

// Shutdown gracefully stops the server. Calling it more than once is safe.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// BlockedRequests returns how many suspicious requests were rejected.
func (s *Server) BlockedRequests() int64 {
	return s.detector.Blocked()
}
