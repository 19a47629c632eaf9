package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/cache"
	"payflow/internal/core"
	"payflow/internal/log"
	"payflow/internal/metrics"
	"payflow/internal/middleware/ratelimit"
	"payflow/internal/services"
	"payflow/internal/storage"
)

type testServer struct {
	*Server
	repo *storage.SQLiteRepository
}

type serverOption func(*Options, *core.WageConfig)

func withLimiter(l *ratelimit.Limiter) serverOption {
	return func(o *Options, _ *core.WageConfig) { o.Limiter = l }
}

func withChecks(checks map[string]func(context.Context) error) serverOption {
	return func(o *Options, _ *core.WageConfig) { o.Checks = checks }
}

func withNightShift() serverOption {
	return func(_ *Options, c *core.WageConfig) { c.EnableNightShift = true }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "payflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	reg := prometheus.NewRegistry()
	o := Options{
		Logger:   log.New(log.Config{Level: slog.LevelError, Output: io.Discard}),
		Metrics:  metrics.NewHTTPMetrics(reg),
		Gatherer: reg,
	}
	cfg := core.DefaultWageConfig()
	for _, opt := range opts {
		opt(&o, &cfg)
	}

	domain := metrics.NewDomain(reg)
	reports := services.NewReportService(repo, repo, cache.NewLRUCache[core.Report](10, time.Minute), domain)
	svc := Services{
		Jobs:     services.NewJobService(repo, reports),
		Shifts:   services.NewShiftService(repo, repo, nil, reports, domain, cfg),
		Expenses: services.NewExpenseService(repo, reports),
		Budgets:  services.NewBudgetService(repo, repo),
		Receipts: services.NewReceiptService(repo),
		Reports:  reports,
	}
	return &testServer{Server: NewServer(o, svc), repo: repo}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, withChecks(map[string]func(context.Context) error{
		"sqlite": func(context.Context) error { return nil },
		"redis":  func(context.Context) error { return errors.New("connection refused") },
	}))

	rec := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](t, rec)
	assert.Equal(t, "not_ready", body.Status)
	assert.Equal(t, "ok", body.Checks["sqlite"])
	assert.Contains(t, body.Checks["redis"], "connection refused")
}

func TestReadyWithHealthyDependencies(t *testing.T) {
	ts := newTestServer(t)
	ts.checks = map[string]func(context.Context) error{"sqlite": ts.repo.Ping}

	rec := ts.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJobsAndShifts(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/jobs", map[string]any{"name": "Cafe", "hourly_wage": 1000})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	job := decode[core.Job](t, rec)
	assert.Equal(t, core.DefaultCurrency, job.Currency)
	assert.Equal(t, core.DefaultJobColor, job.Color)

	rec = ts.do(t, http.MethodPost, "/api/shifts", map[string]any{
		"date":       "2024-05-06",
		"start_time": "09:00",
		"end_time":   "17:00",
		"job_id":     job.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	shift := decode[core.Shift](t, rec)
	assert.Equal(t, 8000.0, shift.TotalWage)
	assert.Equal(t, 8.0, shift.TotalHours)
	assert.Equal(t, core.SyncPending, shift.SyncStatus)

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/shifts?job_id=%d", job.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	shifts := decode[[]core.Shift](t, rec)
	require.Len(t, shifts, 1)
	assert.Equal(t, "Cafe", shifts[0].JobName)

	rec = ts.do(t, http.MethodGet, "/api/shifts?from=2024-06-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]core.Shift](t, rec))

	rec = ts.do(t, http.MethodGet, "/api/shifts?from=June", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/shifts", map[string]any{
		"date": "2024-05-06", "start_time": "09:00", "end_time": "17:00", "job_id": 999,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_job", decode[errorResponse](t, rec).Error.Code)

	rec = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/jobs/%d", job.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/shifts", nil)
	shifts = decode[[]core.Shift](t, rec)
	require.Len(t, shifts, 1)
	assert.Nil(t, shifts[0].JobID)

	rec = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/shifts/%d", shift.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/shifts/%d", shift.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/api/shifts/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateShiftInputErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing date", map[string]any{"start_time": "09:00", "end_time": "17:00", "hourly_wage": 1000}},
		{"missing start", map[string]any{"date": "2024-05-06", "end_time": "17:00", "hourly_wage": 1000}},
		{"missing wage", map[string]any{"date": "2024-05-06", "start_time": "09:00", "end_time": "17:00"}},
		{"bad clock", map[string]any{"date": "2024-05-06", "start_time": "25:00", "end_time": "17:00", "hourly_wage": 1000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/shifts", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "invalid_input", decode[errorResponse](t, rec).Error.Code)
		})
	}
}

func TestCreateJobValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/jobs", map[string]any{"name": "", "color": "blue", "hourly_wage": -1})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "validation_failed", body.Error.Code)
	assert.Equal(t, "is required", body.Error.Fields["name"])
	assert.Equal(t, "must be a hex color", body.Error.Fields["color"])
	assert.Equal(t, "must be at least 0", body.Error.Fields["hourly_wage"])

	rec = ts.do(t, http.MethodPost, "/api/jobs", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", decode[errorResponse](t, rec).Error.Code)
}

func TestWagePreview(t *testing.T) {
	ts := newTestServer(t, withNightShift())

	rec := ts.do(t, http.MethodPost, "/api/wage/calculate", map[string]any{
		"date":        "2024-05-06",
		"start_time":  "22:00",
		"end_time":    "06:00",
		"hourly_wage": 1000,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[core.WageResult](t, rec)
	assert.Equal(t, 7.0, res.NightHours)
	assert.Equal(t, 1.0, res.NormalHours)
	assert.Equal(t, 9750.0, res.TotalWage)

	rec = ts.do(t, http.MethodPost, "/api/wage/calculate", map[string]any{
		"date":        "2024-05-06",
		"start_time":  "09:00",
		"end_time":    "17:00",
		"break_start": "16:30",
		"break_end":   "17:30",
		"hourly_wage": 1000,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res = decode[core.WageResult](t, rec)
	assert.Equal(t, 7.0, res.TotalHours)
	assert.Equal(t, 7000.0, res.TotalWage)

	rec = ts.do(t, http.MethodGet, "/api/shifts", nil)
	assert.Empty(t, decode[[]core.Shift](t, rec))

	rec = ts.do(t, http.MethodGet, "/api/wage/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decode[map[string]any](t, rec)
	assert.Equal(t, true, cfg["enable_night_shift"])
	assert.Equal(t, "22:00", cfg["night_start"])
}

func TestExpensesAndBudgets(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/expenses", map[string]any{
		"date": "2024-05-02", "category": "Food", "amount": "85",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/expenses", map[string]any{"date": "2024-05-02", "amount": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/expenses", map[string]any{"date": "2024-05-02"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "is required", decode[errorResponse](t, rec).Error.Fields["amount"])

	rec = ts.do(t, http.MethodGet, "/api/expenses?month=2024-05", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.Expense](t, rec), 1)

	rec = ts.do(t, http.MethodGet, "/api/expenses?month=May", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/budgets", map[string]any{"month": "2024-05", "category": "Food", "amount": 100})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	budget := decode[core.Budget](t, rec)

	rec = ts.do(t, http.MethodPost, "/api/budgets", map[string]any{"month": "2024-05", "category": "Food", "amount": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/budgets?month=2024-05", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.Budget](t, rec), 1)

	rec = ts.do(t, http.MethodGet, "/api/budgets/progress?month=2024-05", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	progress := decode[[]core.BudgetProgress](t, rec)
	require.Len(t, progress, 1)
	assert.Equal(t, 85, progress[0].Percent)
	assert.Equal(t, core.BudgetNear, progress[0].Status)

	rec = ts.do(t, http.MethodGet, "/api/budgets/alerts?month=2024-05&currency=$", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	alerts := decode[[]core.BudgetAlert](t, rec)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Heads up! Food spending is at 85% of your $100.00 budget.", alerts[0].Message)

	rec = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/budgets/%d", budget.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/budgets/%d", budget.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReceipts(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/receipts", map[string]any{
		"title": "Groceries",
		"date":  "2024-05-02",
		"items": []map[string]any{
			{"description": "Rice", "unit_price": 100, "tax_rate": 10},
			{"description": "Tea", "quantity": 2, "unit_price": 50},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rc := decode[core.Receipt](t, rec)
	assert.InDelta(t, 200.0, rc.Subtotal, 1e-9)
	assert.InDelta(t, 10.0, rc.TaxTotal, 1e-9)
	assert.InDelta(t, 210.0, rc.GrandTotal, 1e-9)
	require.Len(t, rc.Items, 2)
	assert.Equal(t, 1.0, rc.Items[0].Quantity)

	rec = ts.do(t, http.MethodPost, "/api/receipts", map[string]any{
		"items": []map[string]any{{"quantity": -1, "unit_price": 10}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error.Fields, "items[0].quantity")

	rec = ts.do(t, http.MethodPost, "/api/receipts", map[string]any{"items": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/receipts/%d", rc.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Groceries", decode[core.Receipt](t, rec).Title)

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/receipts/%d/pdf", rc.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypePDF, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = ts.do(t, http.MethodGet, "/api/receipts", nil)
	assert.Len(t, decode[[]core.Receipt](t, rec), 1)

	rec = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/receipts/%d", rc.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/receipts/%d/pdf", rc.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportAndExports(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/jobs", map[string]any{"name": "Cafe", "hourly_wage": 1000})
	job := decode[core.Job](t, rec)
	rec = ts.do(t, http.MethodPost, "/api/shifts", map[string]any{
		"date": "2024-05-06", "start_time": "09:00", "end_time": "17:00", "job_id": job.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/expenses", map[string]any{
		"date": "2024-05-02", "category": "Food", "amount": 1500,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/report?start=2024/05/01&end=2024-05-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[core.Report](t, rec)
	assert.Equal(t, 8000.0, report.IncomeTotal)
	assert.Equal(t, 1500.0, report.ExpenseTotal)
	assert.Equal(t, 6500.0, report.Net)
	assert.Equal(t, 8000.0, report.ByJob["Cafe"])
	assert.Equal(t, 1500.0, report.ByCategory["Food"])

	rec = ts.do(t, http.MethodGet, "/api/report?job_ids=999", nil)
	assert.Zero(t, decode[core.Report](t, rec).IncomeTotal)

	for _, path := range []string{"/api/export", "/api/export/shifts.csv"} {
		rec = ts.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, contentTypeCSV, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "payflow_shifts.csv")
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		require.Len(t, lines, 2)
		assert.True(t, strings.HasPrefix(lines[0], "Date,Job,Shift Type"))
		assert.Contains(t, lines[1], "Cafe")
	}

	rec = ts.do(t, http.MethodGet, "/api/export/shifts.xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = ts.do(t, http.MethodGet, "/api/export/shifts.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestMiddlewareStack(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = ts.do(t, http.MethodGet, "/.env", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, int64(1), ts.BlockedRequests())

	rec = ts.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorResponse](t, rec).Error.Code)

	rec = ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "payflow_http_requests_total")
}

func TestRateLimit(t *testing.T) {
	limiter, err := ratelimit.New(ratelimit.Config{Rate: "2-M"}, RateLimited)
	require.NoError(t, err)
	ts := newTestServer(t, withLimiter(limiter))

	for i := 0; i < 2; i++ {
		rec := ts.do(t, http.MethodGet, "/api/jobs", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := ts.do(t, http.MethodGet, "/api/jobs", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decode[errorResponse](t, rec).Error.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	rec = ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestShutdownIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, ts.Shutdown(ctx))
	require.NoError(t, ts.Shutdown(ctx))
}
