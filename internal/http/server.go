// Package http serves the JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/reports"
	"fintrack/internal/services"
)

// TransactionAPI is the ledger surface the handlers use.
type TransactionAPI interface {
	List(ctx context.Context) ([]core.Transaction, error)
	MonthlyChart(ctx context.Context) ([]reports.ChartPoint, error)
	Get(ctx context.Context, id string) (core.Transaction, error)
	Categories(ctx context.Context) ([]core.Category, error)
	Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
	Update(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, error)
	Delete(ctx context.Context, id string) error
}

// ReportAPI is the reporting surface the handlers use.
type ReportAPI interface {
	MonthlyTotals(ctx context.Context) ([]reports.MonthlyRow, error)
	CategoryTotals(ctx context.Context, p core.Period) (reports.CategoryTotals, error)
	BudgetComparison(ctx context.Context) (reports.BudgetComparison, error)
	Insights(ctx context.Context) []reports.Insight
	RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
	Dashboard(ctx context.Context, p core.Period) (services.Dashboard, error)
}

// Options configures a Server. Zero values get defaults.
type Options struct {
	RateLimitPerMinute int
	Logger             *log.Logger
	// Ready reports whether dependencies are reachable; nil means always ready.
	Ready func(ctx context.Context) error
	// CacheStats exposes in-process cache counters on /metrics when set.
	CacheStats func() cache.Stats
	Now        func() time.Time
}

type appMetrics struct {
	startedAt          time.Time
	transactionsWrites atomic.Int64
}

type Server struct {
	http.Server
	transactions TransactionAPI
	reports      ReportAPI
	ready        func(ctx context.Context) error
	cacheStats   func() cache.Stats
	now          func() time.Time
	logger       *log.Logger

	rateLimiter     *ratelimit.Limiter
	traceMiddleware *trace.Middleware
	ipResolver      *security.IPResolver
	appMetrics      *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, tx TransactionAPI, rep ReportAPI, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.FromSlog(nil, log.ComponentHTTP)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		transactions: tx,
		reports:      rep,
		ready:        opts.Ready,
		cacheStats:   opts.CacheStats,
		now:          now,
		logger:       logger.WithComponent(log.ComponentHTTP),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		ipResolver: security.NewIPResolver(),
		appMetrics: &appMetrics{startedAt: now()},
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.ipResolver.ClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           headers.Middleware(log.Middleware(s.logger)(s.traceMiddleware.Middleware(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.Handle("POST /api/transactions", s.limited(s.handleCreateTransaction))
	mux.HandleFunc("POST /api/transactions/validate", s.handleValidateTransaction)
	mux.HandleFunc("GET /api/transactions/chart", s.handleMonthlyChart)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.Handle("PATCH /api/transactions/{id}", s.limited(s.handleUpdateTransaction))
	mux.Handle("PUT /api/transactions/{id}", s.limited(s.handleUpdateTransaction))
	mux.Handle("DELETE /api/transactions/{id}", s.limited(s.handleDeleteTransaction))
	mux.HandleFunc("GET /api/categories", s.handleListCategories)

	mux.HandleFunc("GET /api/reports/monthly", s.handleMonthlyTotals)
	mux.HandleFunc("GET /api/reports/categories", s.handleCategoryTotals)
	mux.HandleFunc("GET /api/reports/budget", s.handleBudgetComparison)
	mux.HandleFunc("GET /api/reports/insights", s.handleInsights)
	mux.HandleFunc("GET /api/reports/recent", s.handleRecentTransactions)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
}

// limited applies the per-IP write rate limit.
func (s *Server) limited(h http.HandlerFunc) http.Handler {
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.ipResolver.ClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "Rate limit exceeded. Please try again later."})
	}
	return s.rateLimiter.Middleware(s.ipResolver.ClientIP, onLimit)(h)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
