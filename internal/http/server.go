// Package http serves the week page, its HTMX partials and the JSON API.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"weekspend/internal/core"
	"weekspend/internal/log"
	"weekspend/internal/middleware/ratelimit"
	"weekspend/internal/middleware/security"
	"weekspend/internal/middleware/trace"
	"weekspend/internal/weekly"
	appweb "weekspend/web"
)

// ExpenseManager creates and deletes expenses. *services.ExpenseService
// implements it.
type ExpenseManager interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
}

// WeekReporter produces week reports. *services.ReportService implements it.
type WeekReporter interface {
	WeekOf(ctx context.Context, ref time.Time) (weekly.Report, error)
	Now() time.Time
	Engine() *weekly.Engine
}

// Dependencies is everything NewServer wires into the handlers.
type Dependencies struct {
	Expenses ExpenseManager
	Reports  WeekReporter
	// Ping checks the backing store for /readyz; nil means always ready.
	Ping           func(ctx context.Context) error
	Logger         *log.Logger
	TrustedProxies []string
	RateLimit      int
}

type appMetrics struct {
	created atomic.Int64
	deleted atomic.Int64
	started time.Time
}

type Server struct {
	http.Server
	templates *template.Template
	expenses  ExpenseManager
	reports   WeekReporter
	ping      func(ctx context.Context) error
	logger    *log.Logger

	clientIP    *security.ClientIP
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
	metrics     *appMetrics

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and builds the route table.
func NewServer(addr string, deps Dependencies) (*Server, error) {
	if deps.Expenses == nil || deps.Reports == nil {
		return nil, fmt.Errorf("http server needs both an expense manager and a week reporter")
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	clientIP, err := security.NewClientIP(deps.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	templates, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	limitCfg := ratelimit.DefaultConfig()
	if deps.RateLimit > 0 {
		limitCfg.RequestsPerMinute = deps.RateLimit
	}

	s := &Server{
		templates:   templates,
		expenses:    deps.Expenses,
		reports:     deps.Reports,
		ping:        deps.Ping,
		logger:      logger,
		clientIP:    clientIP,
		rateLimiter: ratelimit.NewLimiter(limitCfg),
		tracer:      trace.NewMiddleware(logger, clientIP.Extract),
		metrics:     &appMetrics{started: time.Now()},
	}

	mux := http.NewServeMux()
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	limited := s.rateLimiter.Middleware(clientIP.Extract, s.handleRateLimited)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /ui/week", s.handleWeekPartial)
	mux.HandleFunc("GET /api/week", s.handleWeekJSON)
	mux.HandleFunc("GET /api/week/charts", s.handleWeekCharts)
	mux.Handle("POST /expenses", limited(http.HandlerFunc(s.handleCreateExpense)))
	mux.Handle("DELETE /expenses/{id}", limited(http.HandlerFunc(s.handleDeleteExpense)))
	mux.Handle("POST /expenses/{id}/delete", limited(http.HandlerFunc(s.handleDeleteExpense)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown stops the rate limiter and drains the HTTP server. Only the first
// call does any work.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.clientIP.Extract(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests, try again shortly").Write(w)
}
