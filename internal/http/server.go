// Package http serves the fintrack JSON API.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/auth"
	"fintrack/internal/insights"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

const shutdownTimeout = 10 * time.Second

// InsightsClient proxies the chat backend.
type InsightsClient interface {
	History(ctx context.Context) ([]insights.Message, error)
	Chat(ctx context.Context, text string) (insights.Message, error)
}

// Pinger reports whether the store can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP surface.
type Options struct {
	Addr              string
	MaxBodyBytes      int64
	CORSAllowedOrigin string
	RateLimit         ratelimit.Config
	TrustedProxies    []string
	// RequireAuth puts the budget, transaction and insights routes behind
	// a bearer session token.
	RequireAuth bool
}

// Dependencies are the services the handlers call.
type Dependencies struct {
	Budgets      *services.BudgetService
	Transactions *services.TransactionService
	Auth         *services.AuthService
	Tokens       *auth.Issuer
	Insights     InsightsClient
	Store        Pinger
}

type Server struct {
	http.Server

	budgets      *services.BudgetService
	transactions *services.TransactionService
	auth         *services.AuthService
	insights     InsightsClient
	store        Pinger

	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector
	started  time.Time
}

// NewServer wires the router and the middleware chain. Requests pass
// through panic recovery, tracing, security headers, CORS, the rate
// limiter and the body limit, in that order.
func NewServer(opts Options, deps Dependencies) (*Server, error) {
	if deps.Budgets == nil || deps.Transactions == nil || deps.Auth == nil {
		return nil, errors.New("budget, transaction and auth services are required")
	}
	if opts.RequireAuth && deps.Tokens == nil {
		return nil, errors.New("token issuer is required when auth is enforced")
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 100 << 10
	}

	detector, err := security.NewDetector(opts.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	s := &Server{
		budgets:      deps.Budgets,
		transactions: deps.Transactions,
		auth:         deps.Auth,
		insights:     deps.Insights,
		store:        deps.Store,
		limiter:      ratelimit.NewLimiter(opts.RateLimit),
		detector:     detector,
		started:      time.Now(),
	}
	s.tracer = trace.NewMiddleware(detector.ExtractClientIP, applog.NewStructuredLogger(slog.Default()))

	cors := security.DefaultCORSConfig()
	if opts.CORSAllowedOrigin != "" {
		cors.AllowedOrigin = opts.CORSAllowedOrigin
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/signup", s.handleSignup).Methods(http.MethodPost)
	authRoutes.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	authRoutes.HandleFunc("/forgot-password", s.handleForgotPassword).Methods(http.MethodPost)

	data := api.NewRoute().Subrouter()
	if opts.RequireAuth {
		data.Use(requireSession(deps.Tokens))
	}

	// Fixed paths are registered before {id} so they are never read as ids.
	data.HandleFunc("/budgets", s.handleListBudgets).Methods(http.MethodGet)
	data.HandleFunc("/budgets", s.handleCreateBudget).Methods(http.MethodPost)
	data.HandleFunc("/budgets/summary", s.handleBudgetSummary).Methods(http.MethodGet)
	data.HandleFunc("/budgets/alerts", s.handleBudgetAlerts).Methods(http.MethodGet)
	data.HandleFunc("/budgets/{id:[0-9]+}", s.handleUpdateBudget).Methods(http.MethodPut)
	data.HandleFunc("/budgets/{id:[0-9]+}", s.handleDeleteBudget).Methods(http.MethodDelete)

	data.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	data.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	data.HandleFunc("/transactions/totals", s.handleTransactionTotals).Methods(http.MethodGet)
	data.HandleFunc("/transactions/{id:[0-9]+}", s.handleUpdateTransaction).Methods(http.MethodPut)
	data.HandleFunc("/transactions/{id:[0-9]+}", s.handleDeleteTransaction).Methods(http.MethodDelete)

	data.HandleFunc("/insights/history", s.handleInsightsHistory).Methods(http.MethodGet)
	data.HandleFunc("/insights/chat", s.handleInsightsChat).Methods(http.MethodPost)

	var handler http.Handler = r
	handler = limitBody(opts.MaxBodyBytes)(handler)
	handler = s.limiter.Middleware(detector.ExtractClientIP, s.onRateLimited)(handler)
	handler = security.CORS(cors)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = flagSuspicious(detector, detector.ExtractClientIP)(handler)
	handler = s.tracer.Middleware(handler)
	handler = recoverer(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldComponent, applog.ComponentRateLimit,
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		"method", r.Method,
		"url", r.URL.Path)
	tooManyRequests(w, r)
}

// Run serves until ctx is cancelled, then drains in-flight requests. The
// rate limiter sweeper runs alongside the listener.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.InfoContext(gctx, "HTTP server listening", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", s.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		return s.limiter.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("Shutting down HTTP server", applog.FieldOperation, applog.OpShutdown)
		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
