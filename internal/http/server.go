package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"buchhaltung/internal/backend"
	"buchhaltung/internal/log"
	"buchhaltung/internal/middleware/ratelimit"
	"buchhaltung/internal/middleware/security"
	"buchhaltung/internal/middleware/trace"
)

// Server is the accounting JSON API.
type Server struct {
	http.Server

	backend *backend.Backend
	now     func() time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	startedAt        time.Time

	shutdownOnce sync.Once
}

type Options struct {
	// RateLimitPerMinute caps POST and DELETE requests per client IP.
	RateLimitPerMinute int
	Logger             *log.Logger
	Now                func() time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, b *backend.Backend, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	limiterConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limiterConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		backend:          b,
		now:              opts.Now,
		rateLimiter:      ratelimit.NewLimiter(limiterConfig),
		securityDetector: security.NewDetector(),
		startedAt:        opts.Now(),
	}
	s.traceMiddleware = trace.NewMiddleware(opts.Logger, s.securityDetector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.securityDetector.Middleware(h)
	h = s.traceMiddleware.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("DELETE /api/accounts/{number}", s.handleDeleteAccount)
	mux.HandleFunc("POST /api/accounts/{number}/deactivate", s.handleSetAccountActive(false))
	mux.HandleFunc("POST /api/accounts/{number}/activate", s.handleSetAccountActive(true))

	mux.HandleFunc("GET /api/ledger/entries", s.handleListEntries)
	mux.HandleFunc("POST /api/ledger/entries", s.handlePostEntry)
	mux.HandleFunc("GET /api/ledger/entries/{id}", s.handleGetEntry)
	mux.HandleFunc("POST /api/ledger/entries/{id}/reverse", s.handleReverseEntry)
	mux.HandleFunc("POST /api/ledger/commissions", s.handlePostCommission)

	mux.HandleFunc("GET /api/assets", s.handleListAssets)
	mux.HandleFunc("POST /api/assets", s.handleCreateAsset)
	mux.HandleFunc("GET /api/assets/{id}", s.handleGetAsset)
	mux.HandleFunc("POST /api/assets/{id}/dispose", s.handleDisposeAsset)
	mux.HandleFunc("GET /api/assets/{id}/depreciation", s.handleAssetDepreciation)
	mux.HandleFunc("POST /api/depreciation/run", s.handleRunDepreciation)

	mux.HandleFunc("GET /api/provisions", s.handleListProvisions)
	mux.HandleFunc("POST /api/provisions", s.handleCreateProvision)
	mux.HandleFunc("GET /api/provisions/summary", s.handleProvisionSummary)
	mux.HandleFunc("GET /api/provisions/{id}", s.handleGetProvision)

	mux.HandleFunc("GET /api/reports/income-statement", s.handleIncomeStatement)
	mux.HandleFunc("GET /api/reports/vat-return", s.handleVATReturn)
	mux.HandleFunc("GET /api/reports/trial-balance", s.handleTrialBalance)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse(errorEnvelope{Error: ErrorBody{
		Code:      "rate_limited",
		Message:   "rate limit exceeded, please try again later",
		RequestID: trace.GetRequestID(r.Context()),
	}}).Status(http.StatusTooManyRequests).Write(w)
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
