package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"dompet/internal/alerts"
	applog "dompet/internal/log"
	"dompet/internal/services"
)

// Server exposes the ledger as a JSON API.
type Server struct {
	http.Server
	engine    *gin.Engine
	ledger    *services.Ledger
	evaluator *alerts.Evaluator
	logger    *applog.Logger
	sl        *applog.StructuredLogger
	limiter   *rateLimiter

	shutdownOnce sync.Once
}

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	RequestsPerMinute int
	ReadHeaderTimeout time.Duration
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ledger *services.Ledger, evaluator *alerts.Evaluator, logger *applog.Logger, opts Options) *Server {
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = 10 * time.Second
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	engine := gin.New()
	if err := engine.SetTrustedProxies(trustedProxies); err != nil {
		logger.Warn("Failed to set trusted proxies", "error", err)
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: opts.ReadHeaderTimeout,
		},
		engine:    engine,
		ledger:    ledger,
		evaluator: evaluator,
		logger:    logger,
		sl:        applog.NewStructuredLogger(logger),
		limiter:   newRateLimiter(opts.RequestsPerMinute),
	}

	engine.Use(gin.Recovery(), applog.GinMiddleware(logger), securityHeaders(), s.rateLimit())
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/healthz", handleHealth)
	r.GET("/readyz", s.handleReady)

	api := r.Group("/api")
	api.GET("/state", s.handleState)
	api.GET("/summary", s.handleSummary)
	api.GET("/alerts", s.handleAlerts)
	api.POST("/refresh", s.handleRefresh)
	api.DELETE("/data", s.handleClearData)

	api.GET("/transactions", s.handleListTransactions)
	api.POST("/transactions", s.handleCreateTransaction)
	api.PATCH("/transactions/:id", s.handleEditTransaction)
	api.DELETE("/transactions/:id", s.handleDeleteTransaction)

	api.GET("/budgets", s.handleListBudgets)
	api.POST("/budgets", s.handleCreateBudget)
	api.PATCH("/budgets/:id", s.handleEditBudget)
	api.DELETE("/budgets/:id", s.handleDeleteBudget)
	api.GET("/budgets/:id/period", s.handleBudgetPeriod)

	api.GET("/savings", s.handleListSavings)
	api.POST("/savings", s.handleCreateSavings)
	api.PATCH("/savings/:id", s.handleEditSavings)
	api.DELETE("/savings/:id", s.handleDeleteSavings)
	api.POST("/savings/:id/deposit", s.handleDeposit)
}

// Handler returns the routed engine, for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Shutdown stops the rate limiter and gracefully shuts down the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
