// Package api serves the REST surface over the deal store. Handlers
// are distributed across multiple files:
//   - handlers_deals.go: deals listing, per-symbol view, manual entry
//   - handlers_analytics.go: dashboard aggregates (Redis-cached)
//   - handlers_signals.go: derived buy signals
//   - handlers_system.go: health check and fetch log
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"smartflow/cache"
	"smartflow/database"
	"smartflow/scheduler"
)

// Server handles HTTP API requests
type Server struct {
	repo       *database.DealRepository
	cache      *cache.RedisClient
	sched      *scheduler.Scheduler
	corsOrigin string

	httpServer *http.Server
}

// NewServer creates a new API server instance. cache may be nil, in
// which case the analytics endpoints always hit Postgres.
func NewServer(repo *database.DealRepository, c *cache.RedisClient, sched *scheduler.Scheduler, corsOrigin string) *Server {
	return &Server{
		repo:       repo,
		cache:      c,
		sched:      sched,
		corsOrigin: corsOrigin,
	}
}

// Start runs the HTTP server on the specified port. Blocks until the
// server stops; a Shutdown-triggered stop returns nil.
func (s *Server) Start(port int) error {
	mux := http.NewServeMux()

	// Deal routes
	mux.HandleFunc("GET /api/deals", s.handleGetDeals)
	mux.HandleFunc("GET /api/deals/{symbol}", s.handleGetDealsBySymbol)
	mux.HandleFunc("POST /api/deals", s.handleCreateDeal)
	mux.HandleFunc("GET /api/delivery/{symbol}", s.handleGetDelivery)

	// Analytics routes
	mux.HandleFunc("GET /api/analytics/accumulation", s.handleAccumulation)
	mux.HandleFunc("GET /api/analytics/top-clients", s.handleTopClients)
	mux.HandleFunc("GET /api/analytics/active-symbols", s.handleActiveSymbols)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	// Signal routes
	mux.HandleFunc("GET /api/signals", s.handleBuySignals)

	// System routes
	mux.HandleFunc("GET /api/logs", s.handleFetchLogs)
	mux.HandleFunc("GET /health", s.handleHealth)

	handler := s.corsMiddleware(s.loggingMiddleware(mux))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().Str("addr", s.httpServer.Addr).Msg("API server starting")
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}
