package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sablewallet/sable/internal/server/handler"
	"github.com/sablewallet/sable/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health *handler.HealthHandler
	Offers *handler.OfferHandler
	Book   *handler.BookHandler
	Sizing *handler.SizingHandler
}

// Server is the headless HTTP API server for the wallet analytics engine.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux
// and the logging and CORS middleware applied.
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Offer history and reconciliation.
	mux.HandleFunc("GET /api/wallets/{address}/offers", handlers.Offers.ListOffers)
	mux.HandleFunc("POST /api/wallets/{address}/sync", handlers.Offers.SyncWallet)
	mux.HandleFunc("GET /api/wallets/{address}/activity", handlers.Offers.BalanceActivity)
	mux.HandleFunc("DELETE /api/wallets/{address}/offers", handlers.Offers.ClearWallet)

	// Order-book depth and estimates.
	mux.HandleFunc("GET /api/book/depth", handlers.Book.Depth)
	mux.HandleFunc("GET /api/book/estimate", handlers.Book.Estimate)
	mux.HandleFunc("GET /api/book/protected-price", handlers.Book.ProtectedPrice)

	// Reserve-aware sizing.
	mux.HandleFunc("GET /api/wallets/{address}/available", handlers.Sizing.Available)
	mux.HandleFunc("GET /api/wallets/{address}/max-buy", handlers.Sizing.MaxBuy)
	mux.HandleFunc("GET /api/wallets/{address}/max-sell", handlers.Sizing.MaxSell)

	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
