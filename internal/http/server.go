// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"finledger/internal/ledger"
	"finledger/internal/log"
	"finledger/internal/middleware/ratelimit"
	"finledger/internal/middleware/security"
)

// Server is the HTTP front end of a Ledger.
type Server struct {
	http.Server
	ledger       *ledger.Ledger
	logger       *log.Logger
	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

type Option func(*Server)

// WithRateLimit caps each client IP at rpm requests per minute. Zero or a
// negative rpm leaves the API unthrottled.
func WithRateLimit(rpm int) Option {
	return func(s *Server) {
		if rpm > 0 {
			s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: rpm})
		}
	}
}

// NewServer builds a server listening on addr. A nil logger discards output.
func NewServer(addr string, l *ledger.Ledger, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		ledger: l,
		logger: logger.WithComponent(log.ComponentHTTP),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(requestIDFrom))
	r.Use(clientIP)
	r.Use(log.AccessLog)
	r.Use(chiMiddleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	if s.limiter != nil {
		r.Use(s.limiter.Middleware(extractClientIP, writeRateLimited))
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/entries", func(er chi.Router) {
			er.Get("/", s.handleListEntries)
			er.Post("/", s.handleAddEntry)
			er.Delete("/{id}", s.handleDeleteEntry)
		})
		r.Get("/summary", s.handleSummary)
		r.Get("/months", s.handleMonths)
		r.Get("/months/{yearMonth}", s.handleMonthlySummary)
		r.Get("/search", s.handleSearch)
	})

	return r
}

// Shutdown stops accepting requests and waits for in-flight ones. Calling it
// more than once is safe.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.Info("Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
		if s.limiter != nil {
			s.limiter.Stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}
