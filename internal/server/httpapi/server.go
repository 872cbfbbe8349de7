// Package httpapi implements the relay's HTTP surface: a blind store
// speaking JSON. No endpoint ever sees plaintext or keys; requests carry
// opaque envelope strings plus metadata.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/secureclip/internal/logging"
	"github.com/dmitrijs2005/secureclip/internal/server/config"
	"github.com/dmitrijs2005/secureclip/internal/server/store"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address          string
	store            store.Store
	logger           logging.Logger
	recordTTL        time.Duration
	storeTimeout     time.Duration
	maxEnvelopeBytes int64
	limiter          *ipLimiter
	limitRetrieval   bool
}

func NewServer(cfg *config.Config, st store.Store, l logging.Logger) *Server {
	return &Server{
		address:          cfg.EndpointAddr,
		store:            st,
		logger:           l.With("module", "httpapi"),
		recordTTL:        store.ClampTTL(cfg.RecordTTL),
		storeTimeout:     cfg.StoreTimeout,
		maxEnvelopeBytes: cfg.MaxEnvelopeBytes,
		limiter:          newIPLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		limitRetrieval:   cfg.LimitRetrieval,
	}
}

// Handler builds the full middleware-wrapped route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", s.limited(http.HandlerFunc(s.handleHealth)))
	mux.Handle("POST /store", s.limited(http.HandlerFunc(s.handleStore)))

	// Retrieval endpoints are throttled only when configured to be:
	// blocking a legitimate receiver is usually worse than slowing down a
	// code-guessing attacker who also has to beat the TTL.
	mux.Handle("GET /fetch/{code}", s.maybeLimited(http.HandlerFunc(s.handleFetch)))
	mux.Handle("GET /peek/{code}", s.maybeLimited(http.HandlerFunc(s.handlePeek)))
	mux.Handle("POST /consume", s.maybeLimited(http.HandlerFunc(s.handleConsume)))

	var h http.Handler = mux
	h = s.cors(h)
	h = s.logRequests(h)
	h = s.recover(h)
	return h
}

func (s *Server) limited(next http.Handler) http.Handler {
	return s.rateLimit(next)
}

func (s *Server) maybeLimited(next http.Handler) http.Handler {
	if s.limitRetrieval {
		return s.rateLimit(next)
	}
	return next
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		s.limiter.stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
