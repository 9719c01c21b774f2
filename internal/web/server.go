package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/mbarrette/sentrypi/internal/state"
)

// Server wraps the status HTTP server and handlers.
type Server struct {
	addr     string
	handlers *Handlers
}

// NewServer creates a server configured for the given address and dependencies.
func NewServer(addr string, broadcaster *EventBroadcaster, store state.Store) *Server {
	return &Server{
		addr:     addr,
		handlers: NewHandlers(broadcaster, store),
	}
}

// Mux returns an http.Handler with all routes registered.
func (s *Server) Mux() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handlers.HandleHealthz)
	mux.HandleFunc("GET /state", s.handlers.HandleState)
	mux.HandleFunc("GET /events/stream", s.handlers.HandleEventStream)

	return mux
}

// Run starts the server and blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Mux()}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("status server listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
