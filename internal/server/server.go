package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"feedcache/internal/feedcache"
)

// Service is what the HTTP surface needs from the application.
type Service interface {
	// Manifest returns the stored bytes of the manifest under key.
	Manifest(ctx context.Context, key string) ([]byte, error)

	// Sync runs one reconciliation.
	Sync(ctx context.Context, trigger string) (*feedcache.RunResult, error)
}

// Server exposes the stored manifests to the display surface and lets a
// scheduler trigger syncs over HTTP.
type Server struct {
	svc           Service
	photoManifest string
	userManifest  string
	logger        feedcache.Logger
	mux           *http.ServeMux
}

// New creates a Server serving the two manifests under their store keys.
func New(svc Service, photoManifest, userManifest string, logger feedcache.Logger) *Server {
	if logger == nil {
		logger = feedcache.NewNopLogger()
	}
	s := &Server{
		svc:           svc,
		photoManifest: photoManifest,
		userManifest:  userManifest,
		logger:        logger,
		mux:           http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the server's request router.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is done.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	// No write timeout: POST /sync holds the response for a whole run, which
	// is bounded by the sync timeout instead.
	httpSrv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", "address", listener.Addr().String())
	if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
