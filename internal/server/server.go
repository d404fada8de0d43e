// Package server exposes the classifier over HTTP.
//
//	POST /predict  {"image": [784 floats]}  ->  {"digit": 7, "confidence": 0.93}
//	GET  /health                            ->  {"status": "ok", "model": "mnist"}
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/born-ml/digits/internal/classifier"
	"github.com/born-ml/digits/internal/model"
	"github.com/born-ml/digits/internal/network"
	"github.com/born-ml/digits/internal/parallel"
)

// ModelSource resolves a model identifier to a loaded model.
// *model.Store implements it.
type ModelSource interface {
	Load(ctx context.Context, id string) (*model.Model, error)
}

// Options configures a Server.
type Options struct {
	ModelID        string
	AllowedOrigins []string // "*" allows any origin
	Parallel       parallel.Config
	Network        []network.Option
	Logger         *slog.Logger
}

// Server handles classification requests for one model.
type Server struct {
	models ModelSource
	opts   Options
	logger *slog.Logger

	mu         sync.Mutex
	classifier *classifier.Classifier
	loaded     *model.Model
}

// New creates a server that serves opts.ModelID from models.
func New(models ModelSource, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		models: models,
		opts:   opts,
		logger: logger,
	}
}

// Handler returns the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /predict", s.handlePredict)
	mux.HandleFunc("GET /health", s.handleHealth)

	var h http.Handler = mux
	h = s.cors(h)
	h = s.recoverPanics(h)
	h = s.logRequests(h)
	h = requestID(h)
	return h
}

// Timeouts bounds request handling and shutdown.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Shutdown time.Duration
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully within t.Shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string, t Timeouts) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       t.Read,
		ReadHeaderTimeout: t.Read,
		WriteTimeout:      t.Write,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "model", s.opts.ModelID)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", t.Shutdown)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), t.Shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// classifierFor returns the classifier for the configured model, building
// it on first use.
func (s *Server) classifierFor(ctx context.Context) (*classifier.Classifier, *model.Model, error) {
	m, err := s.models.Load(ctx, s.opts.ModelID)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded != m {
		c, err := classifier.New(m.Layers, s.opts.Parallel, s.opts.Network...)
		if err != nil {
			return nil, nil, err
		}
		s.classifier, s.loaded = c, m
	}
	return s.classifier, m, nil
}
