// Package server exposes episode assembly and topic feeds over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/alnah/lingocast/internal/content"
	"github.com/alnah/lingocast/internal/logging"
	"github.com/alnah/lingocast/internal/podcast"
)

const (
	maxRequestBytes = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Episodes is the assembly surface the server needs.
// *podcast.Assembler implements this.
type Episodes interface {
	AssembleWithChapters(ctx context.Context, selections []podcast.Selection) (*podcast.Result, error)
	Episode(ctx context.Context, topicID, textID string) ([]byte, error)
	Topics(ctx context.Context) ([]content.Topic, error)
}

// NarrationPaths locates cached narrations so feeds can report their size.
// *cache.Cache implements this.
type NarrationPaths interface {
	Path(topicID, textID string) string
}

var _ Episodes = (*podcast.Assembler)(nil)

// Server routes HTTP requests to an Episodes implementation.
type Server struct {
	episodes  Episodes
	paths     NarrationPaths
	publicURL string
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithPublicURL sets the origin used for links in feeds.
// Without it, links are derived from the request's Host.
func WithPublicURL(u string) Option {
	return func(s *Server) { s.publicURL = u }
}

// WithNarrationPaths enables enclosure sizes in feeds.
func WithNarrationPaths(p NarrationPaths) Option {
	return func(s *Server) { s.paths = p }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logging.Component(logger, "server") }
}

// New creates a Server.
func New(episodes Episodes, opts ...Option) *Server {
	s := &Server{episodes: episodes, logger: logging.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Post("/api/podcast", s.createPodcast)
	r.Get("/api/topics", s.listTopics)
	r.Route("/podcast/topic/{topicID}", func(r chi.Router) {
		r.Get("/feed.xml", s.topicFeed)
		r.Get("/{file}", s.topicEpisode)
	})
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("stopped")
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}
