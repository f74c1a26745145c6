package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mdview/pkg/observability"
	"github.com/matzehuels/mdview/pkg/render"
	"github.com/matzehuels/mdview/pkg/viewer"
)

// Defaults for zero Config fields.
const (
	DefaultAddr   = "127.0.0.1:8080"
	DefaultWidth  = 1024
	DefaultHeight = 768

	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr     string
	Renderer render.Renderer
	Viewer   viewer.Options

	// Width and Height are the container size of new sessions that do not
	// send one.
	Width, Height float64

	SessionTTL time.Duration
	Logger     *log.Logger

	// Metrics, when set, is served on /metrics.
	Metrics *observability.Prometheus

	Now func() time.Time
}

// Server serves viewer sessions.
type Server struct {
	cfg      Config
	logger   *log.Logger
	sessions *store
	upgrader websocket.Upgrader
	now      func() time.Time
}

// New creates a server. cfg.Renderer is required.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Viewer.Now == nil {
		cfg.Viewer.Now = cfg.Now
	}
	return &Server{
		cfg:      cfg,
		logger:   cfg.Logger,
		sessions: newStore(cfg.SessionTTL, cfg.Now),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		now: cfg.Now,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics.Handler())
	}

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/document", s.handleDocument)
			r.Get("/scene", s.handleScene)
			r.Get("/graph", s.handleGraph)
			r.Post("/commands", s.handleCommand)
			r.Get("/ws", s.handleWS)
		})
	})
	return r
}

// instrument logs each request and reports it to the HTTP hooks under its
// route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		observability.HTTP().OnRequest(r.Context(), r.Method, route, status, d)
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", d,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Sweep drops idle sessions and returns how many were removed.
func (s *Server) Sweep() int {
	n := s.sessions.sweep()
	if n > 0 {
		s.logger.Info("expired sessions", "count", n)
	}
	return n
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int { return s.sessions.len() }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s.Sweep()
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
