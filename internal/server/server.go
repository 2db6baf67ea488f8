package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tidwall/sjson"

	"github.com/dshills/easel/internal/dispatcher"
)

// Dispatcher runs a named command over raw JSON arguments.
type Dispatcher interface {
	Dispatch(ctx context.Context, command string, rawArgs []byte) dispatcher.Result
}

// Config holds the HTTP transport settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64

	// MetricsPath mounts the Prometheus handler when non-empty.
	MetricsPath string
}

// DefaultMaxBodyBytes is used when Config.MaxBodyBytes is not positive.
const DefaultMaxBodyBytes = 32 << 20

const shutdownGrace = 10 * time.Second

// Server is the HTTP transport.
type Server struct {
	cfg        Config
	dispatcher Dispatcher
	hub        *Hub
	gatherer   prometheus.Gatherer
	logger     *slog.Logger

	router *chi.Mux
	http   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHub mounts the websocket event stream.
func WithHub(h *Hub) Option {
	return func(s *Server) {
		s.hub = h
	}
}

// WithGatherer sets the registry served on the metrics path.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// New creates a server and builds its routes.
func New(cfg Config, d Dispatcher, opts ...Option) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{
		cfg:        cfg,
		dispatcher: d,
		gatherer:   prometheus.DefaultGatherer,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "http")
	s.router = s.routes()
	return s
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/invoke/{command}", s.handleInvoke)
	if s.cfg.MetricsPath != "" && s.gatherer != nil {
		r.Method(http.MethodGet, s.cfg.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.hub != nil {
		r.Get("/events", s.hub.ServeHTTP)
	}
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	if s.hub != nil {
		s.hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("stopped")
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// statsSource is implemented by dispatchers that keep in-memory stats.
type statsSource interface {
	Metrics() *dispatcher.Metrics
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := []byte(`{"status":"ok"}`)
	if src, ok := s.dispatcher.(statsSource); ok && src.Metrics() != nil {
		if out, err := sjson.SetBytes(body, "dispatch", src.Metrics().Snapshot()); err == nil {
			body = out
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	command := chi.URLParam(r, "command")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeEnvelope(w, http.StatusRequestEntityTooLarge, dispatcher.Failure(
				dispatcher.InvalidArgument("request body exceeds %d bytes", tooLarge.Limit)))
			return
		}
		writeEnvelope(w, http.StatusBadRequest, dispatcher.Failure(
			dispatcher.InvalidArgument("read request body: %v", err)))
		return
	}

	res := s.dispatcher.Dispatch(r.Context(), command, body)
	writeEnvelope(w, statusFor(res), res.JSON())
}

// statusFor maps a command result to an HTTP status.
func statusFor(res dispatcher.Result) int {
	if res.Err == nil {
		return http.StatusOK
	}
	switch res.Err.Code {
	case dispatcher.CodeInvalidArgument, dispatcher.CodeInvalidEncoding:
		return http.StatusBadRequest
	case dispatcher.CodeUnknownCommand:
		return http.StatusNotFound
	case dispatcher.CodeScriptError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeEnvelope(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// accessLog logs one line per request.
func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
					"remote", r.RemoteAddr,
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
