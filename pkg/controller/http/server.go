package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m-mizutani/dorameter/pkg/domain/interfaces"
)

const defaultMaxBodyBytes = 32 << 20

// config holds internal HTTP server configuration
type config struct {
	addr         string
	registry     *prometheus.Registry
	notifier     interfaces.Notifier
	maxBodyBytes int64
	now          func() time.Time
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithRegistry sets the Prometheus registry exposed on /metrics
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *config) {
		c.registry = registry
	}
}

// WithNotifier enables posting results when a request asks for it with ?notify=true
func WithNotifier(n interfaces.Notifier) Option {
	return func(c *config) {
		c.notifier = n
	}
}

// WithMaxBodyBytes limits the size of a submitted snapshot
func WithMaxBodyBytes(n int64) Option {
	return func(c *config) {
		c.maxBodyBytes = n
	}
}

// WithClock replaces time.Now, used for relative ranges and fix-version cutoffs
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	doraUC interfaces.DORAUseCase,
	opts ...Option,
) (*Server, error) {
	cfg := &config{
		addr:         "localhost:8080",
		maxBodyBytes: defaultMaxBodyBytes,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.registry == nil {
		cfg.registry = prometheus.NewRegistry()
	}

	metrics := NewMetrics(cfg.registry)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	router.Get("/health", newHealthHandler(cfg.now()).ServeHTTP)
	router.Handle("/metrics", promhttp.HandlerFor(cfg.registry, promhttp.HandlerOpts{}))

	doraHandler := &DORAHandler{
		uc:           doraUC,
		metrics:      metrics,
		notifier:     cfg.notifier,
		maxBodyBytes: cfg.maxBodyBytes,
		now:          cfg.now,
	}
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/dora", doraHandler.Handle)
	})

	return &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}, nil
}
