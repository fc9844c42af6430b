// Package http provides the HTTP API for embedd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fyrsmithlabs/embedd/internal/dispatch"
	"github.com/fyrsmithlabs/embedd/internal/embedder"
	"github.com/fyrsmithlabs/embedd/internal/logging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// maxBodySize bounds request bodies.
const maxBodySize = "16M"

// Dispatcher is the subset of *dispatch.Dispatcher the API needs.
type Dispatcher interface {
	Registry() *embedder.Registry
	Resolve(method, model string, t embedder.InputType) (dispatch.Target, error)
	Embed(ctx context.Context, target dispatch.Target, in embedder.Input) (*embedder.Result, error)
	QueueDepth() int
	Workers() int
}

// Server provides HTTP endpoints for embedd.
type Server struct {
	echo       *echo.Echo
	dispatcher Dispatcher
	logger     *logging.Logger
	config     *Config
	prom       *promMetrics
	limiter    *ipLimiter
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
	// RateLimit is requests per second per client IP on /api/v1. Zero
	// disables limiting.
	RateLimit float64
	RateBurst int
	// HTTPMetrics records otel request metrics when set.
	HTTPMetrics *HTTPMetrics
}

// NewServer creates a new HTTP server.
func NewServer(d Dispatcher, logger *logging.Logger, cfg *Config) (*Server, error) {
	if d == nil {
		return nil, fmt.Errorf("dispatcher cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "127.0.0.1",
			Port: 9191,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:       e,
		dispatcher: d,
		logger:     logger.Named("http"),
		config:     cfg,
		prom:       newPromMetrics(d),
		limiter:    newIPLimiter(cfg.RateLimit, cfg.RateBurst),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(s.requestContext)
	e.Use(s.prom.middleware)
	if cfg.HTTPMetrics != nil {
		e.Use(cfg.HTTPMetrics.MetricsMiddleware())
	}
	// requestLogger commits handler errors, so the metrics middlewares above
	// it see the final status.
	e.Use(s.requestLogger)
	e.Use(middleware.BodyLimit(maxBodySize))

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(s.prom.handler()))

	v1 := s.echo.Group("/api/v1", s.rateLimit)
	v1.GET("/methods", s.handleMethods)
	v1.POST("/validate", s.handleValidate)
	v1.POST("/embed", s.handleEmbed)
}

// requestContext copies the request ID onto the request context so every
// log line for the request carries it.
func (s *Server) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		req := c.Request()
		c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), rid)))
		return next(c)
	}
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		s.logger.Info(c.Request().Context(), "http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}
}

func (s *Server) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.limiter.allow(c.RealIP()) {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		}
		return next(c)
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}
