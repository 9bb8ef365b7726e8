// Package http serves the prediction API, the client page and the metrics
// endpoint.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"heartcheck/config"
	"heartcheck/ml"
	"heartcheck/monitoring"
)

// Predictor scores records. *ml.Model implements it.
type Predictor interface {
	Predict(ml.Record) (ml.Prediction, error)
	Info() ml.ModelInfo
}

// Server is the HTTP front of a trained model.
type Server struct {
	server   *http.Server
	config   ServerConfig
	logger   *zap.Logger
	listener net.Listener
}

// ServerConfig is the listener configuration.
type ServerConfig struct {
	Host           string
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// Addr is the configured host:port.
func (c ServerConfig) Addr() string {
	return config.HTTPConfig{Host: c.Host, Port: c.Port}.Addr()
}

// DefaultServerConfig mirrors config.Default.
func DefaultServerConfig() ServerConfig {
	return ServerConfigFrom(config.Default().HTTP)
}

// ServerConfigFrom converts the http section of the config file.
func ServerConfigFrom(cfg config.HTTPConfig) ServerConfig {
	return ServerConfig{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Timeout:        cfg.Timeout,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	}
}

// Deps are the collaborators shared by every handler.
type Deps struct {
	Predictor Predictor
	Metrics   *monitoring.Metrics
	Logger    *zap.Logger
}

// NewHandler builds the routed, middleware-wrapped handler.
func NewHandler(cfg ServerConfig, deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = monitoring.NewMetrics()
	}

	api := newAPI(deps)
	mux := http.NewServeMux()
	api.register(mux)

	chain := Chain(
		LoggerMiddleware(deps.Logger),
		RecoveryMiddleware(deps.Logger),
		SecurityHeadersMiddleware,
		CORSMiddleware(cfg.AllowedOrigins),
		RequestSizeMiddleware(cfg.MaxBodyBytes),
		MetricsMiddleware(deps.Metrics),
	)
	return chain(mux)
}

// NewServer builds a server for cfg. It does not listen until Listen or
// Start is called.
func NewServer(cfg ServerConfig, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Server{
		server: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           NewHandler(cfg, deps),
			ReadHeaderTimeout: cfg.Timeout,
			ReadTimeout:       cfg.Timeout,
			WriteTimeout:      cfg.Timeout,
			IdleTimeout:       120 * time.Second,
		},
		config: cfg,
		logger: deps.Logger,
	}
}

// Listen binds the configured address. Start calls it when needed; calling
// it first lets callers learn the bound port before serving.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	s.listener = ln
	return nil
}

// Start serves until Stop is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.logger.Info("http server listening",
		zap.String("addr", s.Addr()),
		zap.String("websocket", "ws://"+s.Addr()+"/ws/predict"),
	)

	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr returns the bound address once listening, the configured one before.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}
