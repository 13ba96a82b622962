package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" // Import for side effects (registers pprof handlers)
	"time"

	"github.com/gorilla/mux"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/timecode/internal/config"
	apperrors "github.com/zsiec/timecode/internal/errors"
	"github.com/zsiec/timecode/internal/health"
	"github.com/zsiec/timecode/internal/logger"
)

// Server serves the API over HTTP/1.1 and, when enabled, HTTP/3.
type Server struct {
	config       *config.ServerConfig
	router       *mux.Router
	httpServer   *http.Server
	http3Server  *http3.Server
	logger       *logrus.Logger
	redis        redis.UniversalClient
	healthMgr    *health.Manager
	errorHandler *apperrors.ErrorHandler
	limiter      *clientLimiter
	proxies      trustedProxies

	additionalRoutes []func(*mux.Router)
}

// New creates a new server instance. A nil redisClient skips the Redis
// health check; a nil or disabled rate limit config serves without limits.
func New(cfg *config.ServerConfig, rl *config.RateLimitConfig, log *logrus.Logger, redisClient redis.UniversalClient) *Server {
	s := &Server{
		config:       cfg,
		router:       mux.NewRouter(),
		logger:       log,
		redis:        redisClient,
		healthMgr:    health.NewManager(log),
		errorHandler: apperrors.NewErrorHandler(log),
	}
	if rl != nil && rl.Enabled {
		s.limiter = newClientLimiter(rl.RequestsPerSecond, rl.Burst)
	}

	proxies, err := parseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.WithError(err).Warn("Ignoring invalid trusted proxy entries")
	}
	s.proxies = proxies

	if redisClient != nil {
		s.healthMgr.Register(health.NewRedisChecker(redisClient))
	}

	return s
}

// Start serves until ctx is cancelled or a listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.setupRoutes()

	go s.healthMgr.StartPeriodicChecks(ctx, 30*time.Second)
	if s.limiter != nil {
		go s.limiter.cleanup(ctx, time.Minute)
	}

	errCh := make(chan error, 2)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.HTTPPort),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	go func() {
		s.logger.WithField("port", s.config.HTTPPort).Info("Starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if s.config.EnableHTTP3 {
		if err := s.startHTTP3Server(errCh); err != nil {
			_ = s.httpServer.Close()
			return err
		}
	}

	select {
	case err := <-errCh:
		_ = s.Shutdown()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

func (s *Server) startHTTP3Server(errCh chan<- error) error {
	cert, err := tls.LoadX509KeyPair(s.config.TLSCertFile, s.config.TLSKeyFile)
	if err != nil {
		return fmt.Errorf("failed to load TLS certificates: %w", err)
	}

	s.http3Server = &http3.Server{
		Addr:    fmt.Sprintf(":%d", s.config.HTTP3Port),
		Handler: s.router,
		TLSConfig: &tls.Config{
			MinVersion:   tls.VersionTLS13,
			NextProtos:   []string{"h3"},
			Certificates: []tls.Certificate{cert},
		},
		QUICConfig: &quic.Config{
			MaxIdleTimeout: s.config.MaxIdleTimeout,
		},
	}

	go func() {
		s.logger.WithField("port", s.config.HTTP3Port).Info("Starting HTTP/3 server")
		if err := s.http3Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http3 server: %w", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the listeners within the shutdown timeout.
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down servers")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	// http3.Server.Close does not drain; the timeout is handled above.
	if s.http3Server != nil {
		if err := s.http3Server.Close(); err != nil {
			errs = append(errs, fmt.Errorf("http3 server: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server shutdown complete")
	return nil
}

// setupRoutes configures middleware and routes. It runs once from Start.
func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(logger.RequestLoggerMiddleware(s.logger))
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.errorHandler.Middleware)
	s.router.Use(s.metricsMiddleware)
	s.router.Use(s.corsMiddleware)
	s.router.Use(s.rateLimitMiddleware)

	healthHandler := health.NewHandler(s.healthMgr)
	s.router.HandleFunc("/health", healthHandler.HandleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", healthHandler.HandleReady).Methods(http.MethodGet)
	s.router.HandleFunc("/live", healthHandler.HandleLive).Methods(http.MethodGet)

	s.router.HandleFunc("/version", s.handleVersion).Methods(http.MethodGet)

	if s.config.DebugEndpoints {
		s.setupDebugEndpoints()
	}

	for _, registerFunc := range s.additionalRoutes {
		registerFunc(s.router)
	}

	s.router.NotFoundHandler = http.HandlerFunc(s.errorHandler.HandleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.errorHandler.HandleMethodNotAllowed)
}

// setupDebugEndpoints registers pprof and a debug info endpoint.
func (s *Server) setupDebugEndpoints() {
	s.logger.Info("Enabling debug endpoints")

	s.router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	s.router.HandleFunc("/debug/info", s.handleDebugInfo).Methods(http.MethodGet)
}

// RegisterRoutes adds route handlers applied when the server starts.
func (s *Server) RegisterRoutes(registerFunc func(*mux.Router)) {
	s.additionalRoutes = append(s.additionalRoutes, registerFunc)
}

// RegisterHealthChecker adds a checker to the health endpoints.
func (s *Server) RegisterHealthChecker(c health.Checker) {
	s.healthMgr.Register(c)
}

// GetRouter returns the router for testing.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}
