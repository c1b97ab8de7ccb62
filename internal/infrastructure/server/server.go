package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/ProxyLauncher/backend/internal/api/http"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/api/middleware"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/api/ws"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/bridge"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/engine"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/tracing"
)

const (
	shutdownTimeout = 5 * time.Second
	streamPath      = "/stream"
)

// Server wraps the HTTP server and the engine behind it
type Server struct {
	router  *gin.Engine
	handler http.Handler
	mu      sync.Mutex
	http    *http.Server
	engine  *engine.Engine
	tracer  *tracing.Tracer
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance. host may be nil, in which case
// the bridge is chosen from cfg.Bridge.
func NewServer(cfg *config.Config, host bridge.Host) (*Server, error) {
	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)

	logger.Info("Initializing Proxy Launcher engine",
		zap.String("port", cfg.Server.Port),
		zap.String("bridge_addr", cfg.Bridge.Address),
		zap.Bool("offline", cfg.Bridge.Offline),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("engine", logger.Component("tracing"))

	if host == nil {
		h, err := engine.NewHost(cfg.Bridge, logger.Component("bridge"))
		if err != nil {
			tracer.Close()
			return nil, fmt.Errorf("failed to create bridge: %w", err)
		}
		host = h
	}

	eng := engine.New(cfg, host,
		engine.WithLogger(logger.Component("engine")),
		engine.WithMetrics(metrics),
		engine.WithTracer(tracer),
	)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	breaker, _ := host.(apihttp.BreakerReporter)
	handlers := apihttp.NewHandlers(eng, breaker, logger.Component("api"))
	handlers.Register(router)

	wsHandler := ws.NewHandler(eng.Cache(), logger.Component("ws"), metrics)
	router.GET(streamPath, wsHandler.HandleConnection)

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		handler: compress(router),
		engine:  eng,
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// compress gzips responses for clients that accept it. The stream is
// hijacked by the WebSocket upgrade and bypasses the wrapper.
func compress(router http.Handler) http.Handler {
	gz := gzhttp.GzipHandler(router)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == streamPath {
			router.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// Router exposes the handler tree for in-process clients
func (s *Server) Router() http.Handler { return s.handler }

// Engine returns the engine served by this server
func (s *Server) Engine() *engine.Engine { return s.engine }

// Run starts the engine and serves HTTP until Close is called
func (s *Server) Run(ctx context.Context) error {
	if err := s.engine.Start(ctx); err != nil {
		// the API stays useful without a tray
		s.logger.Warn("Engine started without tray", zap.Error(err))
	}

	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()

	var firstErr error
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to stop HTTP server", zap.Error(err))
			firstErr = fmt.Errorf("failed to stop http server: %w", err)
		}
	}
	if err := s.engine.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	s.tracer.Close()

	_ = s.logger.Sync()
	return firstErr
}
