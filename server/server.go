package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/skillsenselab/clipwise/logger"
	"github.com/skillsenselab/clipwise/server/middleware"
)

// Server is the trigger HTTP server: Gin mounted on a ServeMux with h2c so
// additional http.Handler mounts can share the port.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	config     Config
	log        *logger.Logger

	jobSlots chan struct{}
	jobs     sync.WaitGroup
}

// New creates a Server. Routes are not registered yet; call RegisterRoutes.
func New(cfg Config, log *logger.Logger) *Server {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}
	outer := middleware.Chain(
		middleware.CORS(cfg.CORS),
		middleware.BodySizeLimit(cfg.MaxBodyBytes),
		middleware.RequestLogger(log),
	)
	handler := h2c.NewHandler(outer(mux), h2s)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		engine:     engine,
		mux:        mux,
		config:     cfg,
		log:        log.WithComponent("server"),
		jobSlots:   make(chan struct{}, cfg.MaxConcurrentJobs),
	}
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handle mounts an http.Handler at the given pattern on the root ServeMux.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("handler mounted", map[string]interface{}{"pattern": pattern})
}

// RegisterRoutes wires the trigger endpoint, health probe, and middleware
// stack. validator guards /v1/*; pass nil to disable authentication (tests,
// local development).
func (s *Server) RegisterRoutes(runner Runner, checks []HealthCheck, validator middleware.TokenValidator) {
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	if s.config.EventsPerMinute > 0 {
		s.engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerMinute: s.config.EventsPerMinute,
		}))
	}
	if validator != nil {
		s.engine.Use(middleware.Auth(middleware.AuthConfig{
			Validator: validator,
			SkipPaths: []string{"/healthz", "/livez"},
		}))
	}

	s.engine.GET("/healthz", s.handleHealth(checks))
	s.engine.GET("/livez", func(c *gin.Context) { c.Status(http.StatusOK) })
	s.engine.POST("/v1/events", s.handleEvent(runner))
}

// Start binds the port and begins serving. It returns once the listener is
// bound; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", logger.ErrorFields("serve", err))
		}
	}()

	s.log.Info("HTTP server started", map[string]interface{}{"addr": s.httpServer.Addr})
	return nil
}

// Stop gracefully shuts down the server and waits for in-flight pipeline
// jobs to finish, bounded by the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	done := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("shutdown deadline reached with pipeline jobs still running")
		return ctx.Err()
	}

	s.log.Info("HTTP server shut down")
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
