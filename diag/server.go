package diag

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vaultpass/servicekit/config"
	"github.com/vaultpass/servicekit/decorator"
	"github.com/vaultpass/servicekit/eventbus"
	"github.com/vaultpass/servicekit/logger"
	"github.com/vaultpass/servicekit/observability"
	"github.com/vaultpass/servicekit/registry"
	"github.com/vaultpass/servicekit/version"
)

// Deps are the runtime components the diagnostics server reads from. Nil
// fields disable their routes.
type Deps struct {
	ServiceName string
	Version     string
	Registry    *registry.ServiceRegistry
	Bus         *eventbus.Bus
	Decorators  *decorator.Factory
}

// Server serves runtime diagnostics over HTTP.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	deps       Deps
	log        *logger.Logger
}

// New creates a diagnostics server and registers its routes.
func New(cfg config.DiagConfig, deps Deps) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(recovery())
	engine.Use(requestID())

	s := &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      engine,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine: engine,
		deps:   deps,
		log:    logger.Get("diag"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/version", s.handleVersion)
	if s.deps.Registry != nil {
		s.engine.GET("/stats/services", s.handleServices)
	}
	if s.deps.Bus != nil {
		s.engine.GET("/stats/events", s.handleEventStats)
		s.engine.GET("/stats/events/history", s.handleEventHistory)
	}
	if s.deps.Decorators != nil {
		s.engine.GET("/stats/decorators/:service", s.handleDecoratorStats)
		s.engine.POST("/cache/:service/clear", s.handleClearCache)
		s.engine.POST("/metrics/:service/reset", s.handleResetMetrics)
	}
}

// handleHealth reports aggregated service health. Returns 503 when any
// service is unhealthy so load balancers can act on the status code.
func (s *Server) handleHealth(c *gin.Context) {
	var healths map[string]registry.Health
	if s.deps.Registry != nil {
		healths = s.deps.Registry.GetAllServiceHealth()
	}
	snapshot := observability.NewRuntimeHealth(s.deps.ServiceName, s.deps.Version, healths)

	httpStatus := http.StatusOK
	if snapshot.Status == registry.StatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, snapshot)
}

func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": s.deps.ServiceName,
		"version": s.deps.Version,
		"build":   version.Get(),
	})
}

func (s *Server) handleServices(c *gin.Context) {
	registrations := s.deps.Registry.Registrations()

	services := make([]gin.H, 0, len(registrations))
	for _, reg := range registrations {
		entry := gin.H{
			"name":          reg.Name,
			"lifecycle":     reg.Lifecycle,
			"dependencies":  reg.Dependencies,
			"registered_at": reg.RegisteredAt,
		}
		if health, ok := s.deps.Registry.LastKnownHealth(reg.Name); ok {
			entry["health"] = health
		}
		services = append(services, entry)
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

func (s *Server) handleEventStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Bus.GetStats())
}

func (s *Server) handleEventHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}
	c.JSON(http.StatusOK, gin.H{"history": s.deps.Bus.GetHistory(limit)})
}

func (s *Server) handleDecoratorStats(c *gin.Context) {
	service := c.Param("service")
	stats, ok := s.deps.Decorators.GetServiceDecoratorStats(service)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no decorated service %q", service)})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleClearCache(c *gin.Context) {
	service := c.Param("service")
	cleared := s.deps.Decorators.ClearServiceCache(service)
	s.log.Info("Cache cleared via diagnostics", logger.Fields(
		logger.FieldService, service,
		"entries", cleared,
	))
	c.JSON(http.StatusOK, gin.H{"service": service, "cleared": cleared})
}

func (s *Server) handleResetMetrics(c *gin.Context) {
	service := c.Param("service")
	s.deps.Decorators.ResetServiceMetrics(service)
	c.JSON(http.StatusOK, gin.H{"service": service, "reset": true})
}

// Engine returns the underlying Gin engine, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start binds the port and begins serving. It returns once the listener is
// bound; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("diag server failed to bind %s: %w", s.httpServer.Addr, err)
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("Diag server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	s.log.Info("Diagnostics server started", logger.Fields("addr", s.httpServer.Addr))
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("diag server shutdown error: %w", err)
	}
	s.log.Info("Diagnostics server shut down")
	return nil
}
