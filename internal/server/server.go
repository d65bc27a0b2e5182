// Package server exposes step generation, validation, run history and burn
// data over a local HTTP API, so a browser extension or a spreadsheet can
// ask for plans without the CLI.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/act/runner"
	"github.com/xkilldash9x/prunact/internal/config"
	"github.com/xkilldash9x/prunact/internal/gamedata"
	"github.com/xkilldash9x/prunact/internal/store"
)

const shutdownGracePeriod = 10 * time.Second

// Generator produces a plan for a package.
type Generator interface {
	Generate(ctx context.Context, pkg *act.ActionPackage, cfg act.ActionPackageConfig, onStatus func(string)) (act.RunResult, []act.LogEntry)
}

// Recorder queues finished runs for the history store.
type Recorder interface {
	Record(run store.RunRecord, results []runner.StepResult) uuid.UUID
}

// History reads the run history.
type History interface {
	ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error)
	RunSteps(ctx context.Context, runID uuid.UUID) ([]act.Step, error)
}

// Deps are the collaborators of the handlers.
type Deps struct {
	Registry  *act.Registry
	Generator Generator
	Recorder  Recorder
	// History is nil when no database is configured.
	History  History
	Sites    gamedata.SiteSource
	Burn     config.BurnConfig
	Gatherer prometheus.Gatherer
}

// Server is the HTTP API.
type Server struct {
	deps       Deps
	engine     *gin.Engine
	httpServer *http.Server
	logger     *zap.Logger
	startTime  time.Time
}

// New builds the router for cfg.
func New(cfg config.ServerConfig, deps Deps, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
		engine.Use(cors.New(corsConfig))
	}

	s := &Server{
		deps:      deps,
		engine:    engine,
		logger:    logger.Named("server"),
		startTime: time.Now(),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.setupRoutes(cfg.RequestTimeout)
	return s
}

func (s *Server) setupRoutes(timeout time.Duration) {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))

	v1 := s.engine.Group("/v1")
	v1.Use(requestTimeout(timeout))
	{
		v1.POST("/generate", s.handleGenerate)
		v1.POST("/validate", s.handleValidate)
		v1.GET("/runs", s.handleListRuns)
		v1.GET("/runs/:id/steps", s.handleRunSteps)
		v1.GET("/burn", s.handleBurn)
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API listening.", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server failed: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	s.logger.Info("Shutting down HTTP API.")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("Request served.",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
