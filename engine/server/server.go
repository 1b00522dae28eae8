package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dao-ai/builder/engine/config"
	"github.com/dao-ai/builder/engine/promptgen"
	"github.com/dao-ai/builder/engine/schema"
	"github.com/dao-ai/builder/engine/store"
	appconfig "github.com/dao-ai/builder/pkg/config"
	"github.com/dao-ai/builder/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP API over one configuration store.
type Server struct {
	cfg       *appconfig.Config
	store     *store.Store
	validator *schema.Validator
	assist    *promptgen.Client
	log       logger.Logger
}

// New wires a Server from the application configuration. The store starts
// empty; validator and assist clients are built from the configured
// endpoints.
func New(cfg *appconfig.Config, log logger.Logger) *Server {
	return &Server{
		cfg:       cfg,
		store:     store.New(),
		validator: schema.New(cfg.Schema.URL, nil),
		assist:    promptgen.NewClient(cfg.Assist.Endpoint, cfg.Assist.Token, cfg.Assist.Model, nil),
		log:       log,
	}
}

// Store exposes the underlying store, mainly for the CLI and tests.
func (s *Server) Store() *store.Store {
	return s.store
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestMiddleware(s.log))
	if len(s.cfg.Server.CORSAllowOrigins) > 0 {
		router.Use(corsMiddleware(s.cfg.Server.CORSAllowOrigins))
	}

	api := router.Group("/api/v0")
	api.GET("/healthz", s.handleHealth)
	api.GET("/version", s.handleVersion)

	api.GET("/sections/:section", s.handleListSection)
	api.GET("/sections/:section/:key", s.handleGetEntity)
	api.PUT("/sections/:section/:key", s.handlePutEntity)
	api.PATCH("/sections/:section/:key", s.handlePatchEntity)
	api.DELETE("/sections/:section/:key", s.handleDeleteEntity)

	api.GET("/memory", s.handleGetSingleton(config.SectionMemory))
	api.PUT("/memory", s.handlePutSingleton(config.SectionMemory))
	api.GET("/app", s.handleGetSingleton(config.SectionApp))
	api.PUT("/app", s.handlePutSingleton(config.SectionApp))

	api.GET("/export", s.handleExport)
	api.POST("/import", s.handleImport)
	api.POST("/validate", s.handleValidate)
	api.POST("/deploy/check", s.handleDeployCheck)

	ai := api.Group("/ai")
	ai.POST("/prompt", s.handleGeneratePrompt)
	ai.POST("/guardrail-prompt", s.handleGenerateGuardrailPrompt)
	ai.POST("/handoff-prompt", s.handleGenerateHandoffPrompt)
	ai.POST("/supervisor-prompt", s.handleGenerateSupervisorPrompt)

	return router
}

// Run serves the API until the context is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return <-errCh
}
