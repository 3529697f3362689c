// Package server exposes the survey analysis core over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KaramelBytes/surveytab/internal/analysis"
)

// Config carries the per-process defaults applied to every request.
type Config struct {
	Version     string
	MaxUploadMB int
	SheetIndex  int
	Order       analysis.FrequencyOrder
	Transpose   bool
	Options     analysis.Options
}

// Handlers serves the /v1 endpoints. It holds no per-request state.
type Handlers struct {
	cfg    Config
	logger *zap.Logger
}

// NewHandlers creates handlers with the given defaults.
func NewHandlers(cfg Config, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 20
	}
	return &Handlers{cfg: cfg, logger: logger}
}

// RegisterRoutes registers the /v1 endpoints on rg.
//
//	GET  /v1/health  - liveness and version
//	POST /v1/columns - list (optionally filtered) questions of an upload
//	POST /v1/analyze - frequency or contingency table plus chart data
//	POST /v1/export  - contingency table as an .xlsx download
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.GET("/health", h.HandleHealth)
	rg.POST("/columns", h.HandleColumns)
	rg.POST("/analyze", h.HandleAnalyze)
	rg.POST("/export", h.HandleExport)
}

// NewRouter builds a gin engine with recovery, request logging and the /v1 routes.
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))
	RegisterRoutes(router.Group("/v1"), h)
	return router
}

// Run serves handler on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
