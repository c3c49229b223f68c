// Package v1 provides HTTP API version 1.
package v1

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pv2447407/bulkqr/internal/core/sequence"
	"github.com/pv2447407/bulkqr/internal/domain/batch"
	"github.com/pv2447407/bulkqr/internal/domain/identifier"
	"github.com/pv2447407/bulkqr/internal/domain/session"
	"github.com/pv2447407/bulkqr/internal/infrastructure/http/v1/handlers"
	"github.com/pv2447407/bulkqr/internal/infrastructure/http/v1/middleware"
	"github.com/pv2447407/bulkqr/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// BatchService runs print batches
	BatchService *batch.Service

	// SequenceStore lists variant counters
	SequenceStore sequence.Store

	// Allocator serves gap analysis and counter moves
	Allocator *identifier.Allocator

	// Sessions is the print history log
	Sessions session.Log

	// TokenValidator guards the API when set; nil leaves it open
	TokenValidator middleware.TokenValidator

	// ReadyCheck probes the storage backend; nil reports ready
	ReadyCheck func(ctx context.Context) error

	// Version is reported by the info endpoint
	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health and metrics endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.ReadyCheck, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	baseHandler := handlers.NewBaseHandler()
	batchHandler := handlers.NewBatchHandler(baseHandler, cfg.BatchService)
	sequenceHandler := handlers.NewSequenceHandler(baseHandler, cfg.SequenceStore, cfg.Allocator)
	sessionHandler := handlers.NewSessionHandler(baseHandler, cfg.Sessions)

	// API v1
	v1 := router.Group("/api/v1")
	if cfg.TokenValidator != nil {
		v1.Use(middleware.Auth(cfg.TokenValidator))
	}
	{
		v1.POST("/batches", batchHandler.Generate)
		v1.POST("/batches/preview", batchHandler.Preview)

		v1.GET("/sequences", sequenceHandler.List)
		v1.GET("/sequences/gaps", sequenceHandler.Gaps)

		// Moving a counter skips numbers forever, so it stays behind the
		// admin role whenever auth is on.
		setNext := v1.Group("")
		if cfg.TokenValidator != nil {
			setNext.Use(middleware.RequireRole("admin"))
		}
		setNext.PUT("/sequences/next", sequenceHandler.SetNext)

		v1.GET("/sessions", sessionHandler.List)
	}

	return router
}
