// Package main is the entry point for the bulkqr API server.
package main

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pv2447407/bulkqr/internal/domain/auth"
	"github.com/pv2447407/bulkqr/internal/domain/batch"
	"github.com/pv2447407/bulkqr/internal/domain/identifier"
	"github.com/pv2447407/bulkqr/internal/domain/render"
	"github.com/pv2447407/bulkqr/internal/domain/symbol"
	"github.com/pv2447407/bulkqr/internal/infrastructure/encoding/qr"
	v1 "github.com/pv2447407/bulkqr/internal/infrastructure/http/v1"
	"github.com/pv2447407/bulkqr/internal/infrastructure/pagewriter/pdf"
	"github.com/pv2447407/bulkqr/internal/infrastructure/storage"
	"github.com/pv2447407/bulkqr/pkg/logger"
)

const version = "0.1.0"

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting bulkqr server")

	// --- Storage backend ---
	stores, err := storage.Open(ctx, storage.Config{
		Backend:       getEnv("STORAGE_BACKEND", storage.BackendMemory),
		Dir:           getEnv("DATA_DIR", "data"),
		PostgresDSN:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
	})
	if err != nil {
		log.Fatalw("failed to open storage backend", "error", err)
	}
	defer stores.Close()
	log.Infow("storage backend ready", "backend", getEnv("STORAGE_BACKEND", storage.BackendMemory))

	// --- Identifier format ---
	format := identifier.DefaultFormat()
	format.Prefix = getEnv("ID_PREFIX", format.Prefix)
	format.SeqWidth = getEnvInt("SEQ_WIDTH", format.SeqWidth)
	alloc := identifier.NewAllocator(stores.Sequences, format)

	// --- Render pipeline ---
	pipe := render.NewPipeline(symbol.NewCompositor(&qr.Encoder{}))

	// --- Batch service ---
	batchCfg := batch.Config{
		TemplatesDir: getEnv("TEMPLATES_DIR", ""),
	}
	if logoPath := getEnv("LOGO_PATH", ""); logoPath != "" {
		logo, err := loadLogo(logoPath)
		if err != nil {
			log.Fatalw("failed to load logo", "path", logoPath, "error", err)
		}
		batchCfg.Logo = logo
		log.Infow("logo loaded", "path", logoPath)
	}
	batchService := batch.NewService(alloc, pipe, &pdf.Writer{}, stores.Sessions, log, batchCfg)

	// --- Router ---
	routerCfg := v1.RouterConfig{
		Logger:        log,
		BatchService:  batchService,
		SequenceStore: stores.Sequences,
		Allocator:     alloc,
		Sessions:      stores.Sessions,
		ReadyCheck:    stores.Ping,
		Version:       version,
	}
	if secret := getEnv("AUTH_SECRET", ""); secret != "" {
		tokens, err := auth.NewTokenService(auth.DefaultTokenConfig(secret))
		if err != nil {
			log.Fatalw("failed to initialize token service", "error", err)
		}
		routerCfg.TokenValidator = tokens
		log.Info("api authentication enabled")
	} else {
		log.Warn("AUTH_SECRET not set, api runs unauthenticated")
	}
	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // batches render synchronously
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func loadLogo(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
