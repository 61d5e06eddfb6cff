package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ksred/flex-sync/internal/auth"
	"github.com/ksred/flex-sync/internal/backup"
	"github.com/ksred/flex-sync/internal/config"
	"github.com/ksred/flex-sync/internal/database"
	"github.com/ksred/flex-sync/internal/flex"
	"github.com/ksred/flex-sync/internal/quotes"
	"github.com/ksred/flex-sync/internal/sync"
	"github.com/ksred/flex-sync/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the trade sync API server with graceful
// shutdown support. It wires the report-fetch client, database, sync
// service and background workers, then serves the API routes.
func main() {
	cfg := config.Load()

	// Initialize database
	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService(cfg.JWTSecret)
	authHandlers := auth.NewGinHandlers(authService)
	authService.RegisterAPICredentials(cfg.APIKey, cfg.APISecret)

	flexClient := flex.NewClient(cfg.Strategy)
	flexClient.BaseURL = cfg.FlexBaseURL

	syncService := sync.NewService(db, flexClient, cfg.FlexToken, cfg.FlexQueryID)
	syncHandlers := sync.NewGinHandlers(syncService)

	quoteService := quotes.NewService()
	quoteHandlers := quotes.NewGinHandlers(quoteService)

	// Start background workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go sync.NewScheduler(syncService).Start(workerCtx)
	go backup.NewWorker(cfg.DBPath, cfg.BackupDir).Start(workerCtx)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, cfg.JWTSecret, authHandlers, syncHandlers, quoteHandlers)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Stop workers first so no sync is mid-flight during shutdown; the
	// fetch delays honor the cancelled context
	workerCancel()

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for authentication
// - Sync routes: Protected by JWT authentication, trigger and inspect syncs
// - Trade/quote routes: Protected read endpoints
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	syncHandlers *sync.GinHandlers,
	quoteHandlers *quotes.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Protected routes
		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(jwtSecret))
		{
			protected.POST("/sync", syncHandlers.TriggerSyncHandler())
			protected.GET("/sync/:sync_id", syncHandlers.GetSyncStatusHandler())
			protected.POST("/import", syncHandlers.ImportHandler())
			protected.GET("/trades", syncHandlers.ListTradesHandler())
			protected.GET("/quotes", quoteHandlers.GetQuotesHandler())
		}
	}
}
