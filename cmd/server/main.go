package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notedev-server/internal/app"
	"notedev-server/internal/config"
	"notedev-server/internal/handler"
	"notedev-server/internal/middleware"
	"notedev-server/internal/websocket"
	"notedev-server/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logger.New(cfg.Logging.Level, cfg.Server.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer stores.Close()

	provider, err := app.NewProvider(ctx, cfg.AI)
	if err != nil {
		logger.Fatal("Failed to create AI provider", zap.Error(err))
	}

	// WebSocket Manager
	wsManager := websocket.NewManager(websocket.Options{
		MaxConnections: cfg.WebSocket.MaxConnections,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		WriteWait:      cfg.WebSocket.WriteWait,
		PongWait:       cfg.WebSocket.PongWait,
		PingPeriod:     cfg.WebSocket.PingPeriod,
	}, logger)
	managerDone := make(chan struct{})
	go func() {
		defer close(managerDone)
		wsManager.Run(ctx)
	}()

	services := app.NewServices(cfg, stores, provider, wsManager, logger)

	if cfg.Server.SeedTemplates {
		if err := app.SeedTemplates(ctx, services.Templates); err != nil {
			logger.Fatal("Failed to seed templates", zap.Error(err))
		}
	}

	if !services.Auth.Enabled() {
		logger.Warn("ADMIN_PASSWORD_HASH is not set; template management is locked")
	}

	validate := handler.NewValidator()

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.TrustedProxies)
	}

	wsManager.SetMessageHandler(handler.NewWebSocketMessageHandler(services.Transforms, validate, limiter, logger))

	router := &handler.Router{
		Auth:      handler.NewAuthHandler(services.Auth, validate, logger),
		Notes:     handler.NewNoteHandler(services.Notes, validate, logger),
		Templates: handler.NewTemplateHandler(services.Templates, validate, logger),
		Documents: handler.NewDocumentHandler(services.Documents, services.Exports, logger),
		Transform: handler.NewTransformHandler(services.Transforms, validate, logger),
		WebSocket: handler.NewWebSocketHandler(
			wsManager,
			cfg.WebSocket.ReadBufferSize,
			cfg.WebSocket.WriteBufferSize,
			cfg.CORS.AllowedOrigins,
			limiter,
			logger,
		),
		AdminAuth:   middleware.AuthMiddleware(services.Auth, logger),
		CORSOrigins: cfg.CORS.AllowedOrigins,
		CORSMethods: cfg.CORS.AllowedMethods,
		CORSHeaders: cfg.CORS.AllowedHeaders,
		Logger:      logger,
	}
	if limiter != nil {
		router.AILimit = middleware.RateLimitMiddleware(limiter, logger)
	}

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting NoteDev server",
			zap.String("addr", addr),
			zap.String("env", cfg.Server.Env),
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("ai_provider", cfg.AI.Provider),
			zap.String("ai_model", cfg.AI.Model),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	<-managerDone

	logger.Info("Server stopped gracefully")
}
