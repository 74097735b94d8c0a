package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streamcast/internal/core/ports"
	"streamcast/internal/core/services"
	httphandlers "streamcast/internal/handlers/http"
	"streamcast/internal/infrastructure/ingest"
	"streamcast/internal/infrastructure/middleware"
	"streamcast/internal/infrastructure/monitoring"
	"streamcast/internal/infrastructure/realtime"
	repositories "streamcast/internal/infrastructure/repositories"
	"streamcast/pkg/config"
	"streamcast/pkg/logger"
	"streamcast/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/streamcast/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "streamcast-coordinator",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: os.Getenv("STREAMCAST_ENV"),
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Initialize repository factory
	repoFactory, err := repositories.NewFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	userRepo := repoFactory.CreateUserRepository()
	registry := repoFactory.CreatePresenceRegistry()

	// Initialize monitoring
	var metrics ports.MetricsRecorder
	if cfg.Monitoring.PrometheusEnabled {
		metrics = monitoring.NewPrometheusCollector()
	} else {
		metrics = monitoring.NewNopRecorder()
	}

	// Initialize services
	authService := services.NewAuthService(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)
	accountService := services.NewAccountService(userRepo)
	identity := services.NewIdentityService(userRepo, authService, cfg.Auth.AuthorizeTimeout, log)

	// Initialize realtime fan-out
	hub := realtime.NewHub(registry, metrics, log)
	realtimeOpts := realtime.Options{
		PingInterval:   cfg.Realtime.PingInterval,
		PongTimeout:    cfg.Realtime.PongTimeout,
		WriteTimeout:   cfg.Realtime.WriteTimeout,
		SendBufferSize: cfg.Realtime.SendBufferSize,
		MaxMessageSize: cfg.Realtime.MaxMessageSize,
	}
	if cfg.RateLimiting.Enabled {
		realtimeOpts.ChatMessagesPerSecond = cfg.RateLimiting.Chat.MessagesPerSecond
		realtimeOpts.ChatBurst = cfg.RateLimiting.Chat.Burst
	}
	wsServer := realtime.NewServer(hub, identity, realtimeOpts, log)

	// Initialize coordinator
	var ingestClient ports.IngestClient
	if cfg.Ingest.Reconcile {
		ingestClient = ingest.NewClient(cfg.Ingest.StatsURL, cfg.Ingest.RequestTimeout)
	}
	coordinator := services.NewCoordinatorService(identity, registry, hub, ingestClient, metrics, log)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	go coordinator.Run(runCtx)

	// Recover sessions for streams that stayed live across a restart
	if cfg.Ingest.Reconcile {
		go func() {
			reconcileCtx, cancel := context.WithTimeout(runCtx, 30*time.Second)
			defer cancel()
			if err := coordinator.Reconcile(reconcileCtx); err != nil {
				log.Warnw("ingest reconciliation failed", "error", err)
			}
		}()
	}

	// Initialize HTTP handlers
	hookHandler := ingest.NewHookHandler(coordinator, cfg.Ingest.HookSecret, log)
	authHandler := httphandlers.NewAuthHandler(authService, accountService, cfg.Auth.AccessTokenTTL)
	streamHandler := httphandlers.NewStreamHandler(registry, identity, accountService)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	authHandler.SetupRoutes(router, middleware.AuthMiddleware(authService))
	streamHandler.SetupRoutes(router)
	hookHandler.SetupRoutes(router)

	// Realtime viewer endpoint
	router.GET("/ws", gin.WrapF(wsServer.HandleWebSocket))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
		})
	})

	// Readiness endpoint
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := repoFactory.HealthCheck(ctx); err != nil {
			c.JSON(503, gin.H{
				"status":       "not_ready",
				"timestamp":    time.Now(),
				"dependencies": "unhealthy",
				"error":        err.Error(),
			})
			return
		}

		c.JSON(200, gin.H{
			"status":       "ready",
			"timestamp":    time.Now(),
			"dependencies": "ok",
		})
	})

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting Streamcast coordinator on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down Streamcast coordinator...")

	// Stop accepting lifecycle events before draining HTTP
	runCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer provider", "error", err)
	}

	if err := repoFactory.Close(); err != nil {
		log.Errorw("Error closing repository factory", "error", err)
	}

	log.Info("Streamcast coordinator stopped")
}
