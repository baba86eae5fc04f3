package main

import (
	"context"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/tdnguyen/auth-service/config"
	"github.com/tdnguyen/auth-service/internal/core"
	"github.com/tdnguyen/auth-service/internal/core/repository"
	"github.com/tdnguyen/auth-service/internal/logger"
	logicv1 "github.com/tdnguyen/auth-service/internal/logic/v1"
	webv1 "github.com/tdnguyen/auth-service/internal/web/v1"
	"github.com/tdnguyen/auth-service/middleware"
)

func main() {
	// Load configuration. A malformed SESSION_EXPIRE or missing secret
	// stops the service here, never at request time.
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	logger.Setup(cfg.Logging.Level)

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("env", cfg.Service.Env).
		Str("port", cfg.Service.Port).
		Msg("Service starting")

	// OpenTelemetry tracing
	var tp interface{ Shutdown(context.Context) error }
	if cfg.Tracing.Enabled {
		provider, err := middleware.InitTracing(context.Background(), cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize tracing")
		} else {
			tp = provider
			log.Info().
				Str("endpoint", cfg.Tracing.Endpoint).
				Float64("sample_rate", cfg.Tracing.SampleRate).
				Msg("Tracing initialized")
		}
	} else {
		log.Info().Msg("Tracing disabled (TRACING_ENABLED=false)")
	}

	// Pyroscope profiling
	if cfg.Profiling.Enabled {
		if err := middleware.InitProfiling(cfg); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize profiling")
		} else {
			log.Info().
				Str("endpoint", cfg.Profiling.Endpoint).
				Msg("Profiling initialized")
			defer middleware.StopProfiling()
		}
	} else {
		log.Info().Msg("Profiling disabled (PROFILING_ENABLED=false)")
	}

	// Database: migrations first, then the pgx pool.
	if err := core.Migrate(context.Background(), cfg.Database.URL); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	pool, err := core.Connect(context.Background(), cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("Database connection pool established")

	// Wire the store, services, gates, and handlers.
	store := repository.NewStore(pool)
	credentials := logicv1.NewCredentialService(store.Credentials())
	sessions := logicv1.NewSessionService(store.Sessions(), cfg.SessionTTL())
	authService := logicv1.NewAuthService(store, credentials, sessions)
	thingService := logicv1.NewThingService(store.Things())

	sessionGuard := middleware.SessionGuard(sessions)
	tokenGuard := middleware.TokenGuard([]byte(cfg.Auth.JWTAccessSecret))

	authHandler := webv1.NewAuthHandler(authService)
	thingHandler := webv1.NewThingHandler(thingService)

	r := gin.New()
	r.Use(gin.Recovery())

	var isShuttingDown atomic.Bool

	if cfg.Tracing.Enabled {
		r.Use(middleware.TracingMiddleware(cfg.Service.Name))
	}
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.PrometheusMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness check
	// Returns 503 once shutdown has started, to drain traffic before HTTP shutdown.
	r.GET("/ready", func(c *gin.Context) {
		if isShuttingDown.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler.RegisterRoutes(&r.RouterGroup, sessionGuard, tokenGuard)
	thingHandler.RegisterRoutes(r.Group("/api"), tokenGuard)

	srv := &http.Server{
		Addr:    ":" + cfg.Service.Port,
		Handler: r,
	}

	go func() {
		log.Info().Str("port", cfg.Service.Port).Msg("Starting auth service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	// Fail readiness first and wait for propagation before closing the server.
	isShuttingDown.Store(true)
	drainDelay := cfg.GetReadinessDrainDelayDuration()
	if drainDelay > 0 {
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay started")
		time.Sleep(drainDelay)
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay completed")
	}

	shutdownTimeout := cfg.GetShutdownTimeoutDuration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info().Dur("timeout", shutdownTimeout).Msg("Shutting down server...")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		log.Info().Msg("HTTP server shutdown complete")
	}

	pool.Close()
	log.Info().Msg("Database pool closed")

	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Tracer shutdown error")
		} else {
			log.Info().Msg("Tracer shutdown complete")
		}
	}

	log.Info().Msg("Graceful shutdown complete")
}
