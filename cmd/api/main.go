package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/smartqueue/smartqueue-backend/internal/adapters/primary/http"
	mw "github.com/smartqueue/smartqueue-backend/internal/adapters/primary/http/middleware"
	"github.com/smartqueue/smartqueue-backend/internal/adapters/primary/websocket"
	"github.com/smartqueue/smartqueue-backend/internal/adapters/secondary/emitter"
	"github.com/smartqueue/smartqueue-backend/internal/adapters/secondary/postgres"
	"github.com/smartqueue/smartqueue-backend/internal/auth"
	"github.com/smartqueue/smartqueue-backend/internal/config"
	"github.com/smartqueue/smartqueue-backend/internal/core/services"
	"github.com/smartqueue/smartqueue-backend/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// 3. Initialize Database Pool
	ctx := context.Background()
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database connection established")

	// 4. Initialize Security & Real-time Components
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	hub := websocket.NewHub(logger)
	go hub.Run()

	// Dispatch events go to connected boards and to the structured log.
	events := emitter.NewMultiEmitter(hub, emitter.NewLogEmitter(logger))

	// 5. Initialize Rate Limiters
	var generalRateLimiter, authRateLimiter, checkInRateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})

		authRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.AuthRPS,
			BurstSize:         cfg.RateLimit.AuthBurst,
			CleanupInterval:   time.Minute,
			TTL:               5 * time.Minute,
		})

		checkInRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.CheckInRPS,
			BurstSize:         cfg.RateLimit.CheckInBurst,
			CleanupInterval:   time.Minute,
			TTL:               5 * time.Minute,
		})
	}

	// 6. Dependency Injection (Wiring the Hexagon)

	// Error Handler
	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Repositories (Secondary Adapters)
	ticketRepo := postgres.NewTicketRepository(pool)
	queueRepo := postgres.NewQueueRepository(pool)
	pointRepo := postgres.NewServicePointRepository(pool)
	dispatchRepo := postgres.NewDispatchRepository(pool)
	agentRepo := postgres.NewAgentRepository(pool)

	// Services (Core)
	estimatorService := services.NewEstimatorService(ticketRepo, queueRepo)
	ticketService := services.NewTicketService(ticketRepo, queueRepo, estimatorService, events)
	queueService := services.NewQueueService(queueRepo, ticketRepo, pointRepo, events)
	dispatchService := services.NewDispatchService(dispatchRepo, pointRepo, events, cfg.Dispatch.ClaimRetries, logger)
	agentService := services.NewAgentService(agentRepo)

	// Handlers (Primary Adapters)
	authHandler := httpAdapter.NewAuthHandler(agentService, tokenManager, errorHandler, logger)
	ticketHandler := httpAdapter.NewTicketHandler(ticketService, estimatorService, errorHandler, logger)
	queueHandler := httpAdapter.NewQueueHandler(queueService, errorHandler, logger)
	servicePointHandler := httpAdapter.NewServicePointHandler(dispatchService, errorHandler, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, tokenManager, cfg, logger)
	healthHandler := httpAdapter.NewHealthHandler(pool, cfg.App.Version)

	// 7. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.WebSocket.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	healthHandler.RegisterRoutes(r)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes with stricter rate limiting
		r.Group(func(r chi.Router) {
			if authRateLimiter != nil {
				r.Use(authRateLimiter.Middleware)
			}
			r.Route("/auth", authHandler.RegisterRoutes)
		})

		// WebSocket route (authentication is handled inside the handler)
		r.Get("/ws", wsHandler.ServeHTTP)

		// Public read endpoints for boards and customers
		r.Get("/queues/{queueID}/snapshot", queueHandler.HandleGetSnapshot)
		r.Get("/tickets/{ticketID}", ticketHandler.HandleGetTicket)
		r.Get("/tickets/{ticketID}/estimate", ticketHandler.HandleGetEstimate)

		// Public check-in with its own rate budget
		r.Group(func(r chi.Router) {
			if checkInRateLimiter != nil {
				r.Use(checkInRateLimiter.Middleware)
			}
			r.Post("/queues/{queueID}/tickets", ticketHandler.HandleCheckIn)
		})

		// Protected staff routes
		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(tokenManager))

			r.Route("/queue-types", queueHandler.RegisterQueueTypeRoutes)

			r.Post("/queues", queueHandler.HandleCreateQueue)
			r.Get("/queues/{queueID}", queueHandler.HandleGetQueue)
			r.Patch("/queues/{queueID}/status", queueHandler.HandleSetQueueStatus)
			r.Post("/queues/{queueID}/service-points", queueHandler.HandleAssignServicePoint)

			r.Patch("/tickets/{ticketID}/status", ticketHandler.HandleUpdateTicketStatus)

			r.Route("/service-points", servicePointHandler.RegisterRoutes)
		})
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}
