package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plansapp/plans/internal/config"
	"github.com/plansapp/plans/internal/database"
	"github.com/plansapp/plans/internal/handlers"
	"github.com/plansapp/plans/internal/logging"
	"github.com/plansapp/plans/internal/middleware"
	"github.com/plansapp/plans/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := logging.ParseLevel(cfg.Server.LogLevel)
	logger.SetLevel(level)
	logging.SetDefaultLevel(level)

	logger.Info("Starting Plans server...")

	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	version, _, err := migrator.Version()
	_ = migrator.Close()
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	logger.Info("Migrations completed", map[string]interface{}{
		"schema_version": version,
	})

	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	// Services
	dbAdapter := services.NewPoolAdapter(db.Pool)
	redisAdapter := services.NewRedisAdapter(redisDB.Client)

	userService := services.NewUserService(dbAdapter)
	authService := services.NewAuthService(dbAdapter, redisAdapter)
	friendshipService := services.NewFriendshipService(dbAdapter)
	eventService := services.NewEventService(dbAdapter)

	var telegramVerifier services.TelegramVerifier
	if cfg.Telegram.BotToken != "" {
		telegramVerifier = services.NewTelegramAuth(cfg.Telegram.BotToken)
		logger.Info("Telegram login enabled")
	}

	// Handlers
	healthHandler := handlers.NewHealthHandler(db, redisDB)
	authHandler := handlers.NewAuthHandler(userService, authService, friendshipService, telegramVerifier)
	userHandler := handlers.NewUserHandler(userService, friendshipService)
	eventHandler := handlers.NewEventHandler(eventService, userService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)
	securityHeaders := middleware.NewSecurityHeaders(cfg.Server.Environment == "production")
	requestLogger := middleware.NewRequestLogger(logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	requireAuth := authMiddleware.RequireAuth

	mux := http.NewServeMux()

	// Health and metrics (no auth)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Auth endpoints
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/telegram", authHandler.TelegramLogin)
	mux.Handle("POST /api/auth/logout", requireAuth(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("POST /api/auth/logoutall", requireAuth(http.HandlerFunc(authHandler.LogoutAll)))

	// User endpoints
	mux.Handle("GET /api/user/me", requireAuth(http.HandlerFunc(authHandler.Me)))
	mux.Handle("GET /api/user/friends", requireAuth(http.HandlerFunc(userHandler.ListFriends)))
	mux.Handle("GET /api/user/friends/requests", requireAuth(http.HandlerFunc(userHandler.ListFriendRequests)))
	mux.Handle("GET /api/user/events", requireAuth(http.HandlerFunc(eventHandler.ListOwn)))
	mux.Handle("POST /api/user/events", requireAuth(http.HandlerFunc(eventHandler.Create)))
	mux.Handle("GET /api/user/events/attending", requireAuth(http.HandlerFunc(eventHandler.ListAttending)))
	mux.Handle("GET /api/user/{uuid}", requireAuth(http.HandlerFunc(userHandler.GetProfile)))
	mux.Handle("POST /api/user/{uuid}", requireAuth(http.HandlerFunc(userHandler.FriendshipAction)))

	// Event endpoints
	mux.Handle("GET /api/events/{id}", requireAuth(http.HandlerFunc(eventHandler.Get)))
	mux.Handle("DELETE /api/events/{id}", requireAuth(http.HandlerFunc(eventHandler.Delete)))
	mux.Handle("POST /api/events/{id}/requests", requireAuth(http.HandlerFunc(eventHandler.RequestToJoin)))
	mux.Handle("PUT /api/events/{id}/requests/{rid}", requireAuth(http.HandlerFunc(eventHandler.ActOnRequest)))

	// Middleware chain (order matters: outermost first)
	var handler http.Handler = mux
	handler = authMiddleware.Authenticate(handler)
	handler = securityHeaders.Apply(handler)
	handler = metrics.Apply(handler)
	handler = requestLogger.Apply(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}
