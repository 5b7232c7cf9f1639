// Voice assistant server for Sakura Ramen House.
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
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/sakura-ramen/voice-agent/internal/agent"
	"github.com/sakura-ramen/voice-agent/internal/api"
	"github.com/sakura-ramen/voice-agent/internal/config"
	"github.com/sakura-ramen/voice-agent/internal/middleware"
	"github.com/sakura-ramen/voice-agent/internal/realtime"
	"github.com/sakura-ramen/voice-agent/internal/session"
	"github.com/sakura-ramen/voice-agent/internal/store"
	"github.com/sakura-ramen/voice-agent/internal/tools"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "model", cfg.OpenAI.Model)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected", "path", cfg.DBPath)

	// Agents and tools.
	info := tools.RestaurantInfo{
		Name:    cfg.Restaurant.Name,
		Phone:   cfg.Restaurant.Phone,
		Address: cfg.Restaurant.Address,
	}
	toolset := tools.New(repo, info, cfg.Restaurant.MaxSeated, logger)
	registry := agent.BuildRestaurantAgents(toolset, info)
	slog.Info("Agent graph ready", "agents", registry.Names())

	// Realtime client.
	rtClient, err := realtime.NewClient(cfg.OpenAI.APIKey,
		realtime.WithWebSocketURL(cfg.OpenAI.RealtimeURL),
		realtime.WithLogger(logger),
	)
	if err != nil {
		slog.Error("Failed to initialize realtime client", "error", err)
		os.Exit(1)
	}
	dial := func(ctx context.Context) (session.Upstream, error) {
		return rtClient.Connect(ctx, cfg.OpenAI.Model)
	}

	// Session plumbing and handlers.
	manager := session.NewManager()
	baseHandler := api.NewHandler(repo, manager)
	wsHandler := session.NewWebSocketHandler(dial, registry, cfg, manager, logger)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(corsOrigins(cfg)))

	// REST routes.
	r.Get("/api/health", baseHandler.Health)
	r.Route("/api/reservations", func(r chi.Router) {
		r.Get("/", baseHandler.ListReservations)
		r.Post("/", baseHandler.CreateReservation)
		r.Get("/{phone}", baseHandler.GetReservation)
		r.Put("/{phone}", baseHandler.UpdateReservation)
		r.Delete("/{phone}", baseHandler.DeleteReservation)
	})

	// WebSocket endpoint.
	r.Get("/ws/realtime/agent", wsHandler.ServeHTTP)

	// Create server. No WriteTimeout: websocket sessions are long-lived.
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	manager.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

func corsOrigins(cfg *config.Config) []string {
	if cfg.IsDevelopment() || cfg.FrontendURL == "" {
		return []string{"*"}
	}
	return []string{cfg.FrontendURL}
}
