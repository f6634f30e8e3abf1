package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/accessly/prefsync/internal/config"
	"github.com/accessly/prefsync/internal/database"
	"github.com/accessly/prefsync/internal/handlers"
	"github.com/accessly/prefsync/internal/repositories"
	"github.com/accessly/prefsync/internal/services"
	syncsvc "github.com/accessly/prefsync/internal/sync"
)

func main() {
	ctx := context.Background()
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	postgresPool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create postgres pool")
	}
	defer postgresPool.Close()

	if err := database.Migrate(ctx, cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create redis client")
	}
	defer redisClient.Close()

	docRepo := repositories.NewPostgresDocumentRepository(postgresPool, cfg.HistoryKeep)
	eventRepo := repositories.NewPostgresSyncEventRepository(postgresPool)
	accountRepo := repositories.NewPostgresAccountRepository(postgresPool)
	sessionRepo := repositories.NewRedisSessionRepository(redisClient)

	authService := services.NewAuthService(accountRepo, sessionRepo, cfg.JWTSecret, cfg.JWTExpiry)
	syncService := syncsvc.NewService(docRepo, eventRepo, log.With().Str("component", "sync").Logger())

	authHandler := handlers.NewAuthHandler(authService, log)
	syncHandler := handlers.NewSyncHandler(syncService, cfg.MaxPayloadBytes, log)
	settingsHandler := handlers.NewSettingsHandler(syncService, cfg.MaxPayloadBytes, log)

	router := chi.NewRouter()
	router.Use(handlers.RequestLogger(log))
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)
	router.Post("/auth/logout", authHandler.Logout)

	router.Group(func(r chi.Router) {
		r.Use(handlers.RequireAuth(authService))
		r.Post("/api/settings/sync", syncHandler.Handle)
		r.Get("/api/settings", settingsHandler.Get)
		r.Put("/api/settings", settingsHandler.Save)
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("port", cfg.ServerPort).Msg("starting server")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}

	log.Info().Msg("server stopped gracefully")
}
