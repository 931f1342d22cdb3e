package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vibeditor/backend/internal/asset"
	"github.com/vibeditor/backend/internal/auth"
	"github.com/vibeditor/backend/internal/config"
	"github.com/vibeditor/backend/internal/db"
	appMiddleware "github.com/vibeditor/backend/internal/middleware"
	"github.com/vibeditor/backend/internal/project"
	"github.com/vibeditor/backend/internal/response"
	"github.com/vibeditor/backend/internal/storage"
	"github.com/vibeditor/backend/internal/subscription"
	"github.com/vibeditor/backend/internal/upload"
	"github.com/vibeditor/backend/internal/user"
	"github.com/vibeditor/backend/internal/video"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.Load(logger)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL, logger); err != nil {
		logger.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	store := storage.NewManager(ctx, cfg, logger)

	processor, err := video.NewProcessor(logger)
	if err != nil {
		logger.Warn("video tools not found, media processing disabled", "error", err)
	}

	// Wire dependencies: repository → service → handler
	userRepo := user.NewRepository(pool)
	authSvc := auth.NewService(userRepo, cfg)
	authHandler := auth.NewHandler(authSvc)

	projectRepo := project.NewRepository(pool)
	projectHandler := project.NewHandler(projectRepo)

	assetRepo := asset.NewRepository(pool)
	assetHandler := asset.NewHandler(assetRepo, store)

	subRepo := subscription.NewRepository(pool)
	subHandler := subscription.NewHandler(subRepo)

	uploadHandler := upload.NewHandler(store, assetRepo, processor, cfg.MaxUploadSize, logger)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"status":  "ok",
			"storage": store.ServiceStatus(),
		})
	})

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
				r.Get("/profile", authHandler.Profile)
			})
		})

		r.Get("/subscriptions/plans", subHandler.Plans)

		// Protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))

			r.Route("/projects", func(r chi.Router) {
				r.Post("/", projectHandler.Create)
				r.Get("/", projectHandler.List)
				r.Get("/{id}", projectHandler.Get)
				r.Put("/{id}", projectHandler.Update)
				r.Delete("/{id}", projectHandler.Delete)
			})

			r.Route("/editor", func(r chi.Router) {
				r.Post("/{id}/process", projectHandler.Process)
				r.Post("/{id}/render", projectHandler.Render)
				r.Post("/{id}/export", projectHandler.Export)
			})

			r.Route("/assets", func(r chi.Router) {
				r.Get("/", assetHandler.List)
				r.Get("/{id}", assetHandler.Get)
				r.Delete("/{id}", assetHandler.Delete)
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Post("/subscribe", subHandler.Subscribe)
				r.Get("/current", subHandler.Current)
			})

			r.Route("/upload", func(r chi.Router) {
				r.Post("/", uploadHandler.Upload)
				r.Delete("/file", uploadHandler.DeleteFile)
				r.Get("/signed-url", uploadHandler.SignedURL)
				r.Get("/files", uploadHandler.Files)
			})

			r.Route("/storage", func(r chi.Router) {
				r.Get("/status", uploadHandler.StorageStatus)
				r.Get("/info", uploadHandler.StorageInfo)
			})
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.UploadTimeout,
		WriteTimeout: cfg.UploadTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	logger.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
