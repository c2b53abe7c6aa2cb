// Unfall-Notdienst Rump - lead intake chat server
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
	"github.com/rump-sv/unfallhilfe/internal/api"
	"github.com/rump-sv/unfallhilfe/internal/config"
	"github.com/rump-sv/unfallhilfe/internal/convlog"
	"github.com/rump-sv/unfallhilfe/internal/dialogue"
	"github.com/rump-sv/unfallhilfe/internal/identity"
	"github.com/rump-sv/unfallhilfe/internal/intake"
	"github.com/rump-sv/unfallhilfe/internal/middleware"
	"github.com/rump-sv/unfallhilfe/internal/notify"
	"github.com/rump-sv/unfallhilfe/internal/store"
	"github.com/rump-sv/unfallhilfe/web"
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

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	if err := repo.Ping(ctx); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	conversationLogger, err := convlog.New(convlog.Config{
		Enabled:   cfg.ConversationLog.Enabled,
		Dir:       cfg.ConversationLog.Dir,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := conversationLogger.Close(); closeErr != nil {
			slog.Error("Failed to close conversation logger", "error", closeErr)
		}
	}()

	model, err := dialogue.NewGenAI(ctx, dialogue.GenAIConfig{
		APIKey:     cfg.Model.APIKey,
		Candidates: cfg.Model.Candidates,
		Timeout:    cfg.Model.Timeout,
	}, logger)
	if err != nil {
		if errors.Is(err, dialogue.ErrNoModel) {
			slog.Error("No usable model among candidates", "candidates", cfg.Model.Candidates, "error", err)
		} else {
			slog.Error("Failed to initialize model client", "error", err)
		}
		os.Exit(1)
	}
	slog.Info("Model client ready", "model", model.Model())

	mailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Sender,
		Password: cfg.Mail.Password,
		Timeout:  cfg.Mail.Timeout,
	})
	if err != nil {
		slog.Error("Failed to initialize mailer", "error", err)
		os.Exit(1)
	}
	notifier := notify.New(mailer, cfg.Mail.Sender, cfg.Mail.Recipient, cfg.Mail.Subject, logger)

	// Initialize services.
	controller := intake.NewController(model, notifier, repo, conversationLogger, logger)
	sessions := intake.NewManager(controller)

	limiter := api.NewRateLimiter(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowDuration)
	defer limiter.Stop()

	// Initialize handlers.
	healthHandler := api.NewHealthHandler(repo, sessions, model.Model())
	chatHandler := api.NewChatHandler(sessions, limiter, cfg.MaxRequestBodySize, cfg.AllowedOrigins)
	leadsHandler := api.NewLeadsHandler(repo, cfg.AdminToken)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	// Public routes.
	healthHandler.RegisterHealth(r)
	chatHandler.RegisterRoutes(r)
	leadsHandler.RegisterRoutes(r)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// A single turn may wait on the model and then on SMTP.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Model.Timeout + cfg.Mail.Timeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	intake.StartReaper(ctx, sessions, repo, intake.ReaperConfig{
		SessionTTL: cfg.SessionTTL,
		VisitorTTL: cfg.VisitorTTL,
	})

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
