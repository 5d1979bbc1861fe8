package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	specpkg "github.com/daap14/reportkit/api"
	"github.com/daap14/reportkit/internal/api"
	"github.com/daap14/reportkit/internal/config"
	"github.com/daap14/reportkit/internal/database"
	"github.com/daap14/reportkit/internal/identity"
	"github.com/daap14/reportkit/internal/report"
	"github.com/daap14/reportkit/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	deps := api.RouterDeps{
		IdentityTimeout: cfg.IdentityTimeout,
		Version:         cfg.Version,
		OpenAPISpec:     specpkg.OpenAPISpec,
	}

	repo, db, err := initStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize user store", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		deps.StorePinger = db
	}

	deps.Users = user.NewService(repo, user.ServiceConfig{
		RequestsLimit: cfg.DefaultRequestsLimit,
		StoreTimeout:  cfg.StoreTimeout,
	})

	verifier, err := initVerifier(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize identity verifier", "error", err)
		os.Exit(1)
	}
	deps.Verifier = verifier

	deps.Reports = report.NewChatClient(report.ChatConfig{
		URL:     cfg.LLMAPIURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	}, nil)
	if cfg.LLMAPIKey == "" {
		slog.Warn("LLM_API_KEY not set; report generation will answer 503")
	}

	router := api.NewRouter(deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting reportkit server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// initStore opens PostgreSQL when DATABASE_URL is set and falls back to the
// in-memory repository otherwise.
func initStore(ctx context.Context, cfg *config.Config) (user.Repository, *database.DB, error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set; using in-memory user store")
		return user.NewMemoryRepository(), nil, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := database.New(connectCtx, database.Options{
		URL:             cfg.DatabaseURL,
		MaxConns:        cfg.DBMaxConns,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
	})
	if err != nil {
		return nil, nil, err
	}

	if cfg.RunMigrations {
		if err := db.MigrateUp(); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	return user.NewRepository(db.Pool()), db, nil
}

func initVerifier(ctx context.Context, cfg *config.Config) (*identity.JWTVerifier, error) {
	jwks, err := identity.NewJWKS(ctx, identity.JWKSConfig{
		URL:             cfg.IdentityJWKSURL,
		RefreshInterval: cfg.IdentityJWKSRefresh,
		RefreshTimeout:  cfg.IdentityTimeout,
	})
	if err != nil {
		return nil, err
	}

	return identity.NewJWTVerifier(jwks.Keyfunc, identity.JWTConfig{
		Issuer:            cfg.IdentityIssuer,
		AuthorizedParties: cfg.IdentityAuthorizedParties,
		Leeway:            5 * time.Second,
	})
}
