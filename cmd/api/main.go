// Command api serves the Premium Homes REST API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"premium-homes/internal/auth"
	"premium-homes/internal/cleanup"
	"premium-homes/internal/config"
	"premium-homes/internal/database"
	"premium-homes/internal/handlers"
	"premium-homes/internal/ratelimit"
	"premium-homes/internal/scheduler"
	"premium-homes/internal/search"
)

func main() {
	configPath := getEnv("CONFIG_PATH", "config/config.yaml")
	appConfig, loadErr := config.LoadConfig(configPath)
	if loadErr != nil {
		appConfig = config.DefaultConfig()
	}
	appConfig.ApplyEnv()

	logger := newLogger(appConfig.Logging.Level)
	defer func() { _ = logger.Sync() }()
	if loadErr != nil {
		logger.Warn("failed to load config, using defaults", zap.String("path", configPath), zap.Error(loadErr))
	} else {
		logger.Info("configuration loaded", zap.String("path", configPath))
	}
	if appConfig.Auth.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("using the built-in JWT secret; set JWT_SECRET in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	host, port, user, password, name, sslmode := appConfig.DatabaseParams()
	store, err := database.Open(database.Config{
		Type:     appConfig.Database.Type,
		DataDir:  appConfig.Database.DataDir,
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		Name:     name,
		SSLMode:  sslmode,
	})
	if err != nil {
		logger.Fatal("failed to open database", zap.String("type", appConfig.Database.Type), zap.Error(err))
	}
	defer store.Close()
	logger.Info("database ready", zap.String("type", appConfig.Database.Type))

	authSvc := auth.NewService(store, auth.NewTokenManager(appConfig.Auth.JWTSecret), logger)

	var searchClient *search.SearchClient
	if appConfig.Search.Meilisearch.Host != "" {
		searchClient = search.NewSearchClient(appConfig.Search.Meilisearch.Host, appConfig.Search.Meilisearch.APIKey)
		if err := searchClient.InitIndex(); err != nil {
			logger.Warn("failed to initialize search index", zap.Error(err))
		} else if properties, err := store.ListProperties(ctx); err == nil {
			if err := searchClient.Reindex(properties); err != nil {
				logger.Warn("initial reindex failed", zap.Error(err))
			}
		}
	}

	cleanupSvc := cleanup.NewService(store, appConfig.Uploads.Dir, logger)

	// a nil *SearchClient must not reach the interfaces below
	var indexer handlers.Indexer
	var reindexer scheduler.Reindexer
	if searchClient != nil {
		indexer = searchClient
		reindexer = searchClient
	}

	sched := scheduler.NewScheduler(store, reindexer, cleanupSvc, appConfig.Scheduler, logger)
	if err := sched.Start(); err != nil {
		logger.Warn("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	rl := appConfig.RateLimit
	loginLimiter := ratelimit.NewRateLimiter(rl.RequestsPerMinute, rl.RequestsPerHour, rl.Enabled)
	logger.Info("login rate limiter initialized",
		zap.Int("per_minute", rl.RequestsPerMinute),
		zap.Int("per_hour", rl.RequestsPerHour),
		zap.Bool("enabled", rl.Enabled))
	go pruneLimiter(ctx, loginLimiter)

	if appConfig.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.Dependencies{
		Store:          store,
		Auth:           authSvc,
		Indexer:        indexer,
		Scheduler:      sched,
		Cleanup:        cleanupSvc,
		LoginLimiter:   loginLimiter,
		Logger:         logger,
		UploadDir:      appConfig.Uploads.Dir,
		MaxUploadBytes: appConfig.Uploads.MaxUploadBytes(),
		MaxUploadFiles: appConfig.Uploads.MaxFiles,
		AllowedOrigins: appConfig.Server.AllowedOrigins,
		LogRequests:    appConfig.Logging.LogRequests,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", appConfig.Server.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// newLogger returns a development logger for level "debug" and a production
// logger at the given level otherwise.
func newLogger(level string) *zap.Logger {
	if level == "debug" {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
	}
	cfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// pruneLimiter drops idle login limiter entries until ctx ends.
func pruneLimiter(ctx context.Context, rl *ratelimit.RateLimiter) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Prune()
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
