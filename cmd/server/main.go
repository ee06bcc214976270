// FoldScape API server: serves the protein-folding repository landscape
// dataset behind a query/aggregation API, with an admin surface that
// re-collects metadata from GitHub and recomputes categories and star
// velocity.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/foldscape/foldscape/internal/cache"
	"github.com/foldscape/foldscape/internal/classify"
	"github.com/foldscape/foldscape/internal/collector"
	"github.com/foldscape/foldscape/internal/dataset"
	"github.com/foldscape/foldscape/internal/history"
	"github.com/foldscape/foldscape/internal/monitoring"
	"github.com/foldscape/foldscape/internal/ratelimit"
	"github.com/foldscape/foldscape/internal/security"
	"github.com/foldscape/foldscape/internal/validate"
)

// Config collects every environment-driven setting. Defaults are chosen
// so a bare `go run ./cmd/server` against a checked-out data/ directory
// works without any .env file.
type Config struct {
	Port              string
	DataDir           string
	CategoriesPath    string
	GitHubToken       string
	AdminTokenSecret  string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	CacheTTL          time.Duration
	TrendingThreshold int
	AllowedOrigins    []string
}

func loadConfig() Config {
	dataDir := getEnvOrDefault("DATA_DIR", "data")

	return Config{
		Port:              getEnvOrDefault("PORT", "8090"),
		DataDir:           dataDir,
		CategoriesPath:    getEnvOrDefault("CATEGORIES_PATH", "config/categories.json"),
		GitHubToken:       getEnvOrDefault("GITHUB_TOKEN", ""),
		AdminTokenSecret:  getEnvOrDefault("ADMIN_TOKEN_SECRET", ""),
		RedisAddr:         getEnvOrDefault("REDIS_URL", ""),
		RedisPassword:     getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:           getEnvIntOrDefault("REDIS_DB", 0),
		CacheTTL:          getEnvDurationOrDefault("CACHE_TTL", 5*time.Minute),
		TrendingThreshold: getEnvIntOrDefault("TRENDING_THRESHOLD", 0),
		AllowedOrigins:    splitAndTrim(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", value, "default", defaultValue)
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", value, "default", defaultValue)
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// application bundles the wired services behind the HTTP handlers so
// tests can assemble one against temp directories and fake upstreams.
type application struct {
	cfg         Config
	store       *dataset.Store
	history     *history.Store
	categorizer *classify.Categorizer
	collector   *collector.Collector
	cache       *cache.Cache
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	limiter     *ratelimit.RateLimiter
	auth        *security.AdminAuth
	security    *security.SecurityMiddleware
}

func newApplication(cfg Config) (*application, func(), error) {
	store, err := dataset.NewStore(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	histStore, err := history.NewStore(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history store: %w", err)
	}

	classifyCfg, err := classify.LoadConfig(cfg.CategoriesPath)
	if err != nil {
		histStore.Close()
		return nil, nil, err
	}

	// Validation failures are warnings at startup: a dataset with a few
	// bad records should still serve, the admin validate endpoint shows
	// the same issues on demand.
	records := store.Records()
	for _, issue := range validate.Collection(records) {
		slog.Warn("Dataset validation issue", "issue", issue.String())
	}
	validate.Summarize(records)

	metrics := monitoring.NewMetrics()
	logger := monitoring.NewLogger()

	redisClient, err := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Warn("Redis unavailable, rate limiting falls back to in-memory", "error", err)
		redisClient, _ = ratelimit.NewRedisClient("", "", 0)
	}

	secConfig := security.DefaultSecurityConfig()
	secConfig.AllowedOrigins = cfg.AllowedOrigins

	app := &application{
		cfg:         cfg,
		store:       store,
		history:     histStore,
		categorizer: classify.New(classifyCfg),
		collector:   collector.New(cfg.GitHubToken, collector.WithMetrics(metrics)),
		cache:       cache.NewCache(cfg.CacheTTL),
		metrics:     metrics,
		logger:      logger,
		limiter:     ratelimit.NewRateLimiter(redisClient, ratelimit.DefaultConfig(), metrics),
		auth:        security.NewAdminAuth(cfg.AdminTokenSecret),
		security:    security.NewSecurityMiddleware(secConfig),
	}

	cleanup := func() {
		if err := histStore.Close(); err != nil {
			slog.Error("Failed to close history store", "error", err)
		}
		if err := redisClient.Close(); err != nil {
			slog.Error("Failed to close redis client", "error", err)
		}
	}
	return app, cleanup, nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment")
	}

	cfg := loadConfig()
	if cfg.AdminTokenSecret == "" {
		slog.Warn("ADMIN_TOKEN_SECRET not set, admin endpoints are disabled")
	}

	app, cleanup, err := newApplication(cfg)
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	slog.Info("Dataset loaded",
		"repos", app.store.Len(),
		"collected_at", app.store.Metadata().CollectedAt,
		"data_dir", cfg.DataDir)

	gin.SetMode(gin.ReleaseMode)
	router := app.setupRouter()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("FoldScape API listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Forced shutdown", "error", err)
	}
	slog.Info("Server stopped")
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowOrigins = origins
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	config.MaxAge = 12 * time.Hour
	return config
}
