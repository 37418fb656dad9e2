package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"coldemail-backend/internal/emails"
	"coldemail-backend/internal/llm"
	"coldemail-backend/internal/llm/langchain"
	openai "coldemail-backend/internal/llm/openai"
	"coldemail-backend/internal/quota"
	"coldemail-backend/internal/services/health"
	"coldemail-backend/internal/shared/config"
	"coldemail-backend/internal/shared/server"
	"coldemail-backend/internal/shared/storage/db"
	"coldemail-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config       config.Config
	Router       *gin.Engine
	DB           *sql.DB
	Redis        *redis.Client
	LLM          llm.Client
	Limiter      *quota.Limiter
	EmailService *emails.Service
	EmailHandler *emails.Handler
}

// Build prepares dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	client, err := BuildLLM(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, LLM: client}

	store, err := app.buildQuotaStore(ctx)
	if err != nil {
		return nil, err
	}
	app.Limiter = quota.NewLimiter(store, cfg.RateLimitWindow, cfg.RateLimitMax, nil)

	app.EmailService = emails.NewService(client, cfg.LLMProvider)
	app.EmailHandler = emails.NewHandler(app.EmailService, !cfg.IsProduction())

	app.Router = server.NewRouter(server.RouterDeps{
		Config:       cfg,
		EmailHandler: app.EmailHandler,
		Health:       health.NewService(cfg.EnvName, nil),
		Limiter:      app.Limiter,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":              cfg.Env,
		"provider":         cfg.LLMProvider,
		"model":            cfg.LLMModel,
		"rate_limit_store": cfg.RateLimitStore,
		"rate_limit_max":   cfg.RateLimitMax,
		"rate_limit_win_s": cfg.RateLimitWindow.Seconds(),
	})
	return app, nil
}

// Close releases the connections opened by Build.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

// BuildLLM selects the completion provider. A missing OpenAI key outside production
// yields the placeholder client so the service still boots.
func BuildLLM(cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "none":
		return llm.PlaceholderClient{}, nil
	case "ollama":
		return langchain.NewOllama(cfg.OllamaURL, langchain.Options{
			Model:       cfg.LLMModel,
			Temperature: cfg.LLMTemperature,
			MaxTokens:   cfg.LLMMaxTokens,
			Timeout:     cfg.LLMTimeout,
		})
	default:
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			if cfg.IsProduction() {
				return nil, fmt.Errorf("OPENAI_API_KEY is required")
			}
			telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"reason": "OPENAI_API_KEY empty"})
			return llm.PlaceholderClient{}, nil
		}
		return openai.NewClient(openai.Options{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.LLMModel,
			BaseURL:     cfg.OpenAIBaseURL,
			Timeout:     cfg.LLMTimeout,
			Temperature: cfg.LLMTemperature,
			MaxTokens:   cfg.LLMMaxTokens,
		})
	}
}

func (a *App) buildQuotaStore(ctx context.Context) (quota.Store, error) {
	cfg := a.Config
	switch cfg.RateLimitStore {
	case "redis":
		opts, err := redisOptions(cfg)
		if err != nil {
			return a.fallback(err)
		}
		rdb := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return a.fallback(fmt.Errorf("ping redis: %w", err))
		}
		a.Redis = rdb
		return quota.NewRedisStore(rdb), nil
	case "postgres":
		sqlDB, err := connectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return a.fallback(err)
		}
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			if db.DetectProfile() != db.ProfileLambda {
				_ = sqlDB.Close()
			}
			return a.fallback(fmt.Errorf("run migrations: %w", err))
		}
		a.DB = sqlDB
		return quota.NewPGStore(sqlDB), nil
	default:
		return quota.NewMemoryStore(), nil
	}
}

// redisOptions accepts a bare host:port or a redis:// / rediss:// URL. Credentials and
// database index in the URL win; REDIS_PASSWORD and REDIS_DB fill what the URL omits.
func redisOptions(cfg config.Config) (*redis.Options, error) {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if !strings.Contains(addr, "://") {
		return &redis.Options{Addr: addr, Password: cfg.RedisPassword, DB: cfg.RedisDB}, nil
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_ADDR: %w", err)
	}
	if opts.Password == "" {
		opts.Password = cfg.RedisPassword
	}
	u, _ := url.Parse(addr)
	if u != nil && strings.Trim(u.Path, "/") == "" {
		opts.DB = cfg.RedisDB
	}
	return opts, nil
}

// fallback keeps dev-like environments running on the memory store.
func (a *App) fallback(err error) (quota.Store, error) {
	if !isDevLike(a.Config.Env) {
		return nil, err
	}
	telemetry.Warn("bootstrap.quota_store_fallback", map[string]any{
		"store": a.Config.RateLimitStore,
		"error": err,
	})
	return quota.NewMemoryStore(), nil
}

func connectDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	profile := db.DetectProfile()
	pool := db.PoolFor(profile).WithEnv(nil)
	if profile == db.ProfileLambda {
		return db.Shared(ctx, databaseURL, pool)
	}
	return db.Open(ctx, databaseURL, pool)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
