package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"coldemail-backend/internal/shared/telemetry"
)

const defaultConfigFile = "config/app.yaml"

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	EnvName         string
	CORSAllowOrigin []string
	BodyLimitBytes  int64
	TrustedProxies  []string

	LLMProvider    string
	LLMModel       string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OllamaURL      string
	LLMTimeout     time.Duration
	LLMTemperature float64
	LLMMaxTokens   int

	RateLimitWindow time.Duration
	RateLimitMax    int
	RateLimitStore  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DatabaseURL   string
}

// Load reads configuration from the optional YAML file and environment variables.
// Environment variables win over the file; the file wins over defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	cfg := defaults()
	if path != "" {
		fc, err := readFile(path)
		if err != nil {
			telemetry.Warn("config.file_ignored", map[string]any{"path": path, "error": err})
		} else {
			fc.apply(&cfg)
		}
	}
	applyEnv(&cfg, os.Getenv)

	if cfg.Env == "production" && cfg.OpenAIAPIKey == "" && cfg.LLMProvider == "openai" {
		telemetry.Warn("config.missing_openai_key", map[string]any{"env": cfg.Env})
	}
	return cfg
}

func defaults() Config {
	return Config{
		Port:            "8080",
		Env:             "dev",
		EnvName:         "development",
		CORSAllowOrigin: []string{"http://localhost:5173", "http://localhost:5000"},
		BodyLimitBytes:  10 << 10,
		LLMProvider:     "openai",
		LLMModel:        "gpt-4o",
		OpenAIBaseURL:   "https://api.openai.com/v1",
		OllamaURL:       "http://localhost:11434",
		LLMTimeout:      120 * time.Second,
		LLMTemperature:  0.7,
		LLMMaxTokens:    1000,
		RateLimitWindow: 15 * time.Minute,
		RateLimitMax:    50,
		RateLimitStore:  "memory",
		RedisAddr:       "localhost:6379",
	}
}

func applyEnv(cfg *Config, getenv func(string) string) {
	get := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				return v, true
			}
		}
		return "", false
	}

	if v, ok := get("PORT"); ok {
		cfg.Port = v
	}
	if v, ok := get("ENV", "NODE_ENV"); ok {
		cfg.Env = normalizeEnv(v)
		cfg.EnvName = v
	}
	if v, ok := get("CORS_ORIGINS", "CORS_ALLOW_ORIGINS"); ok {
		cfg.CORSAllowOrigin = splitAndTrim(v)
	}
	if v, ok := get("TRUSTED_PROXIES"); ok {
		cfg.TrustedProxies = splitAndTrim(v)
	}
	if v, ok := get("BODY_LIMIT_BYTES"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.BodyLimitBytes = n
		}
	}
	if v, ok := get("LLM_PROVIDER"); ok {
		cfg.LLMProvider = normalizeProvider(v)
	}
	if v, ok := get("LLM_MODEL"); ok {
		cfg.LLMModel = v
	}
	if v, ok := get("OPENAI_API_KEY"); ok {
		cfg.OpenAIAPIKey = v
	}
	if v, ok := get("OPENAI_BASE_URL"); ok {
		cfg.OpenAIBaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := get("OLLAMA_URL"); ok {
		cfg.OllamaURL = v
	}
	if v, ok := get("OPENAI_TIMEOUT_SECONDS", "LLM_TIMEOUT_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LLMTimeout = time.Duration(n) * time.Second
		}
	}
	if v, ok := get("LLM_TEMPERATURE"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.LLMTemperature = f
		}
	}
	if v, ok := get("LLM_MAX_TOKENS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LLMMaxTokens = n
		}
	}
	if v, ok := get("RATE_LIMIT_WINDOW"); ok {
		if d, ok := parseWindow(v); ok {
			cfg.RateLimitWindow = d
		}
	}
	if v, ok := get("RATE_LIMIT_MAX"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitMax = n
		}
	}
	if v, ok := get("RATE_LIMIT_STORE"); ok {
		cfg.RateLimitStore = normalizeStore(v)
	}
	if v, ok := get("REDIS_ADDR"); ok {
		cfg.RedisAddr = v
	}
	if v, ok := get("REDIS_PASSWORD"); ok {
		cfg.RedisPassword = v
	}
	if v, ok := get("REDIS_DB"); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RedisDB = n
		}
	}
	if v, ok := get("DATABASE_URL"); ok {
		cfg.DatabaseURL = v
	}
}

// IsProduction reports whether provider error details must be hidden from callers.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		// godotenv never overrides variables already set in the process.
		_ = godotenv.Load(path)
	}
}

// parseWindow accepts a Go duration ("15m") or a bare number of seconds.
func parseWindow(raw string) (time.Duration, bool) {
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d, true
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return time.Duration(n) * time.Second, true
	}
	return 0, false
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ollama":
		return "ollama"
	case "none", "placeholder":
		return "none"
	default:
		return "openai"
	}
}

func normalizeStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "redis":
		return "redis"
	case "postgres", "pg":
		return "postgres"
	default:
		return "memory"
	}
}
