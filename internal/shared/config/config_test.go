package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	yamlBody := `
server:
  port: "9000"
  env: staging
  corsOrigins: ["https://app.example.com"]
completion:
  provider: ollama
  model: llama3
  temperature: 0.2
rateLimit:
  window: 1m
  max: 5
  store: redis
`
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7000")
	t.Setenv("RATE_LIMIT_MAX", "7")

	cfg := Load()

	if cfg.Port != "7000" {
		t.Fatalf("expected env port 7000, got %q", cfg.Port)
	}
	if cfg.Env != "staging" {
		t.Fatalf("expected staging env from file, got %q", cfg.Env)
	}
	if cfg.LLMProvider != "ollama" || cfg.LLMModel != "llama3" {
		t.Fatalf("unexpected provider/model %q/%q", cfg.LLMProvider, cfg.LLMModel)
	}
	if cfg.LLMTemperature != 0.2 {
		t.Fatalf("expected temperature 0.2, got %v", cfg.LLMTemperature)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Fatalf("expected 1m window, got %v", cfg.RateLimitWindow)
	}
	if cfg.RateLimitMax != 7 {
		t.Fatalf("expected env max 7, got %d", cfg.RateLimitMax)
	}
	if cfg.RateLimitStore != "redis" {
		t.Fatalf("expected redis store, got %q", cfg.RateLimitStore)
	}
	if len(cfg.CORSAllowOrigin) != 1 || cfg.CORSAllowOrigin[0] != "https://app.example.com" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowOrigin)
	}
}

func TestApplyEnvDefaults(t *testing.T) {
	cfg := defaults()
	applyEnv(&cfg, func(string) string { return "" })

	if cfg.RateLimitWindow != 15*time.Minute || cfg.RateLimitMax != 50 {
		t.Fatalf("unexpected rate limit defaults %v/%d", cfg.RateLimitWindow, cfg.RateLimitMax)
	}
	if cfg.BodyLimitBytes != 10240 {
		t.Fatalf("expected 10KiB body limit, got %d", cfg.BodyLimitBytes)
	}
	if cfg.LLMMaxTokens != 1000 || cfg.LLMTemperature != 0.7 {
		t.Fatalf("unexpected completion defaults %d/%v", cfg.LLMMaxTokens, cfg.LLMTemperature)
	}
}

func TestApplyEnvParsesValues(t *testing.T) {
	env := map[string]string{
		"NODE_ENV":          "prod",
		"CORS_ORIGINS":      " http://a.test , ,http://b.test",
		"RATE_LIMIT_WINDOW": "90",
		"LLM_PROVIDER":      "nonsense",
		"RATE_LIMIT_STORE":  "pg",
	}
	cfg := defaults()
	applyEnv(&cfg, func(k string) string { return env[k] })

	if !cfg.IsProduction() {
		t.Fatalf("expected production env, got %q", cfg.Env)
	}
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowOrigin)
	}
	if cfg.RateLimitWindow != 90*time.Second {
		t.Fatalf("expected 90s window, got %v", cfg.RateLimitWindow)
	}
	if cfg.LLMProvider != "openai" {
		t.Fatalf("expected unknown provider to fall back to openai, got %q", cfg.LLMProvider)
	}
	if cfg.RateLimitStore != "postgres" {
		t.Fatalf("expected postgres store, got %q", cfg.RateLimitStore)
	}
}

func TestApplyEnvKeepsEnvironmentName(t *testing.T) {
	tests := []struct {
		raw      string
		wantEnv  string
		wantName string
	}{
		{raw: "development", wantEnv: "dev", wantName: "development"},
		{raw: "test", wantEnv: "test", wantName: "test"},
		{raw: "prod", wantEnv: "production", wantName: "prod"},
	}
	for _, tt := range tests {
		cfg := defaults()
		applyEnv(&cfg, func(k string) string {
			if k == "ENV" {
				return tt.raw
			}
			return ""
		})
		if cfg.Env != tt.wantEnv || cfg.EnvName != tt.wantName {
			t.Fatalf("ENV=%q: got env %q name %q", tt.raw, cfg.Env, cfg.EnvName)
		}
	}

	cfg := defaults()
	applyEnv(&cfg, func(string) string { return "" })
	if cfg.EnvName != "development" {
		t.Fatalf("expected development default name, got %q", cfg.EnvName)
	}
}

func TestApplyEnvTrustedProxies(t *testing.T) {
	cfg := defaults()
	if len(cfg.TrustedProxies) != 0 {
		t.Fatalf("expected no trusted proxies by default, got %v", cfg.TrustedProxies)
	}
	applyEnv(&cfg, func(k string) string {
		if k == "TRUSTED_PROXIES" {
			return "10.0.0.0/8, 192.168.1.1"
		}
		return ""
	})
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[0] != "10.0.0.0/8" || cfg.TrustedProxies[1] != "192.168.1.1" {
		t.Fatalf("unexpected trusted proxies %v", cfg.TrustedProxies)
	}
}
