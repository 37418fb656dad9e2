package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML layout. Secrets are never read from the file.
type fileConfig struct {
	Server struct {
		Port           string   `yaml:"port"`
		Env            string   `yaml:"env"`
		CORSOrigins    []string `yaml:"corsOrigins"`
		BodyLimitBytes int64    `yaml:"bodyLimitBytes"`
		TrustedProxies []string `yaml:"trustedProxies"`
	} `yaml:"server"`
	Completion struct {
		Provider       string   `yaml:"provider"`
		Model          string   `yaml:"model"`
		OpenAIBaseURL  string   `yaml:"openaiBaseUrl"`
		OllamaURL      string   `yaml:"ollamaUrl"`
		TimeoutSeconds int      `yaml:"timeoutSeconds"`
		Temperature    *float64 `yaml:"temperature"`
		MaxTokens      int      `yaml:"maxTokens"`
	} `yaml:"completion"`
	RateLimit struct {
		Window string `yaml:"window"`
		Max    int    `yaml:"max"`
		Store  string `yaml:"store"`
	} `yaml:"rateLimit"`
	Redis struct {
		Addr string `yaml:"addr"`
		DB   int    `yaml:"db"`
	} `yaml:"redis"`
}

func readFile(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse yaml: %w", err)
	}
	return fc, nil
}

func (fc fileConfig) apply(cfg *Config) {
	if v := strings.TrimSpace(fc.Server.Port); v != "" {
		cfg.Port = v
	}
	if v := strings.TrimSpace(fc.Server.Env); v != "" {
		cfg.Env = normalizeEnv(v)
		cfg.EnvName = v
	}
	if proxies := trimAll(fc.Server.TrustedProxies); len(proxies) > 0 {
		cfg.TrustedProxies = proxies
	}
	if origins := trimAll(fc.Server.CORSOrigins); len(origins) > 0 {
		cfg.CORSAllowOrigin = origins
	}
	if fc.Server.BodyLimitBytes > 0 {
		cfg.BodyLimitBytes = fc.Server.BodyLimitBytes
	}

	c := fc.Completion
	if v := strings.TrimSpace(c.Provider); v != "" {
		cfg.LLMProvider = normalizeProvider(v)
	}
	if v := strings.TrimSpace(c.Model); v != "" {
		cfg.LLMModel = v
	}
	if v := strings.TrimSpace(c.OpenAIBaseURL); v != "" {
		cfg.OpenAIBaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(c.OllamaURL); v != "" {
		cfg.OllamaURL = v
	}
	if c.TimeoutSeconds > 0 {
		cfg.LLMTimeout = time.Duration(c.TimeoutSeconds) * time.Second
	}
	if c.Temperature != nil && *c.Temperature >= 0 {
		cfg.LLMTemperature = *c.Temperature
	}
	if c.MaxTokens > 0 {
		cfg.LLMMaxTokens = c.MaxTokens
	}

	rl := fc.RateLimit
	if d, ok := parseWindow(strings.TrimSpace(rl.Window)); ok {
		cfg.RateLimitWindow = d
	}
	if rl.Max > 0 {
		cfg.RateLimitMax = rl.Max
	}
	if v := strings.TrimSpace(rl.Store); v != "" {
		cfg.RateLimitStore = normalizeStore(v)
	}

	if v := strings.TrimSpace(fc.Redis.Addr); v != "" {
		cfg.RedisAddr = v
	}
	if fc.Redis.DB > 0 {
		cfg.RedisDB = fc.Redis.DB
	}
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
