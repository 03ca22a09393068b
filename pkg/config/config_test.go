package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Errorf("server address = %q, want :8080", cfg.Server.Address)
	}
	if cfg.Server.Env != "dev" {
		t.Errorf("env = %q, want dev", cfg.Server.Env)
	}
	if cfg.DB.Port != 5432 {
		t.Errorf("db port = %d, want 5432", cfg.DB.Port)
	}
	if cfg.OpenRouter.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("openrouter base url = %q", cfg.OpenRouter.BaseURL)
	}
	if cfg.OpenRouter.DefaultModel != "openai/gpt-3.5-turbo" {
		t.Errorf("default model = %q", cfg.OpenRouter.DefaultModel)
	}
	if cfg.RateLimit.Limit != 10 || cfg.RateLimit.WindowSeconds != 60 {
		t.Errorf("rate limit defaults = (%d, %d), want (10, 60)",
			cfg.RateLimit.Limit, cfg.RateLimit.WindowSeconds)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BLOGPULSE_SERVER_ADDRESS", ":9000")
	t.Setenv("BLOGPULSE_OPENROUTER_APIKEY", "sk-test")
	t.Setenv("BLOGPULSE_DB_PORT", "5544")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Address != ":9000" {
		t.Errorf("server address = %q, want :9000", cfg.Server.Address)
	}
	if cfg.OpenRouter.APIKey != "sk-test" {
		t.Errorf("api key = %q, want sk-test", cfg.OpenRouter.APIKey)
	}
	if cfg.DB.Port != 5544 {
		t.Errorf("db port = %d, want 5544", cfg.DB.Port)
	}
}
