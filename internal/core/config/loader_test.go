package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vietddude/dexagg/internal/core/domain"
	"github.com/vietddude/dexagg/internal/infra/httpapi"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DEXAGG_KEY", "secret-key")

	path := writeConfig(t, `
api:
  api_key: ${TEST_DEXAGG_KEY}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.APIKey != "secret-key" {
		t.Errorf("Expected api key secret-key, got %s", cfg.API.APIKey)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.API.BaseURL != httpapi.DefaultBaseURL {
		t.Errorf("Expected default base URL, got %s", cfg.API.BaseURL)
	}
	if cfg.Cache.Store != StoreMemory {
		t.Errorf("Expected memory store, got %s", cfg.Cache.Store)
	}
	if cfg.Executor.Workers != 32 {
		t.Errorf("Expected 32 workers, got %d", cfg.Executor.Workers)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug level, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != LogFormatText {
		t.Errorf("Expected text format, got %s", cfg.Logging.Format)
	}
}

func TestLoad_CacheTTLAndExecutor(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
cache:
  store: memory
  ttl:
    price: 10s
    token: 2h
executor:
  workers: 4
  coalesce: true
  timeout: 5s
api:
  retry:
    max_attempts: 3
    initial_delay: 100ms
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cfg.Cache.TTL[domain.ResourcePrice]; got != 10*time.Second {
		t.Errorf("Expected price ttl 10s, got %v", got)
	}
	if got := cfg.Cache.TTL[domain.ResourceToken]; got != 2*time.Hour {
		t.Errorf("Expected token ttl 2h, got %v", got)
	}
	if cfg.Executor.Workers != 4 || !cfg.Executor.Coalesce || cfg.Executor.Timeout != 5*time.Second {
		t.Errorf("Unexpected executor config %+v", cfg.Executor)
	}
	if cfg.API.Retry.MaxAttempts != 3 || cfg.API.Retry.InitialDelay != 100*time.Millisecond {
		t.Errorf("Unexpected retry config %+v", cfg.API.Retry)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown store", "cache:\n  store: memcached\n"},
		{"redis without url", "cache:\n  store: redis\n"},
		{"negative ttl", "cache:\n  ttl:\n    price: -1s\n"},
		{"unknown log format", "logging:\n  format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestDefault_ReadsAPIKeyFromEnv(t *testing.T) {
	t.Setenv("DEXAGG_API_KEY", "from-env")

	cfg := Default()
	if cfg.API.APIKey != "from-env" {
		t.Errorf("Expected from-env, got %s", cfg.API.APIKey)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config must validate: %v", err)
	}
}

func TestLoad_APIKeyFallsBackToEnv(t *testing.T) {
	t.Setenv(APIKeyEnv, "fallback-key")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.APIKey != "fallback-key" {
		t.Errorf("Expected fallback-key, got %s", cfg.API.APIKey)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
}
