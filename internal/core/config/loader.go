package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/dexagg/internal/infra/httpapi"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// APIKeyEnv is read when the configuration carries no API key.
const APIKeyEnv = "DEXAGG_API_KEY"

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *AppConfig) ApplyDefaults() {
	if c.API.APIKey == "" {
		c.API.APIKey = os.Getenv(APIKeyEnv)
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = httpapi.DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.Cache.Store == "" {
		c.Cache.Store = StoreMemory
	}
	if c.Cache.SweepInterval == 0 {
		c.Cache.SweepInterval = time.Minute
	}
	if c.Executor.Workers == 0 {
		c.Executor.Workers = 32
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = LogFormatText
	}
}

// Validate rejects settings that cannot be served.
func (c *AppConfig) Validate() error {
	switch c.Cache.Store {
	case StoreMemory, StoreNone:
	case StoreRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("cache store %q requires redis.url", c.Cache.Store)
		}
	default:
		return fmt.Errorf("unknown cache store %q", c.Cache.Store)
	}
	for class, ttl := range c.Cache.TTL {
		if ttl < 0 {
			return fmt.Errorf("negative ttl for resource class %q", class)
		}
	}
	switch c.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	if c.Executor.Workers < 0 {
		return fmt.Errorf("executor.workers must not be negative")
	}
	return nil
}
