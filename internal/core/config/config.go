package config

import (
	"time"

	"github.com/vietddude/dexagg/internal/core/domain"
	"github.com/vietddude/dexagg/internal/infra/cache"
	"github.com/vietddude/dexagg/internal/infra/httpapi"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	API      httpapi.Config    `yaml:"api"`
	Cache    CacheConfig       `yaml:"cache"`
	Redis    cache.RedisConfig `yaml:"redis"`
	Executor ExecutorConfig    `yaml:"executor"`
	Logging  LoggingConfig     `yaml:"logging"`
	Server   ServerConfig      `yaml:"server"`
}

// Cache store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreNone   = "none"
)

// CacheConfig selects the response cache backend and its TTLs.
type CacheConfig struct {
	Store         string                                 `yaml:"store"` // memory, redis, none
	TTL           map[domain.ResourceClass]time.Duration `yaml:"ttl"`
	SweepInterval time.Duration                          `yaml:"sweep_interval"`
}

// ExecutorConfig holds execution core settings.
type ExecutorConfig struct {
	Workers  int           `yaml:"workers"`
	Coalesce bool          `yaml:"coalesce"`
	Timeout  time.Duration `yaml:"timeout"` // default for blocking calls, 0 = none
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
