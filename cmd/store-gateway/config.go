package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/wighaven/smartcache/pkg/cache"
	"github.com/wighaven/smartcache/pkg/logging"
)

// envPrefix scopes the gateway's environment variables:
// GATEWAY_PORT -> port, GATEWAY_CACHE_MAX_ITEMS -> cache_max_items.
const envPrefix = "GATEWAY_"

// Config holds the gateway configuration. Defaults come from the
// struct provider, overridden by GATEWAY_* environment variables.
type Config struct {
	// Port the HTTP server listens on.
	Port string `koanf:"port"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`

	// LogPretty enables human-readable console logs.
	LogPretty bool `koanf:"log_pretty"`

	// RedisURL enables the Redis invalidation publisher when non-empty.
	RedisURL string `koanf:"redis_url"`

	// CacheMaxItems bounds resident cache entries.
	CacheMaxItems int `koanf:"cache_max_items"`

	// CacheMaxSizeBytes bounds estimated resident cache size.
	CacheMaxSizeBytes int `koanf:"cache_max_size_bytes"`

	// CacheTouchOnRead bumps LRU recency on reads when true.
	CacheTouchOnRead bool `koanf:"cache_touch_on_read"`

	// StatsInterval is how often a stats snapshot is logged.
	// Zero disables the periodic log.
	StatsInterval time.Duration `koanf:"stats_interval"`
}

func defaultConfig() Config {
	return Config{
		Port:              "8080",
		LogLevel:          string(logging.LevelInfo),
		LogPretty:         false,
		RedisURL:          "",
		CacheMaxItems:     cache.DefaultMaxItems,
		CacheMaxSizeBytes: cache.DefaultMaxSizeBytes,
		CacheTouchOnRead:  false,
		StatsInterval:     time.Minute,
	}
}

// envTransformFunc maps environment variable names to config keys:
// GATEWAY_LOG_LEVEL -> log_level.
func envTransformFunc(key string) string {
	return strings.ToLower(strings.TrimPrefix(key, envPrefix))
}

// loadConfig merges defaults with GATEWAY_* environment variables.
func loadConfig() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Port == "" {
		return Config{}, fmt.Errorf("port cannot be empty")
	}
	if cfg.CacheMaxItems <= 0 || cfg.CacheMaxSizeBytes <= 0 {
		return Config{}, fmt.Errorf("cache bounds must be positive")
	}

	return cfg, nil
}
