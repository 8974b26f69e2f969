// Package config defines the service configuration and how it is loaded.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/raceboard/internal/model"
)

// Storage backends
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
	StorageTypeMongo  = "mongo"
)

// MaxLeaderboardLimit is the largest leaderboard a read may return
const MaxLeaderboardLimit = 1000

// Config contains process configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port int `koanf:"port"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// StorageType selects the backend: memory, redis, sqlite or mongo.
	StorageType string `koanf:"storage_type"`

	MongoURI       string `koanf:"mongo_uri"`
	DBName         string `koanf:"db_name"`
	CollectionName string `koanf:"collection_name"`

	RedisURL string `koanf:"redis_url"`

	SQLitePath string `koanf:"sqlite_path"`

	// ScorePolicy is one of by_player, append_only, by_player_and_car.
	ScorePolicy string `koanf:"score_policy"`

	// LeaderboardLimit caps GET /api/leaderboard.
	LeaderboardLimit int `koanf:"leaderboard_limit"`

	// StoreTimeout bounds each storage call.
	StoreTimeout time.Duration `koanf:"store_timeout"`

	// ExposeRecordID includes the internal record id in leaderboard rows.
	ExposeRecordID bool `koanf:"expose_record_id"`
}

// New returns a Config populated with defaults
func New() *Config {
	return &Config{
		Port:             8080,
		LogLevel:         "info",
		StorageType:      StorageTypeMongo,
		DBName:           "RaceGame",
		CollectionName:   "Leaderboard",
		ScorePolicy:      string(model.PolicyByPlayer),
		LeaderboardLimit: MaxLeaderboardLimit,
		StoreTimeout:     5 * time.Second,
	}
}

// Validate checks that the configuration is complete and usable.
// Missing backend settings yield ErrConfigurationMissing; anything else
// unusable yields ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := model.ParsePolicy(c.ScorePolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.LeaderboardLimit <= 0 || c.LeaderboardLimit > MaxLeaderboardLimit {
		return fmt.Errorf("%w: leaderboard_limit must be between 1 and %d", ErrInvalidConfig, MaxLeaderboardLimit)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("%w: store_timeout must be positive", ErrInvalidConfig)
	}

	switch c.StorageType {
	case StorageTypeMemory:
	case StorageTypeMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("%w: MONGO_URI is required", ErrConfigurationMissing)
		}
		if c.DBName == "" || c.CollectionName == "" {
			return fmt.Errorf("%w: DB_NAME and COLLECTION_NAME must not be empty", ErrInvalidConfig)
		}
	case StorageTypeRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: REDIS_URL is required when STORAGE_TYPE=redis", ErrConfigurationMissing)
		}
	case StorageTypeSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: SQLITE_PATH is required when STORAGE_TYPE=sqlite", ErrConfigurationMissing)
		}
	default:
		return fmt.Errorf("%w: unknown storage_type %q", ErrInvalidConfig, c.StorageType)
	}
	return nil
}

// Policy returns the parsed score policy. Call after Validate.
func (c *Config) Policy() model.Policy {
	p, _ := model.ParsePolicy(c.ScorePolicy)
	return p
}

// Addr returns the listen address for Port
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ParseLogLevel maps a level name to a slog.Level
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, s)
}
