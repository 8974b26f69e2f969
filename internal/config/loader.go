package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnv names the optional YAML config file
const ConfigPathEnv = "RACEBOARD_CONFIG"

// envKeys maps the environment variables the service reads to config keys.
// The names are unprefixed so existing deployments keep working.
var envKeys = map[string]string{
	"PORT":              "port",
	"LOG_LEVEL":         "log_level",
	"STORAGE_TYPE":      "storage_type",
	"MONGO_URI":         "mongo_uri",
	"DB_NAME":           "db_name",
	"COLLECTION_NAME":   "collection_name",
	"REDIS_URL":         "redis_url",
	"SQLITE_PATH":       "sqlite_path",
	"SCORE_POLICY":      "score_policy",
	"LEADERBOARD_LIMIT": "leaderboard_limit",
	"STORE_TIMEOUT":     "store_timeout",
	"EXPOSE_RECORD_ID":  "expose_record_id",
}

// Load builds a Config by layering defaults, optional file, and env vars,
// then validates it.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RACEBOARD_CONFIG is set
//  3. env (PORT, MONGO_URI, ...)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(ConfigPathEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// Empty values are skipped so an exported-but-blank variable does not
	// clobber a file or default value.
	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		name, ok := envKeys[key]
		if !ok || strings.TrimSpace(value) == "" {
			return "", nil
		}
		return name, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg.StorageType = strings.ToLower(strings.TrimSpace(cfg.StorageType))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
