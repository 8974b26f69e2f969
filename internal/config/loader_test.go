package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/mcoot/raceboard/internal/config"
	"github.com/mcoot/raceboard/internal/model"
)

var configEnvVars = []string{
	"RACEBOARD_CONFIG", "PORT", "LOG_LEVEL", "STORAGE_TYPE", "MONGO_URI", "DB_NAME",
	"COLLECTION_NAME", "REDIS_URL", "SQLITE_PATH", "SCORE_POLICY",
	"LEADERBOARD_LIMIT", "STORE_TIMEOUT", "EXPOSE_RECORD_ID",
}

func clearConfigEnvVars() {
	for _, name := range configEnvVars {
		_ = os.Unsetenv(name)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When MONGO_URI is not set for the default backend", func() {
			_, err := config.Load()

			convey.Convey("Then loading fails with a missing configuration error", func() {
				convey.So(errors.Is(err, config.ErrConfigurationMissing), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When only MONGO_URI is set", func() {
			_ = os.Setenv("MONGO_URI", "mongodb://localhost:27017")

			cfg, err := config.Load()

			convey.Convey("Then the remaining defaults apply", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.StorageType, convey.ShouldEqual, config.StorageTypeMongo)
				convey.So(cfg.DBName, convey.ShouldEqual, "RaceGame")
				convey.So(cfg.CollectionName, convey.ShouldEqual, "Leaderboard")
				convey.So(cfg.Port, convey.ShouldEqual, 8080)
				convey.So(cfg.Addr(), convey.ShouldEqual, ":8080")
				convey.So(cfg.Policy(), convey.ShouldEqual, model.PolicyByPlayer)
				convey.So(cfg.LeaderboardLimit, convey.ShouldEqual, 1000)
				convey.So(cfg.StoreTimeout, convey.ShouldEqual, 5*time.Second)
				convey.So(cfg.ExposeRecordID, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When environment variables override defaults", func() {
			_ = os.Setenv("STORAGE_TYPE", "Redis")
			_ = os.Setenv("REDIS_URL", "redis://localhost:6379/0")
			_ = os.Setenv("PORT", "9090")
			_ = os.Setenv("SCORE_POLICY", "by_player_and_car")
			_ = os.Setenv("LEADERBOARD_LIMIT", "50")
			_ = os.Setenv("STORE_TIMEOUT", "250ms")
			_ = os.Setenv("EXPOSE_RECORD_ID", "true")

			cfg, err := config.Load()

			convey.Convey("Then the overrides are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.StorageType, convey.ShouldEqual, config.StorageTypeRedis)
				convey.So(cfg.RedisURL, convey.ShouldEqual, "redis://localhost:6379/0")
				convey.So(cfg.Port, convey.ShouldEqual, 9090)
				convey.So(cfg.Policy(), convey.ShouldEqual, model.PolicyByPlayerAndCar)
				convey.So(cfg.LeaderboardLimit, convey.ShouldEqual, 50)
				convey.So(cfg.StoreTimeout, convey.ShouldEqual, 250*time.Millisecond)
				convey.So(cfg.ExposeRecordID, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := filepath.Join(t.TempDir(), "raceboard.yaml")
			content := "storage_type: sqlite\nsqlite_path: /tmp/scores.db\nscore_policy: append_only\nport: 7000\n"
			convey.So(os.WriteFile(path, []byte(content), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("RACEBOARD_CONFIG", path)
			_ = os.Setenv("PORT", "7001")

			cfg, err := config.Load()

			convey.Convey("Then file values apply and env still wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.StorageType, convey.ShouldEqual, config.StorageTypeSQLite)
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "/tmp/scores.db")
				convey.So(cfg.Policy(), convey.ShouldEqual, model.PolicyAppendOnly)
				convey.So(cfg.Port, convey.ShouldEqual, 7001)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("RACEBOARD_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load()

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a blank variable is exported", func() {
			_ = os.Setenv("MONGO_URI", "mongodb://localhost:27017")
			_ = os.Setenv("DB_NAME", "  ")

			cfg, err := config.Load()

			convey.Convey("Then the default is kept", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DBName, convey.ShouldEqual, "RaceGame")
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given a valid in-memory config", t, func() {
		cfg := config.New()
		cfg.StorageType = config.StorageTypeMemory
		convey.So(cfg.Validate(), convey.ShouldBeNil)

		convey.Convey("When the policy is unknown", func() {
			cfg.ScorePolicy = "keep_max"
			convey.Convey("Then it is invalid", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the leaderboard limit exceeds the cap", func() {
			cfg.LeaderboardLimit = 1500
			convey.Convey("Then it is invalid", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the port is out of range", func() {
			cfg.Port = 70000
			convey.Convey("Then it is invalid", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the storage type is unknown", func() {
			cfg.StorageType = "postgres"
			convey.Convey("Then it is invalid", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When sqlite is selected without a path", func() {
			cfg.StorageType = config.StorageTypeSQLite
			convey.Convey("Then configuration is missing", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrConfigurationMissing), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the log level is unknown", func() {
			cfg.LogLevel = "verbose"
			convey.Convey("Then it is invalid", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
