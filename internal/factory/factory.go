package factory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/raceboard/internal/api"
	"github.com/mcoot/raceboard/internal/config"
	"github.com/mcoot/raceboard/internal/dependencies/clock"
	"github.com/mcoot/raceboard/internal/dependencies/ids"
	"github.com/mcoot/raceboard/internal/metrics"
	"github.com/mcoot/raceboard/internal/services/ledger"
	"github.com/mcoot/raceboard/internal/storage"
	"github.com/mcoot/raceboard/internal/storage/memory"
	mongostorage "github.com/mcoot/raceboard/internal/storage/mongo"
	redisstorage "github.com/mcoot/raceboard/internal/storage/redis"
	sqlitestorage "github.com/mcoot/raceboard/internal/storage/sqlite"
	"github.com/mcoot/raceboard/internal/web"
)

// App contains all wired application components
type App struct {
	Config *config.Config
	Logger *slog.Logger

	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock
	IDs   ids.Generator

	// Services
	Metrics *metrics.Metrics
	Ledger  *ledger.Service
}

// New creates a new application with all dependencies wired.
// cfg must already be validated, as config.Load does.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Use no-op logger if not provided
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := NewStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app, err := newWithDependencies(cfg, store, clock.New(), ids.New(), metrics.New(), logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

// NewStorage creates the storage backend selected by cfg.StorageType
func NewStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case config.StorageTypeMemory:
		return memory.New(), nil
	case config.StorageTypeRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("%w: REDIS_URL", config.ErrConfigurationMissing)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.KeyPrefix = cfg.DBName + ":" + cfg.CollectionName
		return redisstorage.New(redisCfg)
	case config.StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("%w: SQLITE_PATH", config.ErrConfigurationMissing)
		}
		sqliteCfg := sqlitestorage.DefaultConfig()
		sqliteCfg.Path = cfg.SQLitePath
		sqliteCfg.Table = cfg.CollectionName
		return sqlitestorage.New(sqliteCfg)
	case config.StorageTypeMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("%w: MONGO_URI", config.ErrConfigurationMissing)
		}
		mongoCfg := mongostorage.DefaultConfig()
		mongoCfg.URI = cfg.MongoURI
		mongoCfg.Database = cfg.DBName
		mongoCfg.Collection = cfg.CollectionName
		return mongostorage.New(ctx, mongoCfg)
	default:
		return nil, fmt.Errorf("%w: unknown storage_type %q", config.ErrInvalidConfig, cfg.StorageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	cfg *config.Config,
	store storage.Storage,
	clk clock.Clock,
	idGen ids.Generator,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*App, error) {
	ledgerService, err := ledger.New(store, clk, idGen, ledger.Config{
		Policy:           cfg.Policy(),
		LeaderboardLimit: cfg.LeaderboardLimit,
		StoreTimeout:     cfg.StoreTimeout,
	}, logger, m)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Storage: store,
		Clock:   clk,
		IDs:     idGen,
		Metrics: m,
		Ledger:  ledgerService,
	}, nil
}

// Start prepares the store for the configured policy. A failed ping is only
// logged, since the driver reconnects on demand; a failed index creation is
// returned because keyed policies depend on it.
func (a *App) Start(ctx context.Context) error {
	if err := a.Ledger.Ping(ctx); err != nil {
		a.Logger.WarnContext(ctx, "store not reachable at startup", slog.String("error", err.Error()))
	}
	if err := a.Ledger.PrepareStore(ctx); err != nil {
		return fmt.Errorf("prepare store: %w", err)
	}
	a.Logger.InfoContext(ctx, "store ready",
		slog.String("storage_type", a.Config.StorageType),
		slog.String("policy", string(a.Ledger.Policy())),
	)
	return nil
}

// Handler combines the JSON API and the HTML pages into one handler
func (a *App) Handler() http.Handler {
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:         a.Logger,
		Ledger:         a.Ledger,
		Metrics:        a.Metrics,
		ExposeRecordID: a.Config.ExposeRecordID,
	})
	webRouter := web.NewRouter(web.RouterConfig{
		Logger:  a.Logger,
		Ledger:  a.Ledger,
		Metrics: a.Metrics,
	})

	mux := http.NewServeMux()
	mux.Handle("/leaderboard", webRouter)
	mux.Handle("/", apiRouter)
	return mux
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.Storage.Close()
}
