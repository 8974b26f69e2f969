package factory

import (
	"time"

	"github.com/mcoot/raceboard/internal/config"
	"github.com/mcoot/raceboard/internal/dependencies/mocks"
	"github.com/mcoot/raceboard/internal/metrics"
	"github.com/mcoot/raceboard/internal/model"
	"github.com/mcoot/raceboard/internal/storage/memory"
	"github.com/mcoot/raceboard/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	MockIDs   *mocks.MockIDs
	Memory    *memory.Storage
}

// NewTestApp creates an in-memory App with mocked dependencies for policy
func NewTestApp(policy model.Policy) *TestApp {
	cfg := config.New()
	cfg.StorageType = config.StorageTypeMemory
	cfg.ScorePolicy = string(policy)

	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockIDs := mocks.NewMockIDs()

	app, err := newWithDependencies(cfg, store, mockClock, mockIDs, metrics.New(metrics.WithRuntimeMetrics(false)), testutil.NopLogger())
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		MockIDs:   mockIDs,
		Memory:    store,
	}
}
