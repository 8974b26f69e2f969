// Package storagetest holds the behaviour every storage backend must share.
// Backend packages run it from their own tests with a constructor for a
// fresh, empty store.
package storagetest

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/raceboard/internal/model"
	"github.com/mcoot/raceboard/internal/storage"
)

// Suite is a testify suite exercising a storage.Storage implementation
type Suite struct {
	suite.Suite

	// NewStorage returns an empty store; it is called once per test
	NewStorage func(t *testing.T) storage.Storage

	storage storage.Storage
	ctx     context.Context
}

// SetupTest creates a fresh store
func (s *Suite) SetupTest() {
	s.storage = s.NewStorage(s.T())
	s.ctx = context.Background()
}

// TearDownTest closes the store
func (s *Suite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func record(id, playerID, name string, car model.CarID, distance float64) *model.ScoreRecord {
	return &model.ScoreRecord{
		ID:         model.RecordID(id),
		PlayerID:   model.PlayerID(playerID),
		PlayerName: name,
		CarID:      car,
		Distance:   distance,
		LastUpdate: baseTime,
	}
}

func (s *Suite) upsert(policy model.Policy, rec *model.ScoreRecord) model.UpsertResult {
	key, ok := policy.Key(rec)
	s.Require().True(ok)
	res, err := s.storage.UpsertScore(s.ctx, key, rec)
	s.Require().NoError(err)
	return res
}

func (s *Suite) top(limit int) []*model.ScoreRecord {
	records, err := s.storage.TopScores(s.ctx, limit)
	s.Require().NoError(err)
	return records
}

func (s *Suite) TestPing() {
	s.NoError(s.storage.Ping(s.ctx))
}

func (s *Suite) TestEnsureIndexIsIdempotent() {
	for _, p := range model.Policies {
		store := s.NewStorage(s.T())
		s.Require().NoError(store.EnsureIndex(s.ctx, p), "policy %s", p)
		s.Require().NoError(store.EnsureIndex(s.ctx, p), "policy %s", p)
		_ = store.Close()
	}
}

func (s *Suite) TestUpsertByPlayerCreatesThenUpdates() {
	s.Require().NoError(s.storage.EnsureIndex(s.ctx, model.PolicyByPlayer))

	first := s.upsert(model.PolicyByPlayer, record("rec-1", "p1", "Alice", model.StringCarID("c1"), 100))
	s.True(first.Created)
	s.Equal(model.RecordID("rec-1"), first.ID)

	updated := record("rec-2", "p1", "Alicia", model.StringCarID("c2"), 40)
	updated.LastUpdate = baseTime.Add(time.Minute)
	second := s.upsert(model.PolicyByPlayer, updated)
	s.False(second.Created)
	s.Equal(model.RecordID("rec-1"), second.ID, "existing record keeps its ID")

	records := s.top(10)
	s.Require().Len(records, 1)
	got := records[0]
	s.Equal(model.RecordID("rec-1"), got.ID)
	s.Equal(model.PlayerID("p1"), got.PlayerID)
	s.Equal("Alicia", got.PlayerName)
	s.Equal("c2", got.CarID.String())
	s.Equal(40.0, got.Distance, "distance is overwritten, not kept at max")
	s.True(updated.LastUpdate.Equal(got.LastUpdate))
}

func (s *Suite) TestUpsertByPlayerAndCarKeepsOneRecordPerCar() {
	s.Require().NoError(s.storage.EnsureIndex(s.ctx, model.PolicyByPlayerAndCar))

	s.True(s.upsert(model.PolicyByPlayerAndCar, record("rec-1", "p1", "Alice", model.StringCarID("c1"), 100)).Created)
	s.False(s.upsert(model.PolicyByPlayerAndCar, record("rec-2", "p1", "Alice", model.StringCarID("c1"), 200)).Created)
	s.True(s.upsert(model.PolicyByPlayerAndCar, record("rec-3", "p1", "Alice", model.StringCarID("c2"), 50)).Created)

	records := s.top(10)
	s.Require().Len(records, 2)
	s.Equal("c1", records[0].CarID.String())
	s.Equal(200.0, records[0].Distance)
	s.Equal("c2", records[1].CarID.String())
	s.Equal(50.0, records[1].Distance)
}

func (s *Suite) TestNumericAndStringCarIDAreTheSameCar() {
	s.Require().NoError(s.storage.EnsureIndex(s.ctx, model.PolicyByPlayerAndCar))

	s.True(s.upsert(model.PolicyByPlayerAndCar, record("rec-1", "p1", "Alice", model.NumericCarID(7), 10)).Created)
	s.False(s.upsert(model.PolicyByPlayerAndCar, record("rec-2", "p1", "Alice", model.StringCarID("7"), 20)).Created)

	records := s.top(10)
	s.Require().Len(records, 1)
	s.Equal(20.0, records[0].Distance)
}

func (s *Suite) TestNumericCarIDRoundTrips() {
	s.Require().NoError(s.storage.InsertScore(s.ctx, record("rec-1", "p1", "Alice", model.NumericCarID(3), 10)))

	records := s.top(10)
	s.Require().Len(records, 1)
	s.True(records[0].CarID.IsNumeric())
	s.Equal("3", records[0].CarID.String())
}

func (s *Suite) TestInsertCreatesIndependentRecords() {
	s.Require().NoError(s.storage.EnsureIndex(s.ctx, model.PolicyAppendOnly))

	s.Require().NoError(s.storage.InsertScore(s.ctx, record("rec-1", "", "Alice", model.StringCarID("c1"), 100)))
	s.Require().NoError(s.storage.InsertScore(s.ctx, record("rec-2", "", "Alice", model.StringCarID("c1"), 100)))

	records := s.top(10)
	s.Require().Len(records, 2)
	s.NotEqual(records[0].ID, records[1].ID)
}

func (s *Suite) TestTopScoresOrdersByDistanceDescending() {
	s.Require().NoError(s.storage.InsertScore(s.ctx, record("rec-1", "p1", "A", model.StringCarID("c"), 300)))
	s.Require().NoError(s.storage.InsertScore(s.ctx, record("rec-2", "p2", "B", model.StringCarID("c"), 100)))
	s.Require().NoError(s.storage.InsertScore(s.ctx, record("rec-3", "p3", "C", model.StringCarID("c"), 500)))

	records := s.top(10)
	s.Require().Len(records, 3)
	s.Equal(500.0, records[0].Distance)
	s.Equal(300.0, records[1].Distance)
	s.Equal(100.0, records[2].Distance)
}

func (s *Suite) TestTopScoresHonoursLimit() {
	for i := 0; i < 15; i++ {
		rec := record(fmt.Sprintf("rec-%02d", i), fmt.Sprintf("p%02d", i), "P", model.StringCarID("c"), float64(i))
		s.Require().NoError(s.storage.InsertScore(s.ctx, rec))
	}

	records := s.top(10)
	s.Require().Len(records, 10)
	s.Equal(14.0, records[0].Distance)
	s.Equal(5.0, records[9].Distance)
}

func (s *Suite) TestTopScoresOnEmptyStore() {
	s.Empty(s.top(10))
}

func (s *Suite) TestConcurrentUpsertsForSameKeyLeaveOneRecord() {
	s.Require().NoError(s.storage.EnsureIndex(s.ctx, model.PolicyByPlayer))

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := record(fmt.Sprintf("rec-%d", i), "p1", "Alice", model.StringCarID("c1"), float64(i+1))
			key, _ := model.PolicyByPlayer.Key(rec)
			if _, err := s.storage.UpsertScore(s.ctx, key, rec); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	// A losing first-insert race may surface as an error; it must never
	// leave a second record behind.
	s.Less(len(errs), writers)

	records := s.top(10)
	s.Require().Len(records, 1)
	s.GreaterOrEqual(records[0].Distance, 1.0)
	s.LessOrEqual(records[0].Distance, float64(writers))
}

func (s *Suite) TestConcurrentUpsertsForSameCarLeaveOneRecordPerCar() {
	s.Require().NoError(s.storage.EnsureIndex(s.ctx, model.PolicyByPlayerAndCar))

	// Even writers race on car 7, odd writers on car "c2"
	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			car := model.StringCarID("c2")
			if i%2 == 0 {
				car = model.NumericCarID(7)
			}
			rec := record(fmt.Sprintf("rec-%d", i), "p1", "Alice", car, float64(i+1))
			key, _ := model.PolicyByPlayerAndCar.Key(rec)
			if _, err := s.storage.UpsertScore(s.ctx, key, rec); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	s.Less(len(errs), writers)

	records := s.top(10)
	s.Require().Len(records, 2)
	cars := map[string]float64{}
	for _, rec := range records {
		cars[rec.CarID.String()] = rec.Distance
	}
	s.Require().Contains(cars, "7")
	s.Require().Contains(cars, "c2")
	s.Equal(0.0, math.Mod(cars["7"]-1, 2), "car 7 keeps a distance written by an even writer")
	s.Equal(1.0, math.Mod(cars["c2"]-1, 2), "car c2 keeps a distance written by an odd writer")
}
