package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/raceboard/internal/dependencies/mocks"
	"github.com/mcoot/raceboard/internal/metrics"
	"github.com/mcoot/raceboard/internal/model"
	"github.com/mcoot/raceboard/internal/storage"
	"github.com/mcoot/raceboard/internal/storage/memory"
	"github.com/mcoot/raceboard/internal/storage/storagetest"
	logtest "github.com/mcoot/raceboard/internal/testutil"
)

// stallingStorage blocks writes until the context is done
type stallingStorage struct {
	*memory.Storage
}

func (f *stallingStorage) UpsertScore(ctx context.Context, _ model.ScoreKey, _ *model.ScoreRecord) (model.UpsertResult, error) {
	<-ctx.Done()
	return model.UpsertResult{}, ctx.Err()
}

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	ids     *mocks.MockIDs
	metrics *metrics.Metrics
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.ids = mocks.NewMockIDs()
	s.metrics = metrics.New(metrics.WithRuntimeMetrics(false))
	s.ctx = context.Background()
}

func (s *ServiceSuite) newService(policy model.Policy) *Service {
	return s.newServiceWith(s.storage, Config{Policy: policy})
}

func (s *ServiceSuite) newServiceWith(store storage.Storage, cfg Config) *Service {
	svc, err := New(store, s.clock, s.ids, cfg, logtest.NopLogger(), s.metrics)
	s.Require().NoError(err)
	s.Require().NoError(svc.PrepareStore(s.ctx))
	return svc
}

func submission(playerID, name string, car model.CarID, distance float64) model.Submission {
	return model.Submission{
		PlayerID:   &playerID,
		PlayerName: &name,
		CarID:      &car,
		Distance:   &distance,
	}
}

// New tests

func (s *ServiceSuite) TestNewRejectsUnknownPolicy() {
	_, err := New(s.storage, s.clock, s.ids, Config{Policy: "keep_max"}, logtest.NopLogger(), nil)
	s.ErrorIs(err, model.ErrUnknownPolicy)
}

func (s *ServiceSuite) TestNewClampsLimitAndTimeout() {
	svc, err := New(s.storage, s.clock, s.ids, Config{Policy: model.PolicyByPlayer, LeaderboardLimit: 5000}, logtest.NopLogger(), nil)
	s.Require().NoError(err)
	s.Equal(MaxLeaderboardLimit, svc.cfg.LeaderboardLimit)
	s.Equal(DefaultStoreTimeout, svc.cfg.StoreTimeout)
	s.Equal(model.PolicyByPlayer, svc.Policy())
}

// Validation tests

func (s *ServiceSuite) TestSubmitRejectsMissingFields() {
	svc := s.newService(model.PolicyByPlayer)
	name := "Ann"
	distance := 10.0

	_, err := svc.Submit(s.ctx, model.Submission{PlayerName: &name, Distance: &distance})

	s.Require().ErrorIs(err, model.ErrInvalidInput)
	var verr *model.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("playerID, carID", verr.Field)
	s.Equal(0, s.storage.Count())
}

func (s *ServiceSuite) TestSubmitRejectsBlankPlayerName() {
	svc := s.newService(model.PolicyAppendOnly)

	_, err := svc.Submit(s.ctx, submission("", "   ", model.StringCarID("car-1"), 10))

	s.ErrorIs(err, model.ErrInvalidInput)
	s.Equal(0, s.storage.Count())
}

func (s *ServiceSuite) TestSubmitRejectsEmptyPlayerIDUnderKeyedPolicies() {
	for _, policy := range []model.Policy{model.PolicyByPlayer, model.PolicyByPlayerAndCar} {
		svc := s.newService(policy)
		_, err := svc.Submit(s.ctx, submission("", "Ann", model.StringCarID("car-1"), 10))
		s.ErrorIs(err, model.ErrInvalidInput, "policy %s", policy)
	}
	s.Equal(0, s.storage.Count())
}

func (s *ServiceSuite) TestSubmitAcceptsZeroValues() {
	svc := s.newService(model.PolicyByPlayer)

	result, err := svc.Submit(s.ctx, submission("p1", "Ann", model.NumericCarID(0), 0))
	s.Require().NoError(err)
	s.True(result.Created)

	_, err = svc.Submit(s.ctx, submission("p2", "Bob", model.StringCarID(""), 0))
	s.Require().NoError(err)
	s.Equal(2, s.storage.Count())
}

func (s *ServiceSuite) TestValidationFailureIsCounted() {
	svc := s.newService(model.PolicyByPlayer)

	_, _ = svc.Submit(s.ctx, model.Submission{})

	s.Equal(1.0, s.submissionCount(model.PolicyByPlayer, metrics.OutcomeInvalid))
}

func (s *ServiceSuite) TestSubmissionOutcomesAreCounted() {
	svc := s.newService(model.PolicyByPlayer)

	_, err := svc.Submit(s.ctx, submission("p1", "Ann", model.StringCarID("car"), 1))
	s.Require().NoError(err)
	_, err = svc.Submit(s.ctx, submission("p1", "Ann", model.StringCarID("car"), 2))
	s.Require().NoError(err)

	s.Equal(1.0, s.submissionCount(model.PolicyByPlayer, metrics.OutcomeCreated))
	s.Equal(1.0, s.submissionCount(model.PolicyByPlayer, metrics.OutcomeUpdated))
}

// submissionCount reads one series of the submissions counter from the registry
func (s *ServiceSuite) submissionCount(policy model.Policy, outcome string) float64 {
	families, err := s.metrics.Registry().Gather()
	s.Require().NoError(err)
	for _, family := range families {
		if family.GetName() != "raceboard_score_submissions_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["policy"] == string(policy) && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

// Policy tests

func (s *ServiceSuite) TestByPlayerUpsertIsIdempotentPerPlayer() {
	svc := s.newService(model.PolicyByPlayer)
	s.ids.Queue("first", "second")

	first, err := svc.Submit(s.ctx, submission("p1", "Ann", model.StringCarID("car-1"), 500))
	s.Require().NoError(err)
	s.True(first.Created)

	s.clock.Advance(time.Minute)
	second, err := svc.Submit(s.ctx, submission("p1", "Annie", model.StringCarID("car-2"), 200))
	s.Require().NoError(err)
	s.False(second.Created)
	s.Equal(model.RecordID("first"), second.ID)

	board, err := svc.Leaderboard(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(board, 1)
	s.Equal("Annie", board[0].PlayerName)
	s.Equal("car-2", board[0].CarID.String())
	s.Equal(200.0, board[0].Distance)
	s.Equal(s.clock.Now(), board[0].LastUpdate)
}

func (s *ServiceSuite) TestAppendOnlyCreatesRecordPerSubmission() {
	svc := s.newService(model.PolicyAppendOnly)
	name := "Ann"
	car := model.StringCarID("car-1")
	distance := 50.0
	anonymous := model.Submission{PlayerName: &name, CarID: &car, Distance: &distance}

	for range 3 {
		result, err := svc.Submit(s.ctx, anonymous)
		s.Require().NoError(err)
		s.True(result.Created)
	}

	board, err := svc.Leaderboard(s.ctx)
	s.Require().NoError(err)
	s.Len(board, 3)
}

func (s *ServiceSuite) TestByPlayerAndCarKeysOnBoth() {
	svc := s.newService(model.PolicyByPlayerAndCar)

	a, err := svc.Submit(s.ctx, submission("p1", "Ann", model.StringCarID("7"), 100))
	s.Require().NoError(err)
	s.True(a.Created)

	b, err := svc.Submit(s.ctx, submission("p1", "Ann", model.StringCarID("8"), 150))
	s.Require().NoError(err)
	s.True(b.Created)

	c, err := svc.Submit(s.ctx, submission("p1", "Ann", model.NumericCarID(7), 120))
	s.Require().NoError(err)
	s.False(c.Created)
	s.Equal(a.ID, c.ID)

	board, err := svc.Leaderboard(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(board, 2)
	s.Equal(150.0, board[0].Distance)
	s.Equal(120.0, board[1].Distance)
	s.True(board[1].CarID.IsNumeric())
}

// Leaderboard tests

func (s *ServiceSuite) TestLeaderboardOrdersByDistanceDescending() {
	svc := s.newService(model.PolicyAppendOnly)
	for i, d := range []float64{300, 100, 500} {
		_, err := svc.Submit(s.ctx, submission(fmt.Sprintf("p%d", i), "Racer", model.NumericCarID(1), d))
		s.Require().NoError(err)
	}

	board, err := svc.Leaderboard(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(board, 3)
	s.Equal([]float64{500, 300, 100}, []float64{board[0].Distance, board[1].Distance, board[2].Distance})
}

func (s *ServiceSuite) TestLeaderboardIsCapped() {
	svc := s.newService(model.PolicyAppendOnly)
	for i := range 1500 {
		_, err := svc.Submit(s.ctx, submission("", "Racer", model.NumericCarID(1), float64(i)))
		s.Require().NoError(err)
	}

	board, err := svc.Leaderboard(s.ctx)
	s.Require().NoError(err)
	s.Len(board, MaxLeaderboardLimit)
	s.Equal(1499.0, board[0].Distance)
	s.Equal(500.0, board[len(board)-1].Distance)
}

func (s *ServiceSuite) TestLeaderboardHonoursConfiguredLimit() {
	svc := s.newServiceWith(s.storage, Config{Policy: model.PolicyAppendOnly, LeaderboardLimit: 2})
	for _, d := range []float64{1, 2, 3} {
		_, err := svc.Submit(s.ctx, submission("", "Racer", model.NumericCarID(1), d))
		s.Require().NoError(err)
	}

	board, err := svc.Leaderboard(s.ctx)
	s.Require().NoError(err)
	s.Len(board, 2)
}

func (s *ServiceSuite) TestLeaderboardEmpty() {
	svc := s.newService(model.PolicyByPlayer)

	board, err := svc.Leaderboard(s.ctx)
	s.Require().NoError(err)
	s.Empty(board)
}

// Concurrency tests

func (s *ServiceSuite) TestConcurrentSubmissionsForSamePlayerLeaveOneRecord() {
	svc := s.newService(model.PolicyByPlayer)
	const writers = 50

	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func(distance float64) {
			defer wg.Done()
			_, err := svc.Submit(s.ctx, submission("p1", "Ann", model.StringCarID("car"), distance))
			s.NoError(err)
		}(float64(i))
	}
	wg.Wait()

	board, err := svc.Leaderboard(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(board, 1)
	s.GreaterOrEqual(board[0].Distance, 0.0)
	s.Less(board[0].Distance, float64(writers))
}

// Store failure tests

func (s *ServiceSuite) TestStoreFailuresAreStoreUnavailable() {
	failing := storagetest.NewFailingStorage()

	for _, policy := range model.Policies {
		svc, err := New(failing, s.clock, s.ids, Config{Policy: policy}, logtest.NopLogger(), s.metrics)
		s.Require().NoError(err)

		_, err = svc.Submit(s.ctx, submission("p1", "Ann", model.StringCarID("car"), 1))
		s.ErrorIs(err, model.ErrStoreUnavailable, "policy %s", policy)
		s.ErrorIs(err, storagetest.ErrBackendDown)

		_, err = svc.Leaderboard(s.ctx)
		s.ErrorIs(err, model.ErrStoreUnavailable)

		s.ErrorIs(svc.Ping(s.ctx), model.ErrStoreUnavailable)
		s.ErrorIs(svc.PrepareStore(s.ctx), model.ErrStoreUnavailable)
	}
}

func (s *ServiceSuite) TestStoreTimeoutIsStoreUnavailable() {
	stalling := &stallingStorage{Storage: memory.New()}
	svc, err := New(stalling, s.clock, s.ids, Config{Policy: model.PolicyByPlayer, StoreTimeout: 20 * time.Millisecond}, logtest.NopLogger(), nil)
	s.Require().NoError(err)

	_, err = svc.Submit(s.ctx, submission("p1", "Ann", model.StringCarID("car"), 1))
	s.ErrorIs(err, model.ErrStoreUnavailable)
	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *ServiceSuite) TestStoreFailureIsLoggedWithOperation() {
	logger, logs := logtest.CaptureLogger()
	svc, err := New(storagetest.NewFailingStorage(), s.clock, s.ids, Config{Policy: model.PolicyAppendOnly}, logger, nil)
	s.Require().NoError(err)

	_, err = svc.Submit(s.ctx, submission("", "Ann", model.StringCarID("car"), 1))
	s.Require().Error(err)

	entries := logs.Entries()
	s.Require().Len(entries, 1)
	s.Equal("ERROR", entries[0]["level"])
	s.Equal("store failure", entries[0]["msg"])
	s.Equal("insert score", entries[0]["operation"])
	s.Equal(string(model.PolicyAppendOnly), entries[0]["policy"])
}

func (s *ServiceSuite) TestPingHealthyStore() {
	svc := s.newService(model.PolicyByPlayer)
	s.NoError(svc.Ping(s.ctx))
}
