// Package ledger implements score submission and leaderboard reads on top of
// a storage backend, under a configured reconciliation policy.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/mcoot/raceboard/internal/dependencies/clock"
	"github.com/mcoot/raceboard/internal/dependencies/ids"
	"github.com/mcoot/raceboard/internal/metrics"
	"github.com/mcoot/raceboard/internal/model"
	"github.com/mcoot/raceboard/internal/storage"
)

const (
	// MaxLeaderboardLimit is the hard cap on records returned by a read
	MaxLeaderboardLimit = 1000
	// DefaultStoreTimeout bounds every storage call
	DefaultStoreTimeout = 5 * time.Second
)

// Config holds ledger settings
type Config struct {
	Policy           model.Policy
	LeaderboardLimit int
	StoreTimeout     time.Duration
}

// DefaultConfig returns the default ledger configuration
func DefaultConfig() Config {
	return Config{
		Policy:           model.PolicyByPlayer,
		LeaderboardLimit: MaxLeaderboardLimit,
		StoreTimeout:     DefaultStoreTimeout,
	}
}

// Service is the score ledger. It holds no locks of its own; per-key
// atomicity comes from the storage backend.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	ids     ids.Generator
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a new ledger Service. metrics may be nil.
func New(
	storage storage.Storage,
	clock clock.Clock,
	ids ids.Generator,
	cfg Config,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) (*Service, error) {
	if !cfg.Policy.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownPolicy, cfg.Policy)
	}
	if cfg.LeaderboardLimit <= 0 || cfg.LeaderboardLimit > MaxLeaderboardLimit {
		cfg.LeaderboardLimit = MaxLeaderboardLimit
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	return &Service{
		storage: storage,
		clock:   clock,
		ids:     ids,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Policy returns the reconciliation policy in effect
func (s *Service) Policy() model.Policy {
	return s.cfg.Policy
}

// PrepareStore creates the uniqueness constraint the policy relies on
func (s *Service) PrepareStore(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	if err := s.storage.EnsureIndex(ctx, s.cfg.Policy); err != nil {
		return model.StoreError("ensure index", err)
	}
	return nil
}

// Submit validates a submission and records it according to the policy
func (s *Service) Submit(ctx context.Context, sub model.Submission) (*model.SubmitResult, error) {
	rec, err := s.buildRecord(sub)
	if err != nil {
		s.metrics.RecordSubmission(s.cfg.Policy, metrics.OutcomeInvalid)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	var result model.SubmitResult
	start := time.Now()
	if key, keyed := s.cfg.Policy.Key(rec); keyed {
		res, err := s.storage.UpsertScore(ctx, key, rec)
		s.metrics.ObserveStore("upsert_score", time.Since(start))
		if err != nil {
			return nil, s.storeFailure(ctx, "upsert score", err)
		}
		result = model.SubmitResult{ID: res.ID, Created: res.Created}
	} else {
		err := s.storage.InsertScore(ctx, rec)
		s.metrics.ObserveStore("insert_score", time.Since(start))
		if err != nil {
			return nil, s.storeFailure(ctx, "insert score", err)
		}
		result = model.SubmitResult{ID: rec.ID, Created: true}
	}

	outcome := metrics.OutcomeUpdated
	if result.Created {
		outcome = metrics.OutcomeCreated
	}
	s.metrics.RecordSubmission(s.cfg.Policy, outcome)
	s.logger.DebugContext(ctx, "score recorded",
		"policy", s.cfg.Policy,
		"id", result.ID,
		"created", result.Created,
	)
	return &result, nil
}

// Leaderboard returns the top records by distance, highest first
func (s *Service) Leaderboard(ctx context.Context) ([]*model.ScoreRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	start := time.Now()
	records, err := s.storage.TopScores(ctx, s.cfg.LeaderboardLimit)
	s.metrics.ObserveStore("top_scores", time.Since(start))
	if err != nil {
		s.metrics.RecordLeaderboardRead(metrics.OutcomeError)
		s.logger.ErrorContext(ctx, "store failure",
			"policy", s.cfg.Policy,
			"operation", "top scores",
			"error", err,
		)
		return nil, model.StoreError("top scores", err)
	}
	if len(records) > s.cfg.LeaderboardLimit {
		records = records[:s.cfg.LeaderboardLimit]
	}
	s.metrics.RecordLeaderboardRead(metrics.OutcomeOK)
	return records, nil
}

// Ping checks the storage backend is reachable
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	if err := s.storage.Ping(ctx); err != nil {
		return model.StoreError("ping", err)
	}
	return nil
}

func (s *Service) storeFailure(ctx context.Context, op string, err error) error {
	s.metrics.RecordSubmission(s.cfg.Policy, metrics.OutcomeError)
	msg := "store failure"
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "store timeout"
	}
	s.logger.ErrorContext(ctx, msg,
		"policy", s.cfg.Policy,
		"operation", op,
		"error", err,
	)
	return model.StoreError(op, err)
}

// buildRecord checks presence of the required fields and assembles the
// record to persist. Only nil counts as absent; zero values are accepted.
func (s *Service) buildRecord(sub model.Submission) (*model.ScoreRecord, error) {
	var missing []string
	if s.cfg.Policy.RequiresPlayerID() && (sub.PlayerID == nil || *sub.PlayerID == "") {
		missing = append(missing, "playerID")
	}
	if sub.PlayerName == nil || strings.TrimSpace(*sub.PlayerName) == "" {
		missing = append(missing, "playerName")
	}
	if sub.CarID == nil {
		missing = append(missing, "carID")
	}
	if sub.Distance == nil {
		missing = append(missing, "distance")
	}
	if len(missing) > 0 {
		return nil, &model.ValidationError{Field: strings.Join(missing, ", ")}
	}
	if math.IsNaN(*sub.Distance) || math.IsInf(*sub.Distance, 0) {
		return nil, &model.ValidationError{Field: "distance", Reason: "must be a finite number"}
	}

	rec := &model.ScoreRecord{
		ID:         s.ids.NewID(),
		PlayerName: *sub.PlayerName,
		CarID:      *sub.CarID,
		Distance:   *sub.Distance,
		LastUpdate: s.clock.Now(),
	}
	if sub.PlayerID != nil {
		rec.PlayerID = model.PlayerID(*sub.PlayerID)
	}
	return rec, nil
}
