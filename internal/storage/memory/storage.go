package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/raceboard/internal/model"
	"github.com/mcoot/raceboard/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	records  map[model.RecordID]*model.ScoreRecord
	keyIndex map[string]model.RecordID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		records:  make(map[model.RecordID]*model.ScoreRecord),
		keyIndex: make(map[string]model.RecordID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// EnsureIndex is a no-op; uniqueness is enforced by the key index map
func (s *Storage) EnsureIndex(ctx context.Context, policy model.Policy) error {
	return nil
}

func (s *Storage) UpsertScore(ctx context.Context, key model.ScoreKey, rec *model.ScoreRecord) (model.UpsertResult, error) {
	if err := ctx.Err(); err != nil {
		return model.UpsertResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	if id, ok := s.keyIndex[k]; ok {
		stored := *rec
		stored.ID = id
		s.records[id] = &stored
		return model.UpsertResult{ID: id, Created: false}, nil
	}

	stored := *rec
	s.records[stored.ID] = &stored
	s.keyIndex[k] = stored.ID
	return model.UpsertResult{ID: stored.ID, Created: true}, nil
}

func (s *Storage) InsertScore(ctx context.Context, rec *model.ScoreRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *rec
	s.records[stored.ID] = &stored
	return nil
}

func (s *Storage) TopScores(ctx context.Context, limit int) ([]*model.ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	result := make([]*model.ScoreRecord, 0, len(s.records))
	for _, rec := range s.records {
		cp := *rec
		result = append(result, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return Less(result[i], result[j]) })
	if limit >= 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Storage) Close() error {
	return nil
}

// Count returns the number of stored records
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Less orders records for the leaderboard: distance descending, then
// playerID ascending, then record ID ascending
func Less(a, b *model.ScoreRecord) bool {
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	if a.PlayerID != b.PlayerID {
		return a.PlayerID < b.PlayerID
	}
	return a.ID < b.ID
}
