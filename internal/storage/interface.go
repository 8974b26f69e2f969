package storage

import (
	"context"

	"github.com/mcoot/raceboard/internal/model"
)

// Storage defines the interface for score persistence.
//
// Implementations must make UpsertScore atomic: concurrent calls with the
// same key never produce more than one record.
type Storage interface {
	// EnsureIndex creates the uniqueness constraint for the policy's key.
	// It is idempotent and a no-op for append_only.
	EnsureIndex(ctx context.Context, policy model.Policy) error

	// UpsertScore finds the record matching key and overwrites it with rec,
	// or creates it under rec.ID if none exists
	UpsertScore(ctx context.Context, key model.ScoreKey, rec *model.ScoreRecord) (model.UpsertResult, error)

	// InsertScore stores rec as a new, independent record
	InsertScore(ctx context.Context, rec *model.ScoreRecord) error

	// TopScores returns up to limit records ordered by distance descending
	TopScores(ctx context.Context, limit int) ([]*model.ScoreRecord, error)

	// Ping checks the backend is reachable
	Ping(ctx context.Context) error

	// Close releases the backend connection
	Close() error
}
