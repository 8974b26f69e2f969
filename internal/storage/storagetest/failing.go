package storagetest

import (
	"context"
	"errors"

	"github.com/mcoot/raceboard/internal/model"
	"github.com/mcoot/raceboard/internal/storage"
)

// ErrBackendDown is returned by FailingStorage when no Err is set
var ErrBackendDown = errors.New("connection refused")

// FailingStorage is a storage.Storage whose every call fails with Err
type FailingStorage struct {
	Err error
}

// Ensure FailingStorage implements storage.Storage
var _ storage.Storage = (*FailingStorage)(nil)

// NewFailingStorage creates a FailingStorage returning ErrBackendDown
func NewFailingStorage() *FailingStorage {
	return &FailingStorage{Err: ErrBackendDown}
}

func (f *FailingStorage) err() error {
	if f.Err == nil {
		return ErrBackendDown
	}
	return f.Err
}

func (f *FailingStorage) EnsureIndex(context.Context, model.Policy) error {
	return f.err()
}

func (f *FailingStorage) UpsertScore(context.Context, model.ScoreKey, *model.ScoreRecord) (model.UpsertResult, error) {
	return model.UpsertResult{}, f.err()
}

func (f *FailingStorage) InsertScore(context.Context, *model.ScoreRecord) error {
	return f.err()
}

func (f *FailingStorage) TopScores(context.Context, int) ([]*model.ScoreRecord, error) {
	return nil, f.err()
}

func (f *FailingStorage) Ping(context.Context) error {
	return f.err()
}

func (f *FailingStorage) Close() error {
	return nil
}
