package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/raceboard/internal/model"
	"github.com/mcoot/raceboard/internal/storage"
	"github.com/mcoot/raceboard/internal/storage/storagetest"
)

func newTestStorage(t *testing.T) (*Storage, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mini.Addr(),
	})

	return NewWithClient(client, DefaultConfig()), mini
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(t *testing.T) storage.Storage {
			s, _ := newTestStorage(t)
			return s
		},
	})
}

func TestUpsertWritesDocumentIndexAndRanking(t *testing.T) {
	s, mini := newTestStorage(t)
	ctx := context.Background()

	rec := &model.ScoreRecord{
		ID:         "rec-1",
		PlayerID:   "p1",
		PlayerName: "Alice",
		CarID:      model.StringCarID("c1"),
		Distance:   123.5,
		LastUpdate: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	key := model.ScoreKey{PlayerID: "p1"}

	res, err := s.UpsertScore(ctx, key, rec)
	require.NoError(t, err)
	assert.True(t, res.Created)

	assert.True(t, mini.Exists("RaceGame:Leaderboard:rec:rec-1"))
	assert.Equal(t, "rec-1", mini.HGet("RaceGame:Leaderboard:idx", key.String()))

	score, err := mini.ZScore("RaceGame:Leaderboard:rank", "rec-1")
	require.NoError(t, err)
	assert.Equal(t, 123.5, score)
}

func TestKeyPrefixSeparatesCollections(t *testing.T) {
	mini := miniredis.RunT(t)
	ctx := context.Background()

	cfgA := DefaultConfig()
	cfgA.KeyPrefix = "RaceGame:A"
	cfgB := DefaultConfig()
	cfgB.KeyPrefix = "RaceGame:B"

	a := NewWithClient(redis.NewClient(&redis.Options{Addr: mini.Addr()}), cfgA)
	b := NewWithClient(redis.NewClient(&redis.Options{Addr: mini.Addr()}), cfgB)

	require.NoError(t, a.InsertScore(ctx, &model.ScoreRecord{ID: "rec-1", PlayerName: "Alice", CarID: model.StringCarID("c"), Distance: 10}))

	top, err := b.TopScores(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, top)

	top, err = a.TopScores(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestOperationsFailWhenServerIsDown(t *testing.T) {
	s, mini := newTestStorage(t)
	mini.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.Error(t, s.Ping(ctx))
	_, err := s.TopScores(ctx, 10)
	assert.Error(t, err)
}

func TestNewRejectsBadURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "not a url"
	_, err := New(cfg)
	assert.Error(t, err)
}
