package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/raceboard/internal/model"
	"github.com/mcoot/raceboard/internal/storage"
)

// upsertScript finds or creates the record for a key and rewrites it
// together with its ranking entry in one atomic step.
//
// KEYS[1] key index hash, KEYS[2] ranking zset
// ARGV[1] key, ARGV[2] candidate id, ARGV[3] document, ARGV[4] record key prefix, ARGV[5] distance
var upsertScript = redis.NewScript(`
local id = redis.call('HGET', KEYS[1], ARGV[1])
local created = 0
if not id then
	id = ARGV[2]
	redis.call('HSET', KEYS[1], ARGV[1], id)
	created = 1
end
redis.call('SET', ARGV[4] .. id, ARGV[3])
redis.call('ZADD', KEYS[2], ARGV[5], id)
return {created, id}
`)

// scoreDocument is the JSON stored per record; the ID lives in the key
type scoreDocument struct {
	PlayerID   model.PlayerID `json:"playerID,omitempty"`
	PlayerName string         `json:"playerName"`
	CarID      model.CarID    `json:"carID"`
	Distance   float64        `json:"distance"`
	LastUpdate time.Time      `json:"lastUpdate"`
}

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance. The client connects lazily and
// reconnects on its own; call Ping to check reachability.
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	return &Storage{
		client: redis.NewClient(opts),
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// EnsureIndex is a no-op; the key index hash is maintained by the upsert script
func (s *Storage) EnsureIndex(ctx context.Context, policy model.Policy) error {
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Storage) UpsertScore(ctx context.Context, key model.ScoreKey, rec *model.ScoreRecord) (model.UpsertResult, error) {
	data, err := json.Marshal(toDocument(rec))
	if err != nil {
		return model.UpsertResult{}, err
	}

	res, err := upsertScript.Run(ctx, s.client,
		[]string{s.keyIndexKey(), s.rankKey()},
		key.String(), string(rec.ID), data, s.recordKeyPrefix(), formatScore(rec.Distance),
	).Slice()
	if err != nil {
		return model.UpsertResult{}, err
	}
	if len(res) != 2 {
		return model.UpsertResult{}, fmt.Errorf("unexpected upsert reply: %v", res)
	}

	created, _ := res[0].(int64)
	id, _ := res[1].(string)
	return model.UpsertResult{ID: model.RecordID(id), Created: created == 1}, nil
}

func (s *Storage) InsertScore(ctx context.Context, rec *model.ScoreRecord) error {
	data, err := json.Marshal(toDocument(rec))
	if err != nil {
		return err
	}

	// MULTI/EXEC so the document and its ranking entry appear together
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(rec.ID), data, 0)
		pipe.ZAdd(ctx, s.rankKey(), redis.Z{Score: rec.Distance, Member: string(rec.ID)})
		return nil
	})
	return err
}

func (s *Storage) TopScores(ctx context.Context, limit int) ([]*model.ScoreRecord, error) {
	if limit <= 0 {
		return []*model.ScoreRecord{}, nil
	}

	ids, err := s.client.ZRevRange(ctx, s.rankKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.ScoreRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(model.RecordID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*model.ScoreRecord, 0, len(values))
	for i, val := range values {
		raw, ok := val.(string)
		if !ok {
			continue // Ranked member without a document
		}
		var doc scoreDocument
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", ids[i], err)
		}
		records = append(records, doc.toRecord(model.RecordID(ids[i])))
	}
	return records, nil
}

func toDocument(rec *model.ScoreRecord) scoreDocument {
	return scoreDocument{
		PlayerID:   rec.PlayerID,
		PlayerName: rec.PlayerName,
		CarID:      rec.CarID,
		Distance:   rec.Distance,
		LastUpdate: rec.LastUpdate,
	}
}

func (d scoreDocument) toRecord(id model.RecordID) *model.ScoreRecord {
	return &model.ScoreRecord{
		ID:         id,
		PlayerID:   d.PlayerID,
		PlayerName: d.PlayerName,
		CarID:      d.CarID,
		Distance:   d.Distance,
		LastUpdate: d.LastUpdate,
	}
}

func formatScore(distance float64) string {
	return strconv.FormatFloat(distance, 'f', -1, 64)
}
