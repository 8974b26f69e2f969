package mongo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mcoot/raceboard/internal/model"
	"github.com/mcoot/raceboard/internal/storage"
)

const disconnectTimeout = 5 * time.Second

// scoreDocument is the BSON shape of a record, matching the
// RaceGame.Leaderboard layout of existing deployments: carID holds the value
// as the client sent it (string or number) and older documents carry an
// ObjectId _id.
type scoreDocument struct {
	ID         any       `bson:"_id"`
	PlayerID   string    `bson:"playerID,omitempty"`
	PlayerName string    `bson:"playerName"`
	CarID      any       `bson:"carID"`
	Distance   float64   `bson:"distance"`
	LastUpdate time.Time `bson:"lastUpdate"`
}

// Storage is a MongoDB-backed implementation of the storage interface
type Storage struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// New creates the process-wide client. The driver dials lazily and keeps its
// own connection pool, reconnecting on failure; Ping reports reachability.
func New(ctx context.Context, cfg Config) (*Storage, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	return &Storage{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Close disconnects the client
func (s *Storage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Storage) EnsureIndex(ctx context.Context, policy model.Policy) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "distance", Value: -1}},
		},
	}

	switch policy {
	case model.PolicyByPlayer:
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "playerID", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
	case model.PolicyByPlayerAndCar:
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "playerID", Value: 1}, {Key: "carID", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
	case model.PolicyAppendOnly:
	default:
		return model.ErrUnknownPolicy
	}

	// Names are left to the driver (playerID_1, playerID_1_carID_1, ...) so
	// indexes created by hand or by earlier deployments are recognised.
	_, err := s.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// keyFilter matches a car stored in either of its wire forms, so 7 and "7"
// find the same document.
func keyFilter(key model.ScoreKey) bson.D {
	filter := bson.D{{Key: "playerID", Value: string(key.PlayerID)}}
	if key.CarID != nil {
		filter = append(filter, bson.E{Key: "carID", Value: bson.M{"$in": carIDForms(*key.CarID)}})
	}
	return filter
}

// carIDForms lists the stored values that denote car c
func carIDForms(c model.CarID) bson.A {
	text := c.String()
	forms := bson.A{text}
	if n, err := strconv.ParseFloat(text, 64); err == nil && strconv.FormatFloat(n, 'f', -1, 64) == text {
		forms = append(forms, n)
	}
	return forms
}

// carIDValue is the BSON value stored for c: a number when it was sent as one
func carIDValue(c model.CarID) any {
	if c.IsNumeric() {
		if n, err := strconv.ParseFloat(c.String(), 64); err == nil {
			return n
		}
	}
	return c.String()
}

func carIDFromBSON(v any) (model.CarID, error) {
	switch n := v.(type) {
	case string:
		return model.StringCarID(n), nil
	case int32:
		return model.NumericCarID(float64(n)), nil
	case int64:
		return model.NumericCarID(float64(n)), nil
	case float64:
		return model.NumericCarID(n), nil
	default:
		return model.CarID{}, model.ErrInvalidCarID
	}
}

func recordIDFromBSON(v any) model.RecordID {
	switch id := v.(type) {
	case string:
		return model.RecordID(id)
	case primitive.ObjectID:
		return model.RecordID(id.Hex())
	default:
		return model.RecordID(fmt.Sprint(id))
	}
}

func (s *Storage) UpsertScore(ctx context.Context, key model.ScoreKey, rec *model.ScoreRecord) (model.UpsertResult, error) {
	update := bson.M{
		"$set": bson.M{
			"playerID":     string(rec.PlayerID),
			"playerName":   rec.PlayerName,
			"carID":        carIDValue(rec.CarID),
			"distance":     rec.Distance,
			"lastUpdate":   rec.LastUpdate,
		},
		"$setOnInsert": bson.M{"_id": string(rec.ID)},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.M{"_id": 1})

	var doc struct {
		ID any `bson:"_id"`
	}
	if err := s.collection.FindOneAndUpdate(ctx, keyFilter(key), update, opts).Decode(&doc); err != nil {
		return model.UpsertResult{}, err
	}

	id := recordIDFromBSON(doc.ID)
	return model.UpsertResult{ID: id, Created: id == rec.ID}, nil
}

func (s *Storage) InsertScore(ctx context.Context, rec *model.ScoreRecord) error {
	_, err := s.collection.InsertOne(ctx, toDocument(rec))
	return err
}

func (s *Storage) TopScores(ctx context.Context, limit int) ([]*model.ScoreRecord, error) {
	if limit <= 0 {
		return []*model.ScoreRecord{}, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "distance", Value: -1}, {Key: "playerID", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}

	var docs []scoreDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	records := make([]*model.ScoreRecord, 0, len(docs))
	for _, doc := range docs {
		rec, err := doc.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func toDocument(rec *model.ScoreRecord) scoreDocument {
	return scoreDocument{
		ID:         string(rec.ID),
		PlayerID:   string(rec.PlayerID),
		PlayerName: rec.PlayerName,
		CarID:      carIDValue(rec.CarID),
		Distance:   rec.Distance,
		LastUpdate: rec.LastUpdate,
	}
}

func (d scoreDocument) toRecord() (*model.ScoreRecord, error) {
	id := recordIDFromBSON(d.ID)
	car, err := carIDFromBSON(d.CarID)
	if err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	return &model.ScoreRecord{
		ID:         id,
		PlayerID:   model.PlayerID(d.PlayerID),
		PlayerName: d.PlayerName,
		CarID:      car,
		Distance:   d.Distance,
		LastUpdate: d.LastUpdate.UTC(),
	}, nil
}
