package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/raceboard/internal/model"
	"github.com/mcoot/raceboard/internal/storage"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidTable is returned for table names that are not plain identifiers
var ErrInvalidTable = errors.New("sqlite table name must be a plain identifier")

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db    *sql.DB
	table string
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// New opens the database and creates the scores table if needed
func New(cfg Config) (*Storage, error) {
	if !tableNamePattern.MatchString(cfg.Table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, cfg.Table)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; one connection serialises upserts
	// instead of surfacing SQLITE_BUSY under concurrent submissions.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		`PRAGMA journal_mode=WAL;`,
		fmt.Sprintf(`PRAGMA busy_timeout=%d;`, cfg.BusyTimeoutMS),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	s := &Storage{db: db, table: cfg.Table}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) migrate() error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			player_id TEXT NOT NULL DEFAULT '',
			player_name TEXT NOT NULL,
			car_id TEXT NOT NULL,
			car_numeric INTEGER NOT NULL DEFAULT 0,
			distance REAL NOT NULL,
			last_update INTEGER NOT NULL
		);`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_distance ON %[1]s(distance DESC, player_id, id);`, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// conflictColumns returns the unique columns for a key, matching the
// indexes created by EnsureIndex
func conflictColumns(key model.ScoreKey) string {
	if key.CarID == nil {
		return "player_id"
	}
	return "player_id, car_id"
}

func (s *Storage) EnsureIndex(ctx context.Context, policy model.Policy) error {
	var stmt string
	switch policy {
	case model.PolicyByPlayer:
		stmt = fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS ux_%[1]s_player ON %[1]s(player_id);`, s.table)
	case model.PolicyByPlayerAndCar:
		stmt = fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS ux_%[1]s_player_car ON %[1]s(player_id, car_id);`, s.table)
	case model.PolicyAppendOnly:
		return nil
	default:
		return model.ErrUnknownPolicy
	}
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

func (s *Storage) UpsertScore(ctx context.Context, key model.ScoreKey, rec *model.ScoreRecord) (model.UpsertResult, error) {
	query := fmt.Sprintf(`INSERT INTO %s (id, player_id, player_name, car_id, car_numeric, distance, last_update)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(%s) DO UPDATE SET
			player_name = excluded.player_name,
			car_id = excluded.car_id,
			car_numeric = excluded.car_numeric,
			distance = excluded.distance,
			last_update = excluded.last_update
		RETURNING id`, s.table, conflictColumns(key))

	var id string
	err := s.db.QueryRowContext(ctx, query,
		string(rec.ID), string(key.PlayerID), rec.PlayerName,
		rec.CarID.String(), rec.CarID.IsNumeric(), rec.Distance, rec.LastUpdate.UnixMilli(),
	).Scan(&id)
	if err != nil {
		return model.UpsertResult{}, err
	}

	return model.UpsertResult{ID: model.RecordID(id), Created: id == string(rec.ID)}, nil
}

func (s *Storage) InsertScore(ctx context.Context, rec *model.ScoreRecord) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, player_id, player_name, car_id, car_numeric, distance, last_update)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, s.table),
		string(rec.ID), string(rec.PlayerID), rec.PlayerName,
		rec.CarID.String(), rec.CarID.IsNumeric(), rec.Distance, rec.LastUpdate.UnixMilli(),
	)
	return err
}

func (s *Storage) TopScores(ctx context.Context, limit int) ([]*model.ScoreRecord, error) {
	if limit <= 0 {
		return []*model.ScoreRecord{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, player_id, player_name, car_id, car_numeric, distance, last_update
		FROM %s ORDER BY distance DESC, player_id ASC, id ASC LIMIT ?`, s.table),
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := []*model.ScoreRecord{}
	for rows.Next() {
		var (
			id, playerID, playerName, carID string
			carNumeric                      bool
			distance                        float64
			lastUpdate                      int64
		)
		if err := rows.Scan(&id, &playerID, &playerName, &carID, &carNumeric, &distance, &lastUpdate); err != nil {
			return nil, err
		}
		car, err := model.RestoreCarID(carID, carNumeric)
		if err != nil {
			return nil, fmt.Errorf("decode record %s: %w", id, err)
		}
		records = append(records, &model.ScoreRecord{
			ID:         model.RecordID(id),
			PlayerID:   model.PlayerID(playerID),
			PlayerName: playerName,
			CarID:      car,
			Distance:   distance,
			LastUpdate: time.UnixMilli(lastUpdate).UTC(),
		})
	}
	return records, rows.Err()
}
