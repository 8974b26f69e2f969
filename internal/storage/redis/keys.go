package redis

import (
	"fmt"

	"github.com/mcoot/raceboard/internal/model"
)

// Key generation functions for each structure the store keeps

// recordKeyPrefix is the prefix of every record key; the upsert script
// appends the record ID to it
func (s *Storage) recordKeyPrefix() string {
	return fmt.Sprintf("%s:rec:", s.cfg.KeyPrefix)
}

// recordKey returns the Redis key holding a record's JSON document
func (s *Storage) recordKey(id model.RecordID) string {
	return s.recordKeyPrefix() + string(id)
}

// keyIndexKey returns the HASH mapping uniqueness keys to record IDs
func (s *Storage) keyIndexKey() string {
	return fmt.Sprintf("%s:idx", s.cfg.KeyPrefix)
}

// rankKey returns the ZSET of record IDs scored by distance
func (s *Storage) rankKey() string {
	return fmt.Sprintf("%s:rank", s.cfg.KeyPrefix)
}
