package model

import (
	"fmt"
	"time"
)

// RecordID uniquely identifies a persisted score record
type RecordID string

// PlayerID identifies the player behind a score
type PlayerID string

// ScoreRecord is one leaderboard row
type ScoreRecord struct {
	ID         RecordID
	PlayerID   PlayerID // empty for anonymous append_only submissions
	PlayerName string
	CarID      CarID
	Distance   float64
	LastUpdate time.Time
}

// ScoreKey is what a keyed submission reconciles against.
// A nil CarID keys by player alone.
type ScoreKey struct {
	PlayerID PlayerID
	CarID    *CarID
}

// String returns an unambiguous text form of the key, suitable as a map or
// hash field name
func (k ScoreKey) String() string {
	if k.CarID == nil {
		return fmt.Sprintf("p:%d:%s", len(k.PlayerID), k.PlayerID)
	}
	return fmt.Sprintf("pc:%d:%s:%s", len(k.PlayerID), k.PlayerID, k.CarID.String())
}

// UpsertResult reports the outcome of a keyed write
type UpsertResult struct {
	ID      RecordID
	Created bool
}

// Submission is an incoming score. Nil fields were absent from the request.
type Submission struct {
	PlayerID   *string
	PlayerName *string
	CarID      *CarID
	Distance   *float64
}

// SubmitResult is returned by a successful submission
type SubmitResult struct {
	ID      RecordID
	Created bool
}
