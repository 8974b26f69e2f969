package model

import (
	"fmt"
	"strings"
)

// Policy decides whether a submission creates a new record or merges into an
// existing one, and under which key
type Policy string

const (
	PolicyByPlayer       Policy = "by_player"         // one record per playerID
	PolicyAppendOnly     Policy = "append_only"       // every submission is a new record
	PolicyByPlayerAndCar Policy = "by_player_and_car" // one record per (playerID, carID)
)

// Policies lists every supported policy
var Policies = []Policy{PolicyByPlayer, PolicyAppendOnly, PolicyByPlayerAndCar}

// ParsePolicy converts a configuration string into a Policy
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
	return p, nil
}

// Valid reports whether p is a known policy
func (p Policy) Valid() bool {
	switch p {
	case PolicyByPlayer, PolicyAppendOnly, PolicyByPlayerAndCar:
		return true
	}
	return false
}

// RequiresPlayerID reports whether submissions must carry a playerID
func (p Policy) RequiresPlayerID() bool {
	return p == PolicyByPlayer || p == PolicyByPlayerAndCar
}

// ReportsUpserts reports whether the HTTP response names newly created records
func (p Policy) ReportsUpserts() bool {
	return p == PolicyByPlayerAndCar
}

// Key returns the uniqueness key for a record under p.
// The boolean is false for append_only, which has no key.
func (p Policy) Key(rec *ScoreRecord) (ScoreKey, bool) {
	switch p {
	case PolicyByPlayer:
		return ScoreKey{PlayerID: rec.PlayerID}, true
	case PolicyByPlayerAndCar:
		car := rec.CarID
		return ScoreKey{PlayerID: rec.PlayerID, CarID: &car}, true
	default:
		return ScoreKey{}, false
	}
}
