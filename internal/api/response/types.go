package response

import (
	"time"

	"github.com/mcoot/raceboard/internal/model"
)

// SubmitScoreResponse is the response for POST /api/score
type SubmitScoreResponse struct {
	OK       bool   `json:"ok"`
	Upserted string `json:"upserted,omitempty"`
}

// SubmitScoreResponseFromResult builds the response for a successful
// submission. The created record's id is reported only when the policy
// calls for it.
func SubmitScoreResponseFromResult(policy model.Policy, res *model.SubmitResult) SubmitScoreResponse {
	resp := SubmitScoreResponse{OK: true}
	if policy.ReportsUpserts() && res.Created {
		resp.Upserted = string(res.ID)
	}
	return resp
}

// ScoreRecord represents a leaderboard row in API responses
type ScoreRecord struct {
	ID         string      `json:"id,omitempty"`
	PlayerID   string      `json:"playerID,omitempty"`
	PlayerName string      `json:"playerName"`
	CarID      model.CarID `json:"carID"`
	Distance   float64     `json:"distance"`
	LastUpdate time.Time   `json:"lastUpdate"`
}

// ScoreRecordFromModel converts a model.ScoreRecord. The internal id is
// only included when exposeID is set.
func ScoreRecordFromModel(r *model.ScoreRecord, exposeID bool) ScoreRecord {
	out := ScoreRecord{
		PlayerID:   string(r.PlayerID),
		PlayerName: r.PlayerName,
		CarID:      r.CarID,
		Distance:   r.Distance,
		LastUpdate: r.LastUpdate,
	}
	if exposeID {
		out.ID = string(r.ID)
	}
	return out
}

// LeaderboardFromModel converts a ranked slice, preserving order.
// The result is never nil so it encodes as [] when empty.
func LeaderboardFromModel(records []*model.ScoreRecord, exposeID bool) []ScoreRecord {
	out := make([]ScoreRecord, 0, len(records))
	for _, r := range records {
		out = append(out, ScoreRecordFromModel(r, exposeID))
	}
	return out
}

// HealthResponse is the response for GET /api/health
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
