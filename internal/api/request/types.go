package request

import (
	"github.com/mcoot/raceboard/internal/model"
)

// MaxBodyBytes bounds the size of a request body
const MaxBodyBytes = 100 << 10

// SubmitScoreRequest is the request body for submitting a score.
// Pointer fields distinguish absent (or null) from zero values.
type SubmitScoreRequest struct {
	PlayerID   *string      `json:"playerID"`
	PlayerName *string      `json:"playerName"`
	CarID      *model.CarID `json:"carID"`
	Distance   *float64     `json:"distance"`
}

// ToSubmission converts the request into a ledger submission
func (r SubmitScoreRequest) ToSubmission() model.Submission {
	return model.Submission{
		PlayerID:   r.PlayerID,
		PlayerName: r.PlayerName,
		CarID:      r.CarID,
		Distance:   r.Distance,
	}
}
