package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcoot/raceboard/internal/api/request"
	"github.com/mcoot/raceboard/internal/api/response"
	"github.com/mcoot/raceboard/internal/model"
)

// Ledger is the part of the score ledger the HTTP layer uses
type Ledger interface {
	Submit(ctx context.Context, sub model.Submission) (*model.SubmitResult, error)
	Leaderboard(ctx context.Context) ([]*model.ScoreRecord, error)
	Policy() model.Policy
	Ping(ctx context.Context) error
}

// ScoreHandler handles score submission and leaderboard endpoints
type ScoreHandler struct {
	ledger   Ledger
	exposeID bool
	logger   *slog.Logger
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(ledger Ledger, exposeID bool, logger *slog.Logger) *ScoreHandler {
	return &ScoreHandler{
		ledger:   ledger,
		exposeID: exposeID,
		logger:   logger,
	}
}

// Submit handles POST /api/score
func (h *ScoreHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, request.MaxBodyBytes)

	var req request.SubmitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, NewInvalidInputError("Request body too large"))
			return
		}
		if errors.Is(err, model.ErrInvalidCarID) {
			WriteError(w, NewInvalidInputError(model.ErrInvalidCarID.Error()))
			return
		}
		WriteError(w, NewInvalidInputError("Invalid request body"))
		return
	}

	result, err := h.ledger.Submit(r.Context(), req.ToSubmission())
	if err != nil {
		if Status(err) >= http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "POST /api/score failed", slog.String("error", err.Error()))
		}
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SubmitScoreResponseFromResult(h.ledger.Policy(), result))
}

// Leaderboard handles GET /api/leaderboard
func (h *ScoreHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	records, err := h.ledger.Leaderboard(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "GET /api/leaderboard failed", slog.String("error", err.Error()))
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(records, h.exposeID))
}
