package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mcoot/raceboard/internal/model"
	"github.com/mcoot/raceboard/internal/web/templates/layout"
	"github.com/mcoot/raceboard/internal/web/templates/pages"
)

// Ledger is the read side of the score ledger
type Ledger interface {
	Leaderboard(ctx context.Context) ([]*model.ScoreRecord, error)
	Policy() model.Policy
}

// LeaderboardHandler handles the leaderboard page
type LeaderboardHandler struct {
	ledger Ledger
	logger *slog.Logger
}

// NewLeaderboardHandler creates a new LeaderboardHandler
func NewLeaderboardHandler(ledger Ledger, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{ledger: ledger, logger: logger}
}

// Show renders the leaderboard page
func (h *LeaderboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	records, err := h.ledger.Leaderboard(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "render leaderboard failed", slog.String("error", err.Error()))
		http.Error(w, "Leaderboard is unavailable right now", http.StatusInternalServerError)
		return
	}

	rows := make([]pages.LeaderboardRow, len(records))
	for i, rec := range records {
		rows[i] = pages.LeaderboardRow{
			Rank:       i + 1,
			PlayerName: rec.PlayerName,
			CarID:      rec.CarID.String(),
			Distance:   rec.Distance,
		}
	}

	data := pages.LeaderboardData{
		PageData: layout.PageData{Title: "Leaderboard"},
		Policy:   string(h.ledger.Policy()),
		Rows:     rows,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.Leaderboard(data).Render(r.Context(), w); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
