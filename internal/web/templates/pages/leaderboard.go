package pages

import (
	"strconv"

	"github.com/mcoot/raceboard/internal/web/templates/layout"
)

// LeaderboardRow is one rendered leaderboard entry
type LeaderboardRow struct {
	Rank       int
	PlayerName string
	CarID      string
	Distance   float64
}

// LeaderboardData is the data for the leaderboard page
type LeaderboardData struct {
	layout.PageData
	Policy string
	Rows   []LeaderboardRow
}

func policyLabel(policy string) string {
	switch policy {
	case "by_player":
		return "per player"
	case "by_player_and_car":
		return "per player and car"
	case "append_only":
		return "for every run"
	}
	return policy
}

func formatDistance(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}
