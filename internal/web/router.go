package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/raceboard/internal/metrics"
	sharedmw "github.com/mcoot/raceboard/internal/middleware"
	"github.com/mcoot/raceboard/internal/web/handler"
	"github.com/mcoot/raceboard/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger  *slog.Logger
	Ledger  handler.Ledger
	Metrics *metrics.Metrics // optional
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Apply global middleware to all routes
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(sharedmw.Metrics(cfg.Metrics))
	}
	r.Use(sharedmw.Logging(cfg.Logger))

	leaderboardHandler := handler.NewLeaderboardHandler(cfg.Ledger, cfg.Logger)
	r.HandleFunc("/leaderboard", leaderboardHandler.Show).Methods(http.MethodGet).Name("leaderboard_page")

	return r
}
