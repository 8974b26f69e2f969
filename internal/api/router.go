package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/mcoot/raceboard/internal/api/handler"
	"github.com/mcoot/raceboard/internal/api/middleware"
	"github.com/mcoot/raceboard/internal/metrics"
	sharedmw "github.com/mcoot/raceboard/internal/middleware"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger  *slog.Logger
	Ledger  handler.Ledger
	Metrics *metrics.Metrics // optional; /metrics is only served when set
	// ExposeRecordID includes internal record ids in leaderboard rows
	ExposeRecordID bool
}

// NewRouter creates a new API router with all routes configured.
// Every origin is allowed through CORS.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handler.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handler.MethodNotAllowed)

	// Create handlers
	scoreHandler := handler.NewScoreHandler(cfg.Ledger, cfg.ExposeRecordID, cfg.Logger)
	healthHandler := handler.NewHealthHandler(cfg.Ledger)

	// Common middleware, outermost first
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(sharedmw.Metrics(cfg.Metrics))
	}
	r.Use(sharedmw.Logging(cfg.Logger))

	// The subrouter answers for everything under /api, so a wrong method is
	// reported here instead of falling through to the routes below.
	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = http.HandlerFunc(handler.NotFound)
	api.MethodNotAllowedHandler = http.HandlerFunc(handler.MethodNotAllowed)
	api.HandleFunc("/score", scoreHandler.Submit).Methods(http.MethodPost).Name("score")
	api.HandleFunc("/leaderboard", scoreHandler.Leaderboard).Methods(http.MethodGet).Name("leaderboard")
	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet).Name("health")

	r.HandleFunc("/", healthHandler.Root).Methods(http.MethodGet).Name("root")

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet).Name("metrics")
	}

	return cors.AllowAll().Handler(r)
}
