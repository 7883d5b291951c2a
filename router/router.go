// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/PedroGGomess/lions-clube-gaia/cliparse"
	"github.com/PedroGGomess/lions-clube-gaia/handlers"
	"github.com/PedroGGomess/lions-clube-gaia/middleware"
	"github.com/PedroGGomess/lions-clube-gaia/ratelimit"
	"github.com/PedroGGomess/lions-clube-gaia/voting"
)

// Rate limit scopes. Each has its own budget per client.
const (
	ScopeValidate = "validate"
	ScopeCommit   = "commit"
)

// NewRouter wires every endpoint onto a ServeMux. db backs the health
// check and is nil when the service runs on the memory store.
func NewRouter(db *sql.DB, cfg cliparse.Config, svc *voting.Service, limiter *ratelimit.Limiter) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(svc, cfg)
	ballotHandler := handlers.NewBallotHandler(svc, cfg)
	healthHandler := handlers.NewHealthHandler(db)

	mux.HandleFunc("GET /health", healthHandler.Health)

	// Election setup (admin operations)
	mux.HandleFunc("POST /api/elections", middleware.WithLogging(electionHandler.CreateElection))
	mux.HandleFunc("GET /api/elections/{id}/admin", middleware.WithLogging(electionHandler.GetElectionAdmin))
	mux.HandleFunc("POST /api/elections/{id}/choices", middleware.WithLogging(electionHandler.AddChoice))
	mux.HandleFunc("PUT /api/elections/{id}/choices/{choiceID}", middleware.WithLogging(electionHandler.UpdateChoice))
	mux.HandleFunc("POST /api/elections/{id}/active", middleware.WithLogging(electionHandler.SetActive))
	mux.HandleFunc("POST /api/elections/{id}/credentials", middleware.WithLogging(electionHandler.IssueCredentials))
	mux.HandleFunc("GET /api/elections/{id}/credentials", middleware.WithLogging(electionHandler.ListCredentials))
	mux.HandleFunc("GET /api/elections/{id}/stats", middleware.WithLogging(electionHandler.GetStats))
	mux.HandleFunc("GET /api/elections/{id}/results", middleware.WithLogging(electionHandler.GetResults))

	// Public election view
	mux.HandleFunc("GET /api/elections/{id}", middleware.WithLogging(electionHandler.GetElection))

	// Voting (public, rate limited per client)
	mux.HandleFunc("POST /api/vote/validate", middleware.WithLogging(
		middleware.RateLimit(limiter, ScopeValidate, cfg.AdminKeySalt, ballotHandler.Validate)))
	mux.HandleFunc("POST /api/vote/commit", middleware.WithLogging(
		middleware.RateLimit(limiter, ScopeCommit, cfg.AdminKeySalt, ballotHandler.Commit)))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("lions-clube-gaia API v1"))
	})

	return mux
}
