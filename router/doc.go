// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the election API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	svc := voting.NewService(store.NewSQLStore(db), cfg, journal)
	limiter := ratelimit.New(counter, cfg.RateLimitMax, cfg.RateLimitWindow)
	mux := router.NewRouter(db, cfg, svc, limiter)

# Endpoints

Health:

	GET /health

Election setup (admin, requires X-Admin-Key):

	POST /api/elections                          - Create election
	GET  /api/elections/{id}/admin               - Election with choices
	POST /api/elections/{id}/choices             - Add choice
	PUT  /api/elections/{id}/choices/{choiceID}  - Rename choice
	POST /api/elections/{id}/active              - Open or close voting
	POST /api/elections/{id}/credentials         - Issue credentials
	GET  /api/elections/{id}/stats               - Participation counts
	GET  /api/elections/{id}/results             - Tally

Public:

	GET  /api/elections/{id}   - Election info and choices
	POST /api/vote/validate    - Check a credential, get a session proof
	POST /api/vote/commit      - Cast the vote

The two voting routes are rate limited per client, each with its own
budget (ScopeValidate, ScopeCommit).
*/
package router
