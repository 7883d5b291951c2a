// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the election API.

# Handler Types

  - ElectionHandler: election setup, credential issuance, stats and results
  - BallotHandler: credential validation and vote commit
  - HealthHandler: database and schema checks (nil db for memory storage)

Election and ballot handlers wrap a *voting.Service; the health handler
takes the *sql.DB directly:

	svc := voting.NewService(store.NewSQLStore(conn), cfg, journal)
	electionHandler := handlers.NewElectionHandler(svc, cfg)

# Election Setup

	POST /api/elections                          → CreateElection (returns admin_key)
	POST /api/elections/{id}/choices             → AddChoice (before starts_at)
	PUT  /api/elections/{id}/choices/{choiceID}  → UpdateChoice (before starts_at, no votes)
	POST /api/elections/{id}/active              → SetActive
	POST /api/elections/{id}/credentials         → IssueCredentials
	GET  /api/elections/{id}/credentials         → ListCredentials (state only)
	GET  /api/elections/{id}/admin               → GetElectionAdmin
	GET  /api/elections/{id}/stats               → GetStats
	GET  /api/elections/{id}/results             → GetResults

Everything except CreateElection requires the X-Admin-Key header.
Issued credentials are returned once and are not stored in plaintext.
ListCredentials reports id, consumed, consumed_at and created_at, never
the hash.

# Voting Flow

	POST /api/vote/validate → Validate (returns session_proof and choices)
	POST /api/vote/commit   → Commit (consumes the credential, records the vote)

Validate never consumes a credential. Commit accepts a session proof at
most once per credential; concurrent commits with the same proof record
a single vote and the rest get 409.

Voter-facing failures carry a short reason and never internal errors:

	404 credential not found
	409 credential already used, or election not open
	400 choice not in the election
	401 session proof invalid or expired
	500 anything else

# Response Format

Admin endpoints use the middleware helpers:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Ballot endpoints always answer with ValidateResponse or CommitResponse so
clients can read the reason field.
*/
package handlers
