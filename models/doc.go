// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateElectionRequest: title, description, starts_at, ends_at
  - AddChoiceRequest: label, display_order
  - UpdateChoiceRequest: label
  - SetActiveRequest: is_active
  - IssueCredentialsRequest: count
  - ValidateRequest: credential
  - CommitRequest: session_proof, choice_id

# Response Types

  - CreateElectionResponse: election_id, admin_key
  - IssueCredentialsResponse: credentials (plaintext, shown once)
  - ValidateResponse: valid, reason, session_proof, election_id, choices
  - CommitResponse: success, reason
  - StatsResponse, ResultsResponse, HealthResponse
  - ErrorResponse: error, message

# Domain Types

  - Election: time window [starts_at, ends_at) plus activation flag
  - Choice: option belonging to exactly one election
  - Credential: hash, hash scheme, consumed flag and timestamp
  - Vote: (election, choice) only
  - Participation: issued, consumed and vote counts

Credential.Hash is tagged json:"-". No type in this package holds a
plaintext credential except IssueCredentialsResponse and ValidateRequest.
*/
package models
