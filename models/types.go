package models

import "time"

// Credential hash schemes. The active scheme is part of the persisted
// contract: rows hashed under one scheme are only found by that scheme.
const (
	HashSchemeV1 = "v1"
)

// Request types

type CreateElectionRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
}

type AddChoiceRequest struct {
	Label        string `json:"label"`
	DisplayOrder int    `json:"display_order"`
}

type UpdateChoiceRequest struct {
	Label string `json:"label"`
}

type SetActiveRequest struct {
	IsActive bool `json:"is_active"`
}

type IssueCredentialsRequest struct {
	Count int `json:"count"`
}

type ValidateRequest struct {
	Credential string `json:"credential"`
}

type CommitRequest struct {
	SessionProof string `json:"session_proof"`
	ChoiceID     string `json:"choice_id"`
}

// Response types

type CreateElectionResponse struct {
	ElectionID string `json:"election_id"`
	AdminKey   string `json:"admin_key"`
}

type AddChoiceResponse struct {
	ChoiceID string `json:"choice_id"`
}

// Credentials are shown once, here, and never again.
type IssueCredentialsResponse struct {
	Credentials []string `json:"credentials"`
	Count       int      `json:"count"`
}

// CredentialListResponse carries credential state only, never hashes or
// plaintext.
type CredentialListResponse struct {
	Credentials []Credential `json:"credentials"`
	Count       int          `json:"count"`
}

type ValidateResponse struct {
	Valid        bool     `json:"valid"`
	Reason       string   `json:"reason,omitempty"`
	SessionProof string   `json:"session_proof,omitempty"`
	ElectionID   string   `json:"election_id,omitempty"`
	Choices      []Choice `json:"choices,omitempty"`
}

type CommitResponse struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// Domain types

type Election struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsOpen reports whether redemptions and commits are allowed at now.
// The window is half-open: [StartsAt, EndsAt).
func (e Election) IsOpen(now time.Time) bool {
	return e.IsActive && !now.Before(e.StartsAt) && now.Before(e.EndsAt)
}

type Choice struct {
	ID           string `json:"id"`
	ElectionID   string `json:"election_id"`
	Label        string `json:"label"`
	DisplayOrder int    `json:"display_order"`
}

type ElectionWithChoices struct {
	Election Election `json:"election"`
	Choices  []Choice `json:"choices"`
}

// Credential never carries the plaintext, only its one-way hash.
type Credential struct {
	ID         string     `json:"id"`
	ElectionID string     `json:"election_id"`
	Hash       string     `json:"-"` // Never expose in JSON
	HashScheme string     `json:"-"`
	Consumed   bool       `json:"consumed"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Vote has no credential or voter reference and no timestamp.
type Vote struct {
	ID         string `json:"id"`
	ElectionID string `json:"election_id"`
	ChoiceID   string `json:"choice_id"`
}

// Participation is computed by counting rows.
type Participation struct {
	ElectionID    string `json:"election_id"`
	IssuedCount   int    `json:"issued_count"`
	ConsumedCount int    `json:"consumed_count"`
	VoteCount     int    `json:"vote_count"`
}

// Unmatched is the number of consumed credentials with no matching vote.
func (p Participation) Unmatched() int {
	return p.ConsumedCount - p.VoteCount
}

// Consistent reports whether votes never exceed consumed credentials.
func (p Participation) Consistent() bool {
	return p.VoteCount <= p.ConsumedCount
}

type ChoiceTally struct {
	ChoiceID   string  `json:"choice_id"`
	Label      string  `json:"label"`
	Votes      int     `json:"votes"`
	Percentage float64 `json:"percentage"`
}

type StatsResponse struct {
	Participation
	Unmatched     int           `json:"unmatched"`
	Consistent    bool          `json:"consistent"`
	VotesByChoice []ChoiceTally `json:"votes_by_choice"`
}

type ResultsResponse struct {
	Election   Election      `json:"election"`
	TotalVotes int           `json:"total_votes"`
	Choices    []ChoiceTally `json:"choices"`
}

type HealthResponse struct {
	Status  string          `json:"status"`
	Storage string          `json:"storage"`
	Tables  map[string]bool `json:"tables,omitempty"`
	Errors  []string        `json:"errors,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
