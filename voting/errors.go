// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"errors"
	"fmt"
)

// Outcomes a voter can be told about. None of them carries internal detail
// in its message.
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrAlreadyUsed       = errors.New("credential already used")
	ErrElectionNotOpen   = errors.New("election is not open")
	ErrInvalidChoice     = errors.New("invalid choice")
	ErrInvalidSession    = errors.New("invalid or expired session")
)

// Administrative outcomes.
var (
	ErrElectionNotFound = errors.New("election not found")
	ErrChoiceNotFound   = errors.New("choice not found")
	ErrInvalidCount     = errors.New("invalid credential count")
	ErrChoiceLocked     = errors.New("choice can no longer be edited")
)

// PartialFailureError means a credential was consumed, its vote was not
// stored, and releasing the credential failed as well. The credential is
// recorded in the reconciliation journal.
type PartialFailureError struct {
	ElectionID   string
	CredentialID string
	VoteErr      error
	ResetErr     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("vote not stored and credential not released: vote: %v; reset: %v", e.VoteErr, e.ResetErr)
}

func (e *PartialFailureError) Unwrap() []error {
	return []error{e.VoteErr, e.ResetErr}
}
