// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PedroGGomess/lions-clube-gaia/cliparse"
	"github.com/PedroGGomess/lions-clube-gaia/middleware"
	"github.com/PedroGGomess/lions-clube-gaia/models"
	"github.com/PedroGGomess/lions-clube-gaia/voting"
)

// Messages shown to voters. They never include internal detail.
const (
	msgInvalidCredential = "Credential not found"
	msgAlreadyUsed       = "This credential has already been used"
	msgElectionNotOpen   = "The election is not open for voting"
	msgInvalidChoice     = "Invalid choice for this election"
	msgInvalidSession    = "Your voting session is invalid or has expired, validate your credential again"
	msgVoteNotRecorded   = "Your vote could not be recorded, please contact the election organizers"
	msgTryAgain          = "Something went wrong, please try again"
)

type BallotHandler struct {
	svc *voting.Service
	cfg cliparse.Config
}

func NewBallotHandler(svc *voting.Service, cfg cliparse.Config) *BallotHandler {
	return &BallotHandler{svc: svc, cfg: cfg}
}

// Validate handles POST /api/vote/validate
// A valid credential gets a session proof for Commit; nothing is consumed.
func (h *BallotHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.JSONResponse(w, http.StatusBadRequest, models.ValidateResponse{Reason: "Invalid JSON"})
		return
	}

	if strings.TrimSpace(req.Credential) == "" {
		middleware.JSONResponse(w, http.StatusBadRequest, models.ValidateResponse{Reason: "credential is required"})
		return
	}

	red, err := h.svc.Redeem(r.Context(), req.Credential)
	if err != nil {
		status, reason := ballotError(err)
		if status == http.StatusInternalServerError {
			slog.Error("failed to validate credential", "error", err)
		}
		middleware.JSONResponse(w, status, models.ValidateResponse{Reason: reason})
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ValidateResponse{
		Valid:        true,
		SessionProof: red.SessionProof,
		ElectionID:   red.ElectionID,
		Choices:      red.Choices,
	})
}

// Commit handles POST /api/vote/commit
func (h *BallotHandler) Commit(w http.ResponseWriter, r *http.Request) {
	var req models.CommitRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.JSONResponse(w, http.StatusBadRequest, models.CommitResponse{Reason: "Invalid JSON"})
		return
	}

	if req.SessionProof == "" {
		middleware.JSONResponse(w, http.StatusUnauthorized, models.CommitResponse{Reason: msgInvalidSession})
		return
	}
	if req.ChoiceID == "" {
		middleware.JSONResponse(w, http.StatusBadRequest, models.CommitResponse{Reason: "choice_id is required"})
		return
	}

	if err := h.svc.Commit(r.Context(), req.SessionProof, req.ChoiceID); err != nil {
		status, reason := ballotError(err)
		if status == http.StatusInternalServerError {
			slog.Error("failed to commit vote", "error", err)
		}
		middleware.JSONResponse(w, status, models.CommitResponse{Reason: reason})
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CommitResponse{Success: true})
}

// ballotError maps a service error to a status and a voter-facing reason.
func ballotError(err error) (int, string) {
	var pf *voting.PartialFailureError
	switch {
	case errors.Is(err, voting.ErrInvalidCredential):
		return http.StatusNotFound, msgInvalidCredential
	case errors.Is(err, voting.ErrAlreadyUsed):
		return http.StatusConflict, msgAlreadyUsed
	case errors.Is(err, voting.ErrElectionNotOpen):
		return http.StatusConflict, msgElectionNotOpen
	case errors.Is(err, voting.ErrInvalidChoice):
		return http.StatusBadRequest, msgInvalidChoice
	case errors.Is(err, voting.ErrInvalidSession):
		return http.StatusUnauthorized, msgInvalidSession
	case errors.As(err, &pf):
		return http.StatusInternalServerError, msgVoteNotRecorded
	default:
		return http.StatusInternalServerError, msgTryAgain
	}
}
