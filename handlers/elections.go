// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/PedroGGomess/lions-clube-gaia/auth"
	"github.com/PedroGGomess/lions-clube-gaia/cliparse"
	"github.com/PedroGGomess/lions-clube-gaia/middleware"
	"github.com/PedroGGomess/lions-clube-gaia/models"
	"github.com/PedroGGomess/lions-clube-gaia/voting"
)

type ElectionHandler struct {
	svc *voting.Service
	cfg cliparse.Config
}

func NewElectionHandler(svc *voting.Service, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{svc: svc, cfg: cfg}
}

// CreateElection handles POST /api/elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	e, adminKey, err := h.svc.CreateElection(r.Context(), req)
	if err != nil {
		writeAdminError(w, err, "Failed to create election")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		ElectionID: e.ID,
		AdminKey:   adminKey,
	})
}

// GetElection handles GET /api/elections/{id}
// Public view of an election and its choices.
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	view, err := h.svc.Election(r.Context(), electionID)
	if err != nil {
		writeAdminError(w, err, "Failed to load election")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, view)
}

// GetElectionAdmin handles GET /api/elections/{id}/admin
func (h *ElectionHandler) GetElectionAdmin(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	view, err := h.svc.Election(r.Context(), electionID)
	if err != nil {
		writeAdminError(w, err, "Failed to load election")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, view)
}

// AddChoice handles POST /api/elections/{id}/choices
func (h *ElectionHandler) AddChoice(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req models.AddChoiceRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	c, err := h.svc.AddChoice(r.Context(), electionID, req)
	if err != nil {
		writeAdminError(w, err, "Failed to add choice")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.AddChoiceResponse{ChoiceID: c.ID})
}

// UpdateChoice handles PUT /api/elections/{id}/choices/{choiceID}
func (h *ElectionHandler) UpdateChoice(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	choiceID := r.PathValue("choiceID")
	if choiceID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "choice id is required")
		return
	}

	var req models.UpdateChoiceRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.svc.UpdateChoiceLabel(r.Context(), electionID, choiceID, req.Label); err != nil {
		writeAdminError(w, err, "Failed to update choice")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]string{"status": "updated"})
}

// SetActive handles POST /api/elections/{id}/active
func (h *ElectionHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req models.SetActiveRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.svc.SetActive(r.Context(), electionID, req.IsActive); err != nil {
		writeAdminError(w, err, "Failed to update election")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"is_active": req.IsActive})
}

// IssueCredentials handles POST /api/elections/{id}/credentials
// The plaintexts appear in this response only.
func (h *ElectionHandler) IssueCredentials(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req models.IssueCredentialsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	codes, err := h.svc.Issue(r.Context(), electionID, req.Count)
	if err != nil {
		writeAdminError(w, err, "Failed to issue credentials")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	middleware.JSONResponse(w, http.StatusCreated, models.IssueCredentialsResponse{
		Credentials: codes,
		Count:       len(codes),
	})
}

// GetStats handles GET /api/elections/{id}/stats
func (h *ElectionHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(r.Context(), electionID)
	if err != nil {
		writeAdminError(w, err, "Failed to load stats")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, stats)
}

// ListCredentials handles GET /api/elections/{id}/credentials
func (h *ElectionHandler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	creds, err := h.svc.Credentials(r.Context(), electionID)
	if err != nil {
		writeAdminError(w, err, "Failed to list credentials")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CredentialListResponse{
		Credentials: creds,
		Count:       len(creds),
	})
}

// GetResults handles GET /api/elections/{id}/results
func (h *ElectionHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	results, err := h.svc.Results(r.Context(), electionID)
	if err != nil {
		writeAdminError(w, err, "Failed to load results")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, results)
}

// authorize checks X-Admin-Key against the election in the path.
func (h *ElectionHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return "", false
	}

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(electionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return "", false
	}

	return electionID, true
}

func writeAdminError(w http.ResponseWriter, err error, fallback string) {
	var ve *voting.ValidationError
	switch {
	case errors.As(err, &ve):
		middleware.ErrorResponse(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, voting.ErrInvalidCount):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, voting.ErrElectionNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
	case errors.Is(err, voting.ErrChoiceNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Choice not found")
	case errors.Is(err, voting.ErrChoiceLocked):
		middleware.ErrorResponse(w, http.StatusConflict, "Choices cannot change once the election has started or received votes")
	default:
		slog.Error(fallback, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, fallback)
	}
}
