// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/PedroGGomess/lions-clube-gaia/db"
	"github.com/PedroGGomess/lions-clube-gaia/middleware"
	"github.com/PedroGGomess/lions-clube-gaia/models"
)

type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler takes the SQL connection backing the store, or nil when
// votes are kept in memory.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health handles GET /health
// Reports 503 when the database is unreachable or a table is missing.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		middleware.JSONResponse(w, http.StatusOK, models.HealthResponse{Status: "ok", Storage: "memory"})
		return
	}

	resp := models.HealthResponse{
		Status:  "ok",
		Storage: "database",
		Tables:  make(map[string]bool, len(db.RequiredTables)),
	}

	if err := h.db.PingContext(r.Context()); err != nil {
		slog.Error("health check ping failed", "error", err)
		resp.Status = "unavailable"
		resp.Errors = append(resp.Errors, "database unreachable")
		middleware.JSONResponse(w, http.StatusServiceUnavailable, resp)
		return
	}

	for _, t := range db.RequiredTables {
		resp.Tables[t] = true
	}
	for _, t := range db.MissingTables(h.db) {
		resp.Tables[t] = false
		resp.Errors = append(resp.Errors, "missing table "+t)
	}

	status := http.StatusOK
	if len(resp.Errors) > 0 {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	middleware.JSONResponse(w, status, resp)
}
