// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/researches/middleware"
	"github.com/danielhkuo/researches/models"
)

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Service handles GET /service/health. It reports ok only while the
// database answers.
func (h *HealthHandler) Service(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		slog.Error("database ping failed", "error", err)
		middleware.JSONResponse(w, http.StatusServiceUnavailable, models.HealthResponse{OK: false})
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.HealthResponse{OK: true})
}
