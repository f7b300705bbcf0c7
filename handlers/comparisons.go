// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/researches/comparison"
	"github.com/danielhkuo/researches/middleware"
	"github.com/danielhkuo/researches/models"
	"github.com/danielhkuo/researches/store"
)

type ComparisonHandler struct {
	store *store.Store
	ctrl  *comparison.Controller
}

func NewComparisonHandler(s *store.Store, ctrl *comparison.Controller) *ComparisonHandler {
	return &ComparisonHandler{store: s, ctrl: ctrl}
}

// List handles GET /comparisons
func (h *ComparisonHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	opts := parseListOptions(r)
	items, total, err := h.store.ListComparisons(r.Context(), owner, opts)
	if err != nil {
		writeError(w, err, "Comparison")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.NewCollection(items, opts.Limit, opts.Offset, total))
}

// Create handles POST /comparisons
func (h *ComparisonHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req models.CreateComparisonRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cmp, err := h.ctrl.Create(r.Context(), models.Comparison{
		OwnerID:        owner,
		ResearchID:     req.ResearchID,
		BaseResearchID: req.BaseResearchID,
		ExperimentID:   req.ExperimentID,
	}, authHeader(r))
	if err != nil {
		writeError(w, err, "Research")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, cmp)
}

// Get handles GET /comparisons/{id}. Reading an open comparison may
// re-trigger its computation.
func (h *ComparisonHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	cmp, err := h.ctrl.GetOrTrigger(r.Context(), r.PathValue("id"), owner, authHeader(r))
	if err != nil {
		writeError(w, err, "Comparison")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, cmp)
}

// Delete handles DELETE /comparisons/{id}
func (h *ComparisonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if err := h.store.DeleteComparison(r.Context(), id, owner); err != nil {
		writeError(w, err, "Comparison")
		return
	}

	slog.Info("comparison deleted", "comparison_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// Actualize handles PATCH /comparisons/{id}/actualization
func (h *ComparisonHandler) Actualize(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var progress models.Progress
	if !decodeAndValidate(w, r, &progress) {
		return
	}

	if err := h.ctrl.Actualize(r.Context(), r.PathValue("id"), owner, progress); err != nil {
		writeError(w, err, "Comparison")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Finalize handles PATCH /comparisons/{id}/finalization
func (h *ComparisonHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var final models.Finalization
	if !decodeAndValidate(w, r, &final) {
		return
	}

	if err := h.ctrl.Finalize(r.Context(), r.PathValue("id"), owner, final); err != nil {
		writeError(w, err, "Comparison")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
