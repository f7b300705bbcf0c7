// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/researches/analysis"
	"github.com/danielhkuo/researches/middleware"
	"github.com/danielhkuo/researches/models"
	"github.com/danielhkuo/researches/store"
)

type ExperimentHandler struct {
	store  *store.Store
	engine *analysis.Engine
}

func NewExperimentHandler(s *store.Store, engine *analysis.Engine) *ExperimentHandler {
	return &ExperimentHandler{store: s, engine: engine}
}

// List handles GET /experiments
func (h *ExperimentHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	opts := parseListOptions(r)
	items, total, err := h.store.ListExperiments(r.Context(), owner, opts)
	if err != nil {
		writeError(w, err, "Experiment")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.NewCollection(items, opts.Limit, opts.Offset, total))
}

// Create handles POST /experiments. Peaks, matched elements and results are
// computed by the analysis service before anything is stored.
func (h *ExperimentHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req models.CreateExperimentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	// The parent research must belong to the caller
	if _, err := h.store.GetResearch(r.Context(), req.ResearchID, owner); err != nil {
		writeError(w, err, "Research")
		return
	}

	exp := models.Experiment{
		OwnerID:                  owner,
		ResearchID:               req.ResearchID,
		FileID:                   req.FileID,
		Name:                     req.Name,
		Description:              req.Description,
		PeaksSearchSettings:      req.PeaksSearchSettings,
		ChemicalElementsSettings: req.ChemicalElementsSettings,
	}
	if err := h.engine.Initialize(r.Context(), &exp, authHeader(r)); err != nil {
		writeError(w, err, "Experiment")
		return
	}

	if err := h.store.CreateExperiment(r.Context(), &exp); err != nil {
		writeError(w, err, "Experiment")
		return
	}

	slog.Info("experiment created",
		"experiment_id", exp.ID,
		"research_id", exp.ResearchID,
		"peaks", len(exp.Peaks),
		"results", len(exp.ExperimentResults))

	middleware.JSONResponse(w, http.StatusCreated, exp)
}

// Get handles GET /experiments/{id}
func (h *ExperimentHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	exp, err := h.store.GetExperiment(r.Context(), r.PathValue("id"), owner)
	if err != nil {
		writeError(w, err, "Experiment")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, exp)
}

// Update handles PATCH /experiments/{id}. Changed settings cascade through
// the derived fields; an analysis failure leaves the stored record as is.
func (h *ExperimentHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var patch models.ExperimentPatch
	if !decodeAndValidate(w, r, &patch) {
		return
	}

	id := r.PathValue("id")
	existing, err := h.store.GetExperiment(r.Context(), id, owner)
	if err != nil {
		writeError(w, err, "Experiment")
		return
	}

	upd, err := h.engine.Reconcile(r.Context(), existing, patch, authHeader(r))
	if err != nil {
		writeError(w, err, "Experiment")
		return
	}

	if upd.IsEmpty() {
		middleware.JSONResponse(w, http.StatusOK, existing)
		return
	}

	if err := h.store.UpdateExperiment(r.Context(), id, owner, upd); err != nil {
		writeError(w, err, "Experiment")
		return
	}

	slog.Info("experiment updated",
		"experiment_id", id,
		"peaks_recomputed", upd.Peaks != nil,
		"elements_recomputed", upd.AutoSuggestions != nil,
		"results_recomputed", upd.ExperimentResults != nil)

	updated, err := h.store.GetExperiment(r.Context(), id, owner)
	if err != nil {
		writeError(w, err, "Experiment")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /experiments/{id}
func (h *ExperimentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if err := h.store.DeleteExperiment(r.Context(), id, owner); err != nil {
		writeError(w, err, "Experiment")
		return
	}

	slog.Info("experiment deleted", "experiment_id", id)

	w.WriteHeader(http.StatusNoContent)
}
