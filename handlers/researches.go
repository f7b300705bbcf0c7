// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/researches/middleware"
	"github.com/danielhkuo/researches/models"
	"github.com/danielhkuo/researches/store"
)

type ResearchHandler struct {
	store *store.Store
}

func NewResearchHandler(s *store.Store) *ResearchHandler {
	return &ResearchHandler{store: s}
}

// SupportedTypes handles GET /researches/supportedTypes
func (h *ResearchHandler) SupportedTypes(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.SupportedResearchTypes)
}

// List handles GET /researches
func (h *ResearchHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	opts := parseListOptions(r)
	items, total, err := h.store.ListResearches(r.Context(), owner, opts)
	if err != nil {
		writeError(w, err, "Research")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.NewCollection(items, opts.Limit, opts.Offset, total))
}

// Create handles POST /researches
func (h *ResearchHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req models.CreateResearchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if !supportedType(w, req.ResearchType) {
		return
	}

	research := models.Research{
		OwnerID:      owner,
		ResearchType: req.ResearchType,
		Name:         req.Name,
		Description:  req.Description,
		Files:        req.Files,
	}
	if err := h.store.CreateResearch(r.Context(), &research); err != nil {
		writeError(w, err, "Research")
		return
	}

	slog.Info("research created", "research_id", research.ID, "owner_id", owner)

	middleware.JSONResponse(w, http.StatusCreated, research)
}

// Get handles GET /researches/{id}
func (h *ResearchHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	research, err := h.store.GetResearch(r.Context(), r.PathValue("id"), owner)
	if err != nil {
		writeError(w, err, "Research")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, research)
}

// Update handles PATCH /researches/{id}
func (h *ResearchHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var patch models.ResearchPatch
	if !decodeAndValidate(w, r, &patch) {
		return
	}
	if patch.ResearchType != nil && !supportedType(w, *patch.ResearchType) {
		return
	}

	research, err := h.store.UpdateResearch(r.Context(), r.PathValue("id"), owner, patch)
	if err != nil {
		writeError(w, err, "Research")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, research)
}

// Delete handles DELETE /researches/{id}
func (h *ResearchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	result, err := h.store.DeleteResearch(r.Context(), id, owner)
	if err != nil {
		writeError(w, err, "Research")
		return
	}

	slog.Info("research deleted",
		"research_id", id,
		"experiments", result.Experiments,
		"comparisons", result.Comparisons)

	w.WriteHeader(http.StatusNoContent)
}

// Copy handles POST /researches/{id}/copy
func (h *ResearchHandler) Copy(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	copied, err := h.store.CopyResearch(r.Context(), id, owner)
	if err != nil {
		writeError(w, err, "Research")
		return
	}

	slog.Info("research copied", "source_id", id, "research_id", copied.ID)

	middleware.JSONResponse(w, http.StatusCreated, copied)
}

// supportedType writes 400 for research types the service cannot analyse.
// An empty type falls back to the default on create.
func supportedType(w http.ResponseWriter, researchType string) bool {
	if researchType == "" {
		return true
	}
	if _, ok := models.SupportedResearchTypes[researchType]; !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unsupported research type: "+researchType)
		return false
	}
	return true
}
