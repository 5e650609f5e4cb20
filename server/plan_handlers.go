package server

import (
	"encoding/json"
	"net/http"

	"CrateFM/core/planner"
	"CrateFM/model"
)

// createPlanRequest is the request body for POST /api/plan.
type createPlanRequest struct {
	Prompt       string               `json:"prompt,omitempty"`
	Intent       *model.DerivedIntent `json:"intent,omitempty"`
	SeedTrackIDs []string             `json:"seedTrackIds,omitempty"`
}

// CreatePlanHandler runs the planning pipeline and installs a new draft plan.
func (h *APIHandler) CreatePlanHandler(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid plan request: "+err.Error())
		return
	}
	if req.Prompt == "" && req.Intent == nil {
		respondError(w, http.StatusBadRequest, "either prompt or intent is required")
		return
	}

	plan, err := h.planner.CreatePlan(r.Context(), planner.PlanRequest{
		Prompt:       req.Prompt,
		Intent:       req.Intent,
		SeedTrackIDs: req.SeedTrackIDs,
	})
	if err != nil {
		respondPlannerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, plan)
}

// CurrentPlanHandler returns the current draft or finalized plan.
func (h *APIHandler) CurrentPlanHandler(w http.ResponseWriter, r *http.Request) {
	plan := h.planner.CurrentPlan()
	if plan == nil {
		respondError(w, http.StatusNotFound, "no current plan")
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// ValidatePlanHandler validates the current plan without mutating it.
func (h *APIHandler) ValidatePlanHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.planner.Validate()
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// FinalizePlanHandler re-validates and finalizes the current plan.
func (h *APIHandler) FinalizePlanHandler(w http.ResponseWriter, r *http.Request) {
	plan, err := h.planner.Finalize()
	if err != nil {
		respondPlannerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// ResequencePlanHandler reorders the current plan deterministically.
func (h *APIHandler) ResequencePlanHandler(w http.ResponseWriter, r *http.Request) {
	plan, err := h.planner.Resequence()
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// ExplainPlanHandler asks the AI collaborator for annotation prose.
func (h *APIHandler) ExplainPlanHandler(w http.ResponseWriter, r *http.Request) {
	plan, err := h.planner.Explain(r.Context())
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// revisePlanRequest is the request body for POST /api/plan/revise.
type revisePlanRequest struct {
	Instructions string `json:"instructions"`
}

// RevisePlanHandler applies a free-text revision via the AI collaborator.
func (h *APIHandler) RevisePlanHandler(w http.ResponseWriter, r *http.Request) {
	var req revisePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid revise request: "+err.Error())
		return
	}
	if req.Instructions == "" {
		respondError(w, http.StatusBadRequest, "instructions are required")
		return
	}

	plan, err := h.planner.Revise(r.Context(), req.Instructions)
	if err != nil {
		respondPlannerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// MixabilityHandler analyzes the current plan's transition flow.
func (h *APIHandler) MixabilityHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.planner.Mixability()
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// CurrentPoolHandler returns the candidate pool behind the current plan.
func (h *APIHandler) CurrentPoolHandler(w http.ResponseWriter, r *http.Request) {
	pool := h.planner.CurrentPool()
	if pool == nil {
		respondError(w, http.StatusNotFound, "no candidate pool")
		return
	}
	respondJSON(w, http.StatusOK, pool)
}

// FinalizedPlansHandler returns the append-only finalization history.
func (h *APIHandler) FinalizedPlansHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.planner.FinalizedPlans())
}
