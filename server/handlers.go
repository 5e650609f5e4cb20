package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"CrateFM/config"
	"CrateFM/core/planner"
	"CrateFM/logger"
	"CrateFM/repository"
)

// APIHandler carries the dependencies shared by all HTTP handlers.
type APIHandler struct {
	trackRepo repository.TrackRepository
	planner   *planner.Planner
	cfg       *config.Config
}

// NewAPIHandler creates the handler set for the API surface.
func NewAPIHandler(trackRepo repository.TrackRepository, p *planner.Planner, cfg *config.Config) *APIHandler {
	return &APIHandler{
		trackRepo: trackRepo,
		planner:   p,
		cfg:       cfg,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("Failed to encode response", logger.ErrorField(err))
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondPlannerError maps the planner error taxonomy onto HTTP statuses.
func respondPlannerError(w http.ResponseWriter, err error) {
	var constraintErr *planner.ConstraintError
	var notFoundErr *planner.NotFoundError
	var finalizeErr *planner.FinalizeError
	var revisionErr *planner.RevisionFailedError

	switch {
	case errors.As(err, &constraintErr):
		respondError(w, http.StatusBadRequest, constraintErr.Error())
	case errors.As(err, &notFoundErr):
		respondError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &finalizeErr):
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"error":  "plan failed validation at finalize",
			"errors": finalizeErr.Errors,
		})
	case errors.As(err, &revisionErr):
		respondError(w, http.StatusBadGateway, revisionErr.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
