package server

import (
	"encoding/json"
	"net/http"

	"CrateFM/core/camelot"
	"CrateFM/logger"
	"CrateFM/model"

	"github.com/gorilla/mux"
)

// AddTrackHandler registers or upserts a track in the catalog.
func (h *APIHandler) AddTrackHandler(w http.ResponseWriter, r *http.Request) {
	var track model.Track
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
		respondError(w, http.StatusBadRequest, "invalid track payload: "+err.Error())
		return
	}

	if track.Title == "" || track.Artist == "" {
		respondError(w, http.StatusBadRequest, "title and artist are required")
		return
	}
	if track.Duration <= 0 {
		respondError(w, http.StatusBadRequest, "duration must be a positive number of seconds")
		return
	}
	if track.BPM <= 0 {
		respondError(w, http.StatusBadRequest, "bpm must be positive")
		return
	}
	if !camelot.IsValid(track.Key) {
		respondError(w, http.StatusBadRequest, "key must be a Camelot position, 1A-12B")
		return
	}
	if track.Energy != 0 && (track.Energy < 1 || track.Energy > 5) {
		respondError(w, http.StatusBadRequest, "energy must be between 1 and 5")
		return
	}

	stored := h.trackRepo.Add(&track)
	logger.Debug("Track registered",
		logger.String("trackId", stored.ID),
		logger.String("title", stored.Title))
	respondJSON(w, http.StatusCreated, stored)
}

// GetTracksHandler lists the full catalog in insertion order.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.trackRepo.GetAll())
}

// GetTrackHandler returns a single track by id.
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	track, ok := h.trackRepo.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "track not found")
		return
	}
	respondJSON(w, http.StatusOK, track)
}

// UpdateTrackHandler merges a partial update into an existing track.
func (h *APIHandler) UpdateTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var update model.TrackUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "invalid update payload: "+err.Error())
		return
	}
	if update.Key != nil && !camelot.IsValid(*update.Key) {
		respondError(w, http.StatusBadRequest, "key must be a Camelot position, 1A-12B")
		return
	}

	track, ok := h.trackRepo.Update(id, update)
	if !ok {
		respondError(w, http.StatusNotFound, "track not found")
		return
	}
	respondJSON(w, http.StatusOK, track)
}

// RemoveTrackHandler deletes a track from the catalog.
func (h *APIHandler) RemoveTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.trackRepo.Remove(id) {
		respondError(w, http.StatusNotFound, "track not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"removed": id})
}

// SearchTracksHandler runs a conjunctive filter over the catalog.
func (h *APIHandler) SearchTracksHandler(w http.ResponseWriter, r *http.Request) {
	var filter model.TrackFilter
	if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
		respondError(w, http.StatusBadRequest, "invalid filter payload: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.trackRepo.Search(filter))
}

// StatsHandler returns aggregate catalog statistics.
func (h *APIHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.trackRepo.Stats())
}
