package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"CrateFM/config"
	"CrateFM/core/planner"
	"CrateFM/model"
	"CrateFM/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, repository.TrackRepository) {
	t.Helper()
	repo := repository.NewMemoryTrackRepository()
	p := planner.NewPlanner(repo, nil)
	h := NewAPIHandler(repo, p, &config.Config{})
	return newRouter(h), repo
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validTrack(id string, bpm float64) *model.Track {
	return &model.Track{
		ID:       id,
		Title:    "title-" + id,
		Artist:   "artist-" + id,
		Genre:    "house",
		BPM:      bpm,
		Key:      "8A",
		Duration: 360,
		Energy:   3,
	}
}

func TestAddTrackRoundTrip(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/tracks", validTrack("", 122))
	require.Equal(t, http.StatusCreated, rec.Code)

	var stored model.Track
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.NotEmpty(t, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())

	rec = doJSON(t, router, http.MethodGet, "/api/tracks/"+stored.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAddTrackRejectsBadFields(t *testing.T) {
	router, _ := newTestRouter(t)

	cases := []struct {
		name   string
		mutate func(*model.Track)
	}{
		{"missing title", func(tr *model.Track) { tr.Title = "" }},
		{"missing artist", func(tr *model.Track) { tr.Artist = "" }},
		{"zero duration", func(tr *model.Track) { tr.Duration = 0 }},
		{"zero bpm", func(tr *model.Track) { tr.BPM = 0 }},
		{"bogus key", func(tr *model.Track) { tr.Key = "13C" }},
		{"energy out of range", func(tr *model.Track) { tr.Energy = 6 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := validTrack("", 122)
			tc.mutate(tr)
			rec := doJSON(t, router, http.MethodPost, "/api/tracks", tr)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetTrackNotFound(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/api/tracks/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateAndRemoveTrack(t *testing.T) {
	router, repo := newTestRouter(t)
	repo.Add(validTrack("t1", 122))

	newBPM := 126.0
	rec := doJSON(t, router, http.MethodPut, "/api/tracks/t1", model.TrackUpdate{BPM: &newBPM})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated model.Track
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, 126.0, updated.BPM)

	badKey := "99Z"
	rec = doJSON(t, router, http.MethodPut, "/api/tracks/t1", model.TrackUpdate{Key: &badKey})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/tracks/t1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodDelete, "/api/tracks/t1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchTracks(t *testing.T) {
	router, repo := newTestRouter(t)
	repo.Add(validTrack("t1", 122))
	repo.Add(validTrack("t2", 140))

	min := 130.0
	rec := doJSON(t, router, http.MethodPost, "/api/tracks/search", model.TrackFilter{BPMMin: &min})
	require.Equal(t, http.StatusOK, rec.Code)

	var results []model.Track
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "t2", results[0].ID)
}

func TestPlanLifecycleOverHTTP(t *testing.T) {
	router, repo := newTestRouter(t)
	for i := 0; i < 6; i++ {
		repo.Add(validTrack(fmt.Sprintf("t%d", i+1), 120+float64(i)))
	}

	// No plan yet.
	rec := doJSON(t, router, http.MethodGet, "/api/plan", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/plan", createPlanRequest{
		Intent: &model.DerivedIntent{
			BPMRange:       model.BPMRange{Min: 118, Max: 128},
			TargetDuration: 2000,
		},
		SeedTrackIDs: []string{"t3"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var plan model.CratePlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, "t3", plan.TrackIDs[0])
	assert.False(t, plan.Finalized)

	rec = doJSON(t, router, http.MethodGet, "/api/plan/validate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result model.ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.IsValid)

	rec = doJSON(t, router, http.MethodGet, "/api/plan/mixability", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/plan/pool", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/plan/finalize", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.True(t, plan.Finalized)

	rec = doJSON(t, router, http.MethodGet, "/api/plans/finalized", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []model.CratePlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 1)
}

func TestCreatePlanRequiresPromptOrIntent(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/api/plan", createPlanRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePlanErrorMapping(t *testing.T) {
	router, repo := newTestRouter(t)
	repo.Add(validTrack("t1", 122))

	// Unknown seed track maps to 404.
	rec := doJSON(t, router, http.MethodPost, "/api/plan", createPlanRequest{
		Intent:       &model.DerivedIntent{BPMRange: model.BPMRange{Min: 100, Max: 140}},
		SeedTrackIDs: []string{"ghost"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Inverted BPM range maps to 400.
	rec = doJSON(t, router, http.MethodPost, "/api/plan", createPlanRequest{
		Intent: &model.DerivedIntent{BPMRange: model.BPMRange{Min: 140, Max: 100}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFinalizeConflictKeepsDraft(t *testing.T) {
	router, repo := newTestRouter(t)
	repo.Add(validTrack("t1", 122))

	// Target far beyond the catalog so finalize validation fails.
	rec := doJSON(t, router, http.MethodPost, "/api/plan", createPlanRequest{
		Intent: &model.DerivedIntent{
			BPMRange:       model.BPMRange{Min: 100, Max: 140},
			TargetDuration: 20000,
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/plan/finalize", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	var payload struct {
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.NotEmpty(t, payload.Errors)

	rec = doJSON(t, router, http.MethodGet, "/api/plan", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var plan model.CratePlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.False(t, plan.Finalized)
}

func TestReviseWithoutCollaboratorIsBadGateway(t *testing.T) {
	router, repo := newTestRouter(t)
	repo.Add(validTrack("t1", 122))

	rec := doJSON(t, router, http.MethodPost, "/api/plan", createPlanRequest{
		Intent: &model.DerivedIntent{BPMRange: model.BPMRange{Min: 100, Max: 140}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/plan/revise", revisePlanRequest{Instructions: "tighter opening"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
