package model

import "time"

// CandidatePool is the filtered set of tracks eligible for a plan, together
// with a snapshot of the intent that produced it.
type CandidatePool struct {
	ID          string        `json:"id"`
	Intent      DerivedIntent `json:"intent"`
	TrackIDs    []string      `json:"trackIds"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// CratePlan is an ordered crate of tracks. TotalDuration is always recomputed
// from the constituent tracks, never stored independently of the list.
type CratePlan struct {
	ID            string        `json:"id"`
	Prompt        string        `json:"prompt,omitempty"`
	Intent        DerivedIntent `json:"intent"`
	TrackIDs      []string      `json:"trackIds"`
	Annotation    string        `json:"annotation,omitempty"`
	TotalDuration int           `json:"totalDuration"` // seconds, recomputed
	AIGenerated   bool          `json:"aiGenerated"`
	Finalized     bool          `json:"finalized"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Clone returns a deep copy so finalized history entries stay immutable.
func (p *CratePlan) Clone() *CratePlan {
	cp := *p
	cp.TrackIDs = append([]string(nil), p.TrackIDs...)
	cp.Intent.Keys = append([]string(nil), p.Intent.Keys...)
	cp.Intent.Genres = append([]string(nil), p.Intent.Genres...)
	cp.Intent.MustArtists = append([]string(nil), p.Intent.MustArtists...)
	cp.Intent.AvoidArtists = append([]string(nil), p.Intent.AvoidArtists...)
	cp.Intent.MustTracks = append([]string(nil), p.Intent.MustTracks...)
	cp.Intent.AvoidTracks = append([]string(nil), p.Intent.AvoidTracks...)
	return &cp
}

// ValidationResult reports the outcome of validating a plan.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors,omitempty"`
}
