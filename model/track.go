package model

import "time"

// Track represents an audio track in the planning catalog.
type Track struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album,omitempty"`
	Genre     string    `json:"genre,omitempty"`
	Year      int       `json:"year,omitempty"`
	Duration  int       `json:"duration"` // Duration in seconds
	BPM       float64   `json:"bpm"`
	Key       string    `json:"key"`              // Camelot notation, "1A".."12B"
	Energy    int       `json:"energy,omitempty"` // 1-5, 0 means unknown
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasEnergy reports whether the track carries an energy annotation.
func (t *Track) HasEnergy() bool {
	return t.Energy >= 1 && t.Energy <= 5
}

// TrackFilter is a conjunctive query over the catalog. Zero-valued fields
// mean "no constraint"; numeric bounds use pointers so 0 stays expressible.
type TrackFilter struct {
	IDs            []string `json:"ids,omitempty"`
	Genre          string   `json:"genre,omitempty"`
	BPMMin         *float64 `json:"bpmMin,omitempty"`
	BPMMax         *float64 `json:"bpmMax,omitempty"`
	Key            string   `json:"key,omitempty"`
	Keys           []string `json:"keys,omitempty"`
	EnergyMin      *int     `json:"energyMin,omitempty"`
	EnergyMax      *int     `json:"energyMax,omitempty"`
	DurationMin    *int     `json:"durationMin,omitempty"`
	DurationMax    *int     `json:"durationMax,omitempty"`
	Artist         string   `json:"artist,omitempty"`
	Artists        []string `json:"artists,omitempty"`
	ExcludeArtists []string `json:"excludeArtists,omitempty"`
}

// TrackUpdate carries a partial update; nil fields are left untouched.
type TrackUpdate struct {
	Title    *string  `json:"title,omitempty"`
	Artist   *string  `json:"artist,omitempty"`
	Album    *string  `json:"album,omitempty"`
	Genre    *string  `json:"genre,omitempty"`
	Year     *int     `json:"year,omitempty"`
	Duration *int     `json:"duration,omitempty"`
	BPM      *float64 `json:"bpm,omitempty"`
	Key      *string  `json:"key,omitempty"`
	Energy   *int     `json:"energy,omitempty"`
}

// CatalogStats is a derived view over the catalog, recomputed on demand.
type CatalogStats struct {
	TrackCount   int            `json:"trackCount"`
	Genres       map[string]int `json:"genres"`
	Keys         map[string]int `json:"keys"`
	BPMMin       float64        `json:"bpmMin"`
	BPMMax       float64        `json:"bpmMax"`
	BPMMean      float64        `json:"bpmMean"`
	DurationMean float64        `json:"durationMean"`
}
