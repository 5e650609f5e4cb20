package repository

import (
	"strings"
	"sync"
	"time"

	"CrateFM/core/camelot"
	"CrateFM/model"

	"github.com/google/uuid"
)

// TrackRepository defines the interface for catalog data operations.
type TrackRepository interface {
	Add(track *model.Track) *model.Track
	Remove(id string) bool
	Get(id string) (*model.Track, bool)
	GetMany(ids []string) []*model.Track
	GetAll() []*model.Track
	Search(filter model.TrackFilter) []*model.Track
	Update(id string, update model.TrackUpdate) (*model.Track, bool)
	Stats() model.CatalogStats
}

// memoryTrackRepository implements TrackRepository over an in-memory map.
// A planning session owns exactly one instance; the mutex only guards map
// access, concurrent planning against one store is not a supported mode.
type memoryTrackRepository struct {
	mu    sync.RWMutex
	byID  map[string]model.Track
	order []string // insertion order for GetAll
}

// NewMemoryTrackRepository creates an empty in-memory catalog.
func NewMemoryTrackRepository() TrackRepository {
	return &memoryTrackRepository{
		byID: make(map[string]model.Track),
	}
}

// Add upserts a track by id, assigning an id and registration timestamp when
// absent, and returns the stored record.
func (r *memoryTrackRepository) Add(track *model.Track) *model.Track {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *track
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	now := time.Now()
	if existing, ok := r.byID[stored.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = now
		}
		r.order = append(r.order, stored.ID)
	}
	stored.UpdatedAt = now

	r.byID[stored.ID] = stored
	out := stored
	return &out
}

// Remove deletes a track, reporting whether a record existed.
func (r *memoryTrackRepository) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the track for id, if present.
func (r *memoryTrackRepository) Get(id string) (*model.Track, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	out := t
	return &out, true
}

// GetMany returns the tracks for the given ids, silently skipping unknown ones.
func (r *memoryTrackRepository) GetMany(ids []string) []*model.Track {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tracks := make([]*model.Track, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.byID[id]; ok {
			out := t
			tracks = append(tracks, &out)
		}
	}
	return tracks
}

// GetAll returns every track in insertion order.
func (r *memoryTrackRepository) GetAll() []*model.Track {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tracks := make([]*model.Track, 0, len(r.order))
	for _, id := range r.order {
		t := r.byID[id]
		out := t
		tracks = append(tracks, &out)
	}
	return tracks
}

// Search applies every set filter field conjunctively over the full catalog.
// String comparisons for genre and artist are case-insensitive.
func (r *memoryTrackRepository) Search(filter model.TrackFilter) []*model.Track {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var idSet map[string]bool
	if len(filter.IDs) > 0 {
		idSet = make(map[string]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			idSet[id] = true
		}
	}

	var results []*model.Track
	for _, id := range r.order {
		t := r.byID[id]
		if !matches(&t, filter, idSet) {
			continue
		}
		out := t
		results = append(results, &out)
	}
	return results
}

func matches(t *model.Track, f model.TrackFilter, idSet map[string]bool) bool {
	if idSet != nil && !idSet[t.ID] {
		return false
	}
	if f.Genre != "" && !strings.EqualFold(t.Genre, f.Genre) {
		return false
	}
	if f.BPMMin != nil && t.BPM < *f.BPMMin {
		return false
	}
	if f.BPMMax != nil && t.BPM > *f.BPMMax {
		return false
	}
	if f.Key != "" && !sameKey(t.Key, f.Key) {
		return false
	}
	if len(f.Keys) > 0 {
		found := false
		for _, k := range f.Keys {
			if sameKey(t.Key, k) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.EnergyMin != nil && t.Energy < *f.EnergyMin {
		return false
	}
	if f.EnergyMax != nil && t.Energy > *f.EnergyMax {
		return false
	}
	if f.DurationMin != nil && t.Duration < *f.DurationMin {
		return false
	}
	if f.DurationMax != nil && t.Duration > *f.DurationMax {
		return false
	}
	if f.Artist != "" && !strings.EqualFold(t.Artist, f.Artist) {
		return false
	}
	if len(f.Artists) > 0 {
		found := false
		for _, a := range f.Artists {
			if strings.EqualFold(t.Artist, a) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, a := range f.ExcludeArtists {
		if strings.EqualFold(t.Artist, a) {
			return false
		}
	}
	return true
}

func sameKey(a, b string) bool {
	na, err := camelot.Normalize(a)
	if err != nil {
		return false
	}
	nb, err := camelot.Normalize(b)
	if err != nil {
		return false
	}
	return na == nb
}

// Update merges non-nil fields into the stored record, preserving its id and
// registration timestamp and refreshing the update timestamp.
func (r *memoryTrackRepository) Update(id string, update model.TrackUpdate) (*model.Track, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return nil, false
	}

	if update.Title != nil {
		t.Title = *update.Title
	}
	if update.Artist != nil {
		t.Artist = *update.Artist
	}
	if update.Album != nil {
		t.Album = *update.Album
	}
	if update.Genre != nil {
		t.Genre = *update.Genre
	}
	if update.Year != nil {
		t.Year = *update.Year
	}
	if update.Duration != nil {
		t.Duration = *update.Duration
	}
	if update.BPM != nil {
		t.BPM = *update.BPM
	}
	if update.Key != nil {
		t.Key = *update.Key
	}
	if update.Energy != nil {
		t.Energy = *update.Energy
	}
	t.UpdatedAt = time.Now()

	r.byID[id] = t
	out := t
	return &out, true
}

// Stats recomputes aggregate catalog statistics on demand.
func (r *memoryTrackRepository) Stats() model.CatalogStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := model.CatalogStats{
		Genres: make(map[string]int),
		Keys:   make(map[string]int),
	}
	stats.TrackCount = len(r.order)
	if stats.TrackCount == 0 {
		return stats
	}

	bpmSum := 0.0
	durSum := 0
	first := true
	for _, id := range r.order {
		t := r.byID[id]
		if t.Genre != "" {
			stats.Genres[strings.ToLower(t.Genre)]++
		}
		if key, err := camelot.Normalize(t.Key); err == nil {
			stats.Keys[key]++
		}
		if first || t.BPM < stats.BPMMin {
			stats.BPMMin = t.BPM
		}
		if first || t.BPM > stats.BPMMax {
			stats.BPMMax = t.BPM
		}
		first = false
		bpmSum += t.BPM
		durSum += t.Duration
	}
	stats.BPMMean = bpmSum / float64(stats.TrackCount)
	stats.DurationMean = float64(durSum) / float64(stats.TrackCount)
	return stats
}
