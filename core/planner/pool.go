package planner

import (
	"fmt"
	"time"

	"CrateFM/model"
	"CrateFM/repository"

	"github.com/google/uuid"
)

// BuildCandidatePool filters the catalog deterministically: tempo range plus
// at most the first target genre. Exact-key filtering is intentionally left
// to the AI refinement pass, so the deterministic pool stays a superset the
// fallback sequencer can draw from.
func BuildCandidatePool(repo repository.TrackRepository, intent model.DerivedIntent) model.CandidatePool {
	filter := model.TrackFilter{}
	if intent.BPMRange.Min > 0 || intent.BPMRange.Max > 0 {
		min, max := intent.BPMRange.Min, intent.BPMRange.Max
		filter.BPMMin = &min
		filter.BPMMax = &max
	}
	if len(intent.Genres) > 0 {
		filter.Genre = intent.Genres[0]
	}

	tracks := repo.Search(filter)
	ids := make([]string, 0, len(tracks))
	seen := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		ids = append(ids, t.ID)
	}

	desc := fmt.Sprintf("deterministic filtering: %d tracks matching BPM %.0f-%.0f",
		len(ids), intent.BPMRange.Min, intent.BPMRange.Max)
	if len(intent.Genres) > 0 {
		desc += fmt.Sprintf(", genre %q", intent.Genres[0])
	}

	return model.CandidatePool{
		ID:          uuid.NewString(),
		Intent:      intent,
		TrackIDs:    ids,
		Description: desc,
		CreatedAt:   time.Now(),
	}
}
