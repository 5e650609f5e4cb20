// Package sequence orders candidate tracks into a playable crate. The
// baseline strategy is a greedy nearest-neighbour walk over transition
// quality; a constraint-bounded deterministic fill serves as the fallback
// path when AI-driven sequencing is unavailable.
package sequence

import (
	"sort"

	"CrateFM/core/scoring"
	"CrateFM/model"
)

// DefaultTargetDuration is used when an intent does not specify one.
const DefaultTargetDuration = 3600 // seconds

// Strategy orders a set of tracks. Implementations must return a
// permutation of the input.
type Strategy interface {
	Order(tracks []*model.Track) []*model.Track
}

// GreedyNearest is the baseline O(n²) ordering heuristic: the first track
// anchors the sequence, then each step appends the unvisited track with the
// best transition quality against the current tail. No backtracking, no
// lookahead; ties resolve to the first-encountered index.
type GreedyNearest struct{}

// Order implements Strategy.
func (GreedyNearest) Order(tracks []*model.Track) []*model.Track {
	if len(tracks) <= 1 {
		return append([]*model.Track(nil), tracks...)
	}

	ordered := make([]*model.Track, 0, len(tracks))
	ordered = append(ordered, tracks[0])
	remaining := append([]*model.Track(nil), tracks[1:]...)

	for len(remaining) > 0 {
		last := ordered[len(ordered)-1]
		bestIdx := 0
		bestScore := -1.0
		for i, t := range remaining {
			score := scoring.RateTransition(last, t).Overall
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		ordered = append(ordered, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return ordered
}

// DeterministicFill builds a crate without any AI involvement: seeds first,
// in given order and de-duplicated, then remaining candidates sorted by BPM
// ascending, appended until the cumulative duration reaches the target.
func DeterministicFill(targetDuration int, seeds, candidates []*model.Track) []*model.Track {
	if targetDuration <= 0 {
		targetDuration = DefaultTargetDuration
	}

	placed := make(map[string]bool, len(seeds))
	result := make([]*model.Track, 0, len(seeds)+len(candidates))
	total := 0

	for _, s := range seeds {
		if placed[s.ID] {
			continue
		}
		placed[s.ID] = true
		result = append(result, s)
		total += s.Duration
	}

	rest := make([]*model.Track, 0, len(candidates))
	for _, c := range candidates {
		if !placed[c.ID] {
			rest = append(rest, c)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].BPM < rest[j].BPM })

	for _, c := range rest {
		if total >= targetDuration {
			break
		}
		result = append(result, c)
		total += c.Duration
	}
	return result
}

// TotalDuration sums track durations in seconds.
func TotalDuration(tracks []*model.Track) int {
	total := 0
	for _, t := range tracks {
		total += t.Duration
	}
	return total
}
