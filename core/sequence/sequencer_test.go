package sequence

import (
	"fmt"
	"testing"

	"CrateFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkTrack(id string, bpm float64, key string, duration int) *model.Track {
	return &model.Track{ID: id, BPM: bpm, Key: key, Duration: duration}
}

func TestGreedyOrderIsPermutation(t *testing.T) {
	tracks := []*model.Track{
		mkTrack("a", 124, "8A", 300),
		mkTrack("b", 140, "3B", 300),
		mkTrack("c", 125, "9A", 300),
		mkTrack("d", 126, "8B", 300),
		mkTrack("e", 90, "1A", 300),
	}

	ordered := GreedyNearest{}.Order(tracks)

	require.Len(t, ordered, len(tracks))
	seen := make(map[string]int)
	for _, tr := range ordered {
		seen[tr.ID]++
	}
	for _, tr := range tracks {
		assert.Equal(t, 1, seen[tr.ID], "track %s must appear exactly once", tr.ID)
	}
}

func TestGreedyOrderAnchorsFirstTrack(t *testing.T) {
	tracks := []*model.Track{
		mkTrack("first", 100, "1A", 300),
		mkTrack("x", 128, "8A", 300),
		mkTrack("y", 101, "1A", 300),
	}
	ordered := GreedyNearest{}.Order(tracks)
	assert.Equal(t, "first", ordered[0].ID)
	// The near-identical track should be chosen over the distant one.
	assert.Equal(t, "y", ordered[1].ID)
}

func TestGreedyOrderDegenerate(t *testing.T) {
	assert.Empty(t, GreedyNearest{}.Order(nil))
	one := []*model.Track{mkTrack("a", 120, "5A", 300)}
	ordered := GreedyNearest{}.Order(one)
	require.Len(t, ordered, 1)
	assert.Equal(t, "a", ordered[0].ID)
}

func TestGreedyOrderDoesNotMutateInput(t *testing.T) {
	tracks := []*model.Track{
		mkTrack("a", 124, "8A", 300),
		mkTrack("b", 140, "3B", 300),
		mkTrack("c", 125, "9A", 300),
	}
	GreedyNearest{}.Order(tracks)
	assert.Equal(t, "a", tracks[0].ID)
	assert.Equal(t, "b", tracks[1].ID)
	assert.Equal(t, "c", tracks[2].ID)
}

func TestDeterministicFillSeedsPrefix(t *testing.T) {
	seeds := []*model.Track{
		mkTrack("s1", 128, "8A", 300),
		mkTrack("s2", 122, "9A", 300),
		mkTrack("s1", 128, "8A", 300), // duplicate, dropped
	}
	candidates := []*model.Track{
		mkTrack("c1", 126, "8A", 300),
		mkTrack("c2", 120, "7A", 300),
		mkTrack("s2", 122, "9A", 300), // already seeded
	}

	result := DeterministicFill(1500, seeds, candidates)

	require.GreaterOrEqual(t, len(result), 2)
	assert.Equal(t, "s1", result[0].ID)
	assert.Equal(t, "s2", result[1].ID)
	for _, tr := range result[2:] {
		assert.NotContains(t, []string{"s1", "s2"}, tr.ID)
	}
}

func TestDeterministicFillSortsByBPMAscending(t *testing.T) {
	candidates := []*model.Track{
		mkTrack("fast", 130, "8A", 300),
		mkTrack("slow", 118, "8A", 300),
		mkTrack("mid", 124, "8A", 300),
	}
	result := DeterministicFill(3600, nil, candidates)

	require.Len(t, result, 3)
	assert.Equal(t, "slow", result[0].ID)
	assert.Equal(t, "mid", result[1].ID)
	assert.Equal(t, "fast", result[2].ID)
}

func TestDeterministicFillStopsAtTarget(t *testing.T) {
	var candidates []*model.Track
	for i := 0; i < 20; i++ {
		candidates = append(candidates, mkTrack(fmt.Sprintf("c%02d", i), 120+float64(i), "8A", 400))
	}

	result := DeterministicFill(1200, nil, candidates)

	// 400s each: the third track reaches 1200s, nothing is added past it.
	require.Len(t, result, 3)
	assert.Equal(t, 1200, TotalDuration(result))
}

func TestDeterministicFillSeedsAlreadyCoverTarget(t *testing.T) {
	seeds := []*model.Track{mkTrack("s1", 128, "8A", 2000)}
	candidates := []*model.Track{mkTrack("c1", 126, "8A", 300)}

	result := DeterministicFill(1800, seeds, candidates)
	require.Len(t, result, 1)
	assert.Equal(t, "s1", result[0].ID)
}

func TestDeterministicFillDefaultTarget(t *testing.T) {
	var candidates []*model.Track
	for i := 0; i < 12; i++ {
		candidates = append(candidates, mkTrack(fmt.Sprintf("c%02d", i), 120, "8A", 400))
	}

	// Target 0 selects the one-hour default: 9 tracks reach 3600s.
	result := DeterministicFill(0, nil, candidates)
	require.Len(t, result, 9)
}

func TestTotalDuration(t *testing.T) {
	assert.Equal(t, 0, TotalDuration(nil))
	assert.Equal(t, 700, TotalDuration([]*model.Track{
		mkTrack("a", 120, "8A", 300),
		mkTrack("b", 120, "8A", 400),
	}))
}
