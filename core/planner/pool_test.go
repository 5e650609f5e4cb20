package planner

import (
	"testing"

	"CrateFM/model"
	"CrateFM/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCandidatePoolFiltersTempoAndFirstGenre(t *testing.T) {
	repo := repository.NewMemoryTrackRepository()
	repo.Add(&model.Track{ID: "in1", Artist: "a", Title: "x", Genre: "house", BPM: 122, Key: "8A", Duration: 300})
	repo.Add(&model.Track{ID: "in2", Artist: "a", Title: "y", Genre: "House", BPM: 125, Key: "3B", Duration: 300})
	repo.Add(&model.Track{ID: "slow", Artist: "a", Title: "z", Genre: "house", BPM: 100, Key: "8A", Duration: 300})
	repo.Add(&model.Track{ID: "other", Artist: "a", Title: "w", Genre: "techno", BPM: 124, Key: "8A", Duration: 300})

	intent := model.DerivedIntent{
		BPMRange:       model.BPMRange{Min: 120, Max: 126},
		Genres:         []string{"house", "techno"}, // only the first genre applies
		Keys:           []string{"8A"},              // key filtering is not applied here
		TargetDuration: 3600,
	}

	pool := BuildCandidatePool(repo, intent)

	assert.ElementsMatch(t, []string{"in1", "in2"}, pool.TrackIDs)
	assert.Contains(t, pool.Description, "deterministic filtering")
	assert.NotEmpty(t, pool.ID)
	assert.Equal(t, intent.TargetDuration, pool.Intent.TargetDuration)
}

func TestBuildCandidatePoolNoBPMRangeMeansNoTempoConstraint(t *testing.T) {
	repo := repository.NewMemoryTrackRepository()
	repo.Add(&model.Track{ID: "a", Artist: "x", Title: "1", BPM: 90, Key: "8A", Duration: 300})
	repo.Add(&model.Track{ID: "b", Artist: "x", Title: "2", BPM: 180, Key: "8A", Duration: 300})

	pool := BuildCandidatePool(repo, model.DerivedIntent{TargetDuration: 3600})
	require.Len(t, pool.TrackIDs, 2)
}

func TestBuildCandidatePoolEmptyCatalog(t *testing.T) {
	pool := BuildCandidatePool(repository.NewMemoryTrackRepository(), model.DerivedIntent{
		BPMRange:       model.BPMRange{Min: 120, Max: 126},
		TargetDuration: 3600,
	})
	assert.Empty(t, pool.TrackIDs)
	assert.Contains(t, pool.Description, "0 tracks")
}
