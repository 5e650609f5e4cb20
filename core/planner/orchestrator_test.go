package planner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"CrateFM/model"
	"CrateFM/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator returns canned responses in call order.
type scriptedGenerator struct {
	responses []string
	err       error
	prompts   []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if len(g.responses) == 0 {
		return "", fmt.Errorf("scripted generator exhausted")
	}
	resp := g.responses[0]
	g.responses = g.responses[1:]
	return resp, nil
}

// tenTrackCatalog mirrors a small club-set catalog: 120-124 BPM, adjacent
// keys, five to seven minute tracks.
func tenTrackCatalog(t *testing.T) repository.TrackRepository {
	t.Helper()
	repo := repository.NewMemoryTrackRepository()
	keys := []string{"8A", "9A", "10A", "11A"}
	for i := 0; i < 10; i++ {
		repo.Add(&model.Track{
			ID:       fmt.Sprintf("track%d", i+1),
			Artist:   fmt.Sprintf("artist%d", i+1),
			Title:    fmt.Sprintf("title%d", i+1),
			Genre:    "house",
			BPM:      120 + float64(i%5),
			Key:      keys[i%len(keys)],
			Duration: 330 + i*10,
			Energy:   1 + i%5,
		})
	}
	return repo
}

func clubIntent() *model.DerivedIntent {
	return &model.DerivedIntent{
		BPMRange:       model.BPMRange{Min: 120, Max: 124},
		TargetDuration: 3600,
	}
}

func TestCreatePlanDeterministic(t *testing.T) {
	repo := tenTrackCatalog(t)
	p := NewPlanner(repo, nil)

	plan, err := p.CreatePlan(context.Background(), PlanRequest{
		Intent:       clubIntent(),
		SeedTrackIDs: []string{"track1", "track2"},
	})
	require.NoError(t, err)

	// Seeds open the crate in request order.
	require.GreaterOrEqual(t, len(plan.TrackIDs), 2)
	assert.Equal(t, "track1", plan.TrackIDs[0])
	assert.Equal(t, "track2", plan.TrackIDs[1])

	// The rest is sorted by BPM ascending.
	rest := repo.GetMany(plan.TrackIDs[2:])
	for i := 1; i < len(rest); i++ {
		assert.LessOrEqual(t, rest[i-1].BPM, rest[i].BPM)
	}

	// The fill stopped once the target was reached.
	assert.GreaterOrEqual(t, plan.TotalDuration, 3600)
	withoutLast := plan.TotalDuration - rest[len(rest)-1].Duration
	assert.Less(t, withoutLast, 3600)

	assert.False(t, plan.AIGenerated)
	assert.False(t, plan.Finalized)
	assert.Equal(t, plan.ID, p.CurrentPlan().ID)
}

func TestCreatePlanSeedNotFound(t *testing.T) {
	p := NewPlanner(tenTrackCatalog(t), nil)

	_, err := p.CreatePlan(context.Background(), PlanRequest{
		Intent:       clubIntent(),
		SeedTrackIDs: []string{"track1", "ghost"},
	})
	require.Error(t, err)

	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "ghost", notFound.ID)
	assert.Nil(t, p.CurrentPlan())
}

func TestCreatePlanInvalidIntent(t *testing.T) {
	p := NewPlanner(tenTrackCatalog(t), nil)

	_, err := p.CreatePlan(context.Background(), PlanRequest{
		Intent: &model.DerivedIntent{BPMRange: model.BPMRange{Min: 140, Max: 120}},
	})
	var constraintErr *ConstraintError
	require.True(t, errors.As(err, &constraintErr))
}

func TestCreatePlanWithAICollaborator(t *testing.T) {
	repo := tenTrackCatalog(t)
	gen := &scriptedGenerator{responses: []string{
		// pool refinement
		`{"trackIds": ["track1", "track2", "track3", "track4", "track5", "track6"], "description": "tight pocket"}`,
		// sequencing
		`{"trackIds": ["track1", "track2", "track4", "track3", "track6", "track5"]}`,
	}}
	p := NewPlanner(repo, gen)

	plan, err := p.CreatePlan(context.Background(), PlanRequest{
		Intent:       clubIntent(),
		SeedTrackIDs: []string{"track1"},
	})
	require.NoError(t, err)

	assert.True(t, plan.AIGenerated)
	assert.Equal(t, []string{"track1", "track2", "track4", "track3", "track6", "track5"}, plan.TrackIDs)
	assert.Contains(t, p.CurrentPool().Description, "AI-refined")
	assert.Len(t, gen.prompts, 2)
}

func TestCreatePlanAIUnparseableFallsBack(t *testing.T) {
	repo := tenTrackCatalog(t)
	gen := &scriptedGenerator{responses: []string{
		"I cannot produce structured output today.",
		"Still just prose, no JSON anywhere.",
	}}
	p := NewPlanner(repo, gen)

	plan, err := p.CreatePlan(context.Background(), PlanRequest{
		Intent:       clubIntent(),
		SeedTrackIDs: []string{"track2"},
	})
	require.NoError(t, err)

	// Deterministic fill took over: seed first, rest sorted by BPM.
	assert.False(t, plan.AIGenerated)
	assert.Equal(t, "track2", plan.TrackIDs[0])
	assert.Contains(t, p.CurrentPool().Description, "deterministic filtering")
}

func TestCreatePlanAISequenceUnknownIDFallsBack(t *testing.T) {
	repo := tenTrackCatalog(t)
	gen := &scriptedGenerator{responses: []string{
		`{"trackIds": ["track1", "track2", "track3"]}`,
		`{"trackIds": ["track1", "invented-id"]}`,
	}}
	p := NewPlanner(repo, gen)

	plan, err := p.CreatePlan(context.Background(), PlanRequest{Intent: clubIntent()})
	require.NoError(t, err)
	assert.False(t, plan.AIGenerated)
}

func TestCreatePlanGeneratorErrorFallsBack(t *testing.T) {
	repo := tenTrackCatalog(t)
	gen := &scriptedGenerator{err: fmt.Errorf("quota exceeded")}
	p := NewPlanner(repo, gen)

	plan, err := p.CreatePlan(context.Background(), PlanRequest{Intent: clubIntent()})
	require.NoError(t, err)
	assert.False(t, plan.AIGenerated)
	assert.NotEmpty(t, plan.TrackIDs)
}

func TestCreatePlanDerivesIntentFromPrompt(t *testing.T) {
	repo := tenTrackCatalog(t)
	gen := &scriptedGenerator{responses: []string{
		// derivation succeeds
		`{"bpmRange": {"min": 121, "max": 123}, "genres": ["house"], "targetDuration": 1800, "mixStyle": "smooth"}`,
		// pool refinement and sequencing fail to parse, deterministic paths take over
		"no json", "no json",
	}}
	p := NewPlanner(repo, gen)

	plan, err := p.CreatePlan(context.Background(), PlanRequest{Prompt: "an hour of warm house around 122"})
	require.NoError(t, err)

	assert.Equal(t, model.BPMRange{Min: 121, Max: 123}, plan.Intent.BPMRange)
	assert.Equal(t, 1800, plan.Intent.TargetDuration)
	for _, tr := range repo.GetMany(plan.TrackIDs) {
		assert.True(t, plan.Intent.BPMRange.Contains(tr.BPM))
	}
}

func TestCreatePlanPromptWithoutGeneratorUsesFallbackIntent(t *testing.T) {
	repo := tenTrackCatalog(t)
	p := NewPlanner(repo, nil)

	plan, err := p.CreatePlan(context.Background(), PlanRequest{Prompt: "whatever flows"})
	require.NoError(t, err)

	assert.Equal(t, model.BPMRange{Min: 60, Max: 200}, plan.Intent.BPMRange)
	assert.NotEmpty(t, plan.TrackIDs)
}

func TestFinalizeLifecycle(t *testing.T) {
	repo := tenTrackCatalog(t)
	p := NewPlanner(repo, nil)

	_, err := p.CreatePlan(context.Background(), PlanRequest{Intent: clubIntent()})
	require.NoError(t, err)

	final, err := p.Finalize()
	require.NoError(t, err)
	assert.True(t, final.Finalized)
	assert.Len(t, p.FinalizedPlans(), 1)

	// Finalize is not guarded against repeat calls; history grows again.
	_, err = p.Finalize()
	require.NoError(t, err)
	assert.Len(t, p.FinalizedPlans(), 2)
}

func TestFinalizeInvalidPlanStaysDraft(t *testing.T) {
	repo := tenTrackCatalog(t)
	p := NewPlanner(repo, nil)

	intent := clubIntent()
	intent.TargetDuration = 30000 // unreachable with this catalog
	_, err := p.CreatePlan(context.Background(), PlanRequest{Intent: intent})
	require.NoError(t, err)

	_, err = p.Finalize()
	var finalizeErr *FinalizeError
	require.True(t, errors.As(err, &finalizeErr))
	assert.NotEmpty(t, finalizeErr.Errors)

	assert.False(t, p.CurrentPlan().Finalized)
	assert.Empty(t, p.FinalizedPlans())
}

func TestFinalizedHistoryIsImmutable(t *testing.T) {
	repo := tenTrackCatalog(t)
	p := NewPlanner(repo, nil)

	_, err := p.CreatePlan(context.Background(), PlanRequest{Intent: clubIntent()})
	require.NoError(t, err)
	final, err := p.Finalize()
	require.NoError(t, err)
	firstID := final.TrackIDs[0]

	// A later resequence must not reach into the stored snapshot.
	_, err = p.Resequence()
	require.NoError(t, err)

	history := p.FinalizedPlans()
	require.Len(t, history, 1)
	assert.Equal(t, firstID, history[0].TrackIDs[0])
	assert.True(t, history[0].Finalized)
	assert.False(t, p.CurrentPlan().Finalized)
}

func TestExplainKeepsPriorAnnotationOnFailure(t *testing.T) {
	repo := tenTrackCatalog(t)
	gen := &scriptedGenerator{err: fmt.Errorf("model unavailable")}
	p := NewPlanner(repo, nil)

	_, err := p.CreatePlan(context.Background(), PlanRequest{Intent: clubIntent()})
	require.NoError(t, err)
	p.CurrentPlan().Annotation = "hand-written note"

	// No generator configured: annotation untouched, no error.
	plan, err := p.Explain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hand-written note", plan.Annotation)

	// Generator failing: same outcome.
	p.gen = gen
	plan, err = p.Explain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hand-written note", plan.Annotation)
}

func TestExplainSetsAnnotation(t *testing.T) {
	repo := tenTrackCatalog(t)
	p := NewPlanner(repo, nil)
	_, err := p.CreatePlan(context.Background(), PlanRequest{Intent: clubIntent()})
	require.NoError(t, err)

	p.gen = &scriptedGenerator{responses: []string{"  A steady climb from 120 to 124 BPM.  "}}
	plan, err := p.Explain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A steady climb from 120 to 124 BPM.", plan.Annotation)
}

func TestReviseWithoutGeneratorFails(t *testing.T) {
	repo := tenTrackCatalog(t)
	p := NewPlanner(repo, nil)
	_, err := p.CreatePlan(context.Background(), PlanRequest{Intent: clubIntent()})
	require.NoError(t, err)

	_, err = p.Revise(context.Background(), "drop the second track")
	var revisionErr *RevisionFailedError
	require.True(t, errors.As(err, &revisionErr))
}

func TestReviseUnparseableFails(t *testing.T) {
	repo := tenTrackCatalog(t)
	p := NewPlanner(repo, &scriptedGenerator{responses: []string{"ok!", "ok!", "just prose"}})

	// Plan deterministically first (both AI phases consume a response each).
	_, err := p.CreatePlan(context.Background(), PlanRequest{Intent: clubIntent()})
	require.NoError(t, err)
	before := p.CurrentPlan().ID

	_, err = p.Revise(context.Background(), "swap the order")
	var revisionErr *RevisionFailedError
	require.True(t, errors.As(err, &revisionErr))

	// The current plan is untouched by the failed revision.
	assert.Equal(t, before, p.CurrentPlan().ID)
}

func TestReviseProducesNewDraft(t *testing.T) {
	repo := tenTrackCatalog(t)
	p := NewPlanner(repo, nil)

	_, err := p.CreatePlan(context.Background(), PlanRequest{Intent: clubIntent()})
	require.NoError(t, err)
	_, err = p.Finalize()
	require.NoError(t, err)
	oldID := p.CurrentPlan().ID

	p.gen = &scriptedGenerator{responses: []string{`{"trackIds": ["track3", "track1", "track2"]}`}}
	plan, err := p.Revise(context.Background(), "open with track3")
	require.NoError(t, err)

	assert.NotEqual(t, oldID, plan.ID)
	assert.False(t, plan.Finalized)
	assert.True(t, plan.AIGenerated)
	assert.Equal(t, []string{"track3", "track1", "track2"}, plan.TrackIDs)
	total := 0
	for _, tr := range repo.GetMany(plan.TrackIDs) {
		total += tr.Duration
	}
	assert.Equal(t, total, plan.TotalDuration)
}

func TestReviseUnknownTrackFails(t *testing.T) {
	repo := tenTrackCatalog(t)
	p := NewPlanner(repo, nil)
	_, err := p.CreatePlan(context.Background(), PlanRequest{Intent: clubIntent()})
	require.NoError(t, err)

	p.gen = &scriptedGenerator{responses: []string{`{"trackIds": ["nowhere"]}`}}
	_, err = p.Revise(context.Background(), "use that bootleg I mentioned")

	var revisionErr *RevisionFailedError
	require.True(t, errors.As(err, &revisionErr))
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestResequenceIsPermutation(t *testing.T) {
	repo := tenTrackCatalog(t)
	p := NewPlanner(repo, nil)

	created, err := p.CreatePlan(context.Background(), PlanRequest{Intent: clubIntent()})
	require.NoError(t, err)

	plan, err := p.Resequence()
	require.NoError(t, err)

	assert.ElementsMatch(t, created.TrackIDs, plan.TrackIDs)
	assert.Equal(t, created.TotalDuration, plan.TotalDuration)
	assert.False(t, plan.AIGenerated)
}

func TestMixabilityOfCurrentPlan(t *testing.T) {
	repo := tenTrackCatalog(t)
	p := NewPlanner(repo, nil)

	_, err := p.Mixability()
	assert.Error(t, err)

	_, err = p.CreatePlan(context.Background(), PlanRequest{Intent: clubIntent()})
	require.NoError(t, err)

	report, err := p.Mixability()
	require.NoError(t, err)
	assert.Greater(t, report.OverallScore, 0.0)
}

func TestPhasePoliciesAreExplicit(t *testing.T) {
	assert.Equal(t, PolicyFallback, PhasePolicies[PhaseDeriveIntent])
	assert.Equal(t, PolicyFallback, PhasePolicies[PhaseBuildPool])
	assert.Equal(t, PolicyFallback, PhasePolicies[PhaseSequence])
	assert.Equal(t, PolicyKeepPrior, PhasePolicies[PhaseExplain])
	assert.Equal(t, PolicyFail, PhasePolicies[PhaseRevise])
}
