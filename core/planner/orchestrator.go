// Package planner owns the crate-plan lifecycle: intent derivation,
// candidate pooling, sequencing, explanation, revision and finalization.
// AI-backed phases consult an external text-generation collaborator and
// apply an explicit per-phase failure policy when its output is missing
// or unparseable.
package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CrateFM/core/scoring"
	"CrateFM/core/sequence"
	"CrateFM/logger"
	"CrateFM/model"
	"CrateFM/repository"

	"github.com/google/uuid"
)

// TextGenerator is the external AI collaborator: one fallible single-shot
// text generation call. Retry and backoff, if any, live behind it.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Phase names an AI-backed planning phase.
type Phase string

const (
	PhaseDeriveIntent Phase = "derive_intent"
	PhaseBuildPool    Phase = "build_pool"
	PhaseSequence     Phase = "sequence"
	PhaseExplain      Phase = "explain"
	PhaseRevise       Phase = "revise"
)

// FailurePolicy says what happens when a phase's AI call fails or its
// response cannot be parsed.
type FailurePolicy string

const (
	// PolicyFallback switches to the deterministic equivalent.
	PolicyFallback FailurePolicy = "fallback"
	// PolicyKeepPrior leaves the previous phase output untouched.
	PolicyKeepPrior FailurePolicy = "keep_prior"
	// PolicyFail surfaces the failure to the caller.
	PolicyFail FailurePolicy = "fail"
)

// PhasePolicies makes the failure policy explicit per phase: derivation,
// pooling and sequencing have deterministic equivalents; explanation keeps
// whatever annotation was there before; revision has no deterministic
// equivalent for a free-text instruction and fails outright.
var PhasePolicies = map[Phase]FailurePolicy{
	PhaseDeriveIntent: PolicyFallback,
	PhaseBuildPool:    PolicyFallback,
	PhaseSequence:     PolicyFallback,
	PhaseExplain:      PolicyKeepPrior,
	PhaseRevise:       PolicyFail,
}

// Planner composes the store, scorer and sequencer into the plan lifecycle
// state machine. One Planner owns one planning session; its plan-mutating
// operations are sequential, not designed for concurrent callers.
type Planner struct {
	repo     repository.TrackRepository
	gen      TextGenerator // nil when no AI collaborator is configured
	strategy sequence.Strategy

	defaultTargetDuration int
	tolerance             int

	current   *model.CratePlan
	pool      *model.CandidatePool
	finalized []*model.CratePlan
}

// Option configures a Planner.
type Option func(*Planner)

// WithStrategy swaps the deterministic ordering strategy.
func WithStrategy(s sequence.Strategy) Option {
	return func(p *Planner) { p.strategy = s }
}

// WithDefaultTargetDuration sets the target duration used when an intent
// omits one, in seconds.
func WithDefaultTargetDuration(seconds int) Option {
	return func(p *Planner) { p.defaultTargetDuration = seconds }
}

// WithTolerance sets the allowed deviation from the target duration at
// finalize time, in seconds.
func WithTolerance(seconds int) Option {
	return func(p *Planner) { p.tolerance = seconds }
}

// NewPlanner creates a planning session over the given catalog. gen may be
// nil, in which case every phase runs its deterministic path.
func NewPlanner(repo repository.TrackRepository, gen TextGenerator, opts ...Option) *Planner {
	p := &Planner{
		repo:                  repo,
		gen:                   gen,
		strategy:              sequence.GreedyNearest{},
		defaultTargetDuration: sequence.DefaultTargetDuration,
		tolerance:             DefaultTolerance,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlanRequest asks for a new crate plan. Either Prompt or Intent (or both)
// may be set; seed tracks must exist in the catalog.
type PlanRequest struct {
	Prompt       string
	Intent       *model.DerivedIntent
	SeedTrackIDs []string
}

// CreatePlan runs the full planning pipeline and installs the result as the
// current draft plan.
func (p *Planner) CreatePlan(ctx context.Context, req PlanRequest) (*model.CratePlan, error) {
	seeds, err := p.resolveSeeds(req.SeedTrackIDs)
	if err != nil {
		return nil, err
	}

	intent, err := p.resolveIntent(ctx, req)
	if err != nil {
		return nil, err
	}

	pool := p.buildPool(ctx, intent, seeds)
	p.pool = &pool

	ordered, aiGenerated := p.sequencePool(ctx, intent, pool, seeds, req.SeedTrackIDs)

	now := time.Now()
	plan := &model.CratePlan{
		ID:            uuid.NewString(),
		Prompt:        req.Prompt,
		Intent:        intent,
		TrackIDs:      trackIDs(ordered),
		TotalDuration: sequence.TotalDuration(ordered),
		AIGenerated:   aiGenerated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	p.current = plan

	logger.Info("Crate plan created",
		logger.String("planId", plan.ID),
		logger.Int("trackCount", len(plan.TrackIDs)),
		logger.Int("totalDuration", plan.TotalDuration),
		logger.Bool("aiGenerated", plan.AIGenerated))

	return plan, nil
}

// resolveSeeds looks up every seed id, de-duplicated in given order. A seed
// missing from the catalog aborts the plan immediately.
func (p *Planner) resolveSeeds(ids []string) ([]*model.Track, error) {
	seeds := make([]*model.Track, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		t, ok := p.repo.Get(id)
		if !ok {
			return nil, &NotFoundError{Resource: "seed track", ID: id}
		}
		seeds = append(seeds, t)
	}
	return seeds, nil
}

// resolveIntent picks the intent source: an explicit intent is validated as
// supplied; otherwise the AI derives one from the prompt, with a permissive
// fallback intent when derivation is unavailable or unparseable.
func (p *Planner) resolveIntent(ctx context.Context, req PlanRequest) (model.DerivedIntent, error) {
	if req.Intent != nil {
		intent := *req.Intent
		if err := NormalizeIntent(&intent, p.defaultTargetDuration); err != nil {
			return model.DerivedIntent{}, err
		}
		return intent, nil
	}

	if req.Prompt != "" && p.gen != nil {
		response, err := p.gen.Generate(ctx, buildDeriveIntentPrompt(req.Prompt, p.defaultTargetDuration))
		if err == nil {
			intent, perr := decodeIntentResponse(response, p.defaultTargetDuration)
			if perr == nil {
				return intent, nil
			}
			err = perr
		}
		logger.Warn("Intent derivation failed, using fallback intent",
			logger.String("phase", string(PhaseDeriveIntent)),
			logger.ErrorField(err))
	}

	return p.fallbackIntent(), nil
}

// fallbackIntent is deliberately permissive so the deterministic pipeline
// still has material to work with.
func (p *Planner) fallbackIntent() model.DerivedIntent {
	return model.DerivedIntent{
		BPMRange:       model.BPMRange{Min: 60, Max: 200},
		TargetDuration: p.defaultTargetDuration,
		MixStyle:       model.MixStyleSmooth,
	}
}

// buildPool filters the catalog deterministically, then lets the AI narrow
// the selection. Seeds are always part of the pool.
func (p *Planner) buildPool(ctx context.Context, intent model.DerivedIntent, seeds []*model.Track) model.CandidatePool {
	pool := BuildCandidatePool(p.repo, intent)

	if p.gen != nil && len(pool.TrackIDs) > 0 {
		refined, err := p.refinePool(ctx, intent, pool)
		if err == nil {
			pool = refined
		} else {
			logger.Warn("Pool refinement failed, keeping deterministic pool",
				logger.String("phase", string(PhaseBuildPool)),
				logger.ErrorField(err))
		}
	}

	known := make(map[string]bool, len(pool.TrackIDs))
	for _, id := range pool.TrackIDs {
		known[id] = true
	}
	for _, s := range seeds {
		if !known[s.ID] {
			pool.TrackIDs = append(pool.TrackIDs, s.ID)
			known[s.ID] = true
		}
	}
	return pool
}

func (p *Planner) refinePool(ctx context.Context, intent model.DerivedIntent, pool model.CandidatePool) (model.CandidatePool, error) {
	candidates := p.repo.GetMany(pool.TrackIDs)
	response, err := p.gen.Generate(ctx, buildPoolRefinementPrompt(intent, candidates))
	if err != nil {
		return model.CandidatePool{}, err
	}
	payload, err := decodeTrackListResponse(response)
	if err != nil {
		return model.CandidatePool{}, err
	}

	allowed := make(map[string]bool, len(pool.TrackIDs))
	for _, id := range pool.TrackIDs {
		allowed[id] = true
	}
	kept := make([]string, 0, len(payload.TrackIDs))
	seen := make(map[string]bool, len(payload.TrackIDs))
	for _, id := range payload.TrackIDs {
		if allowed[id] && !seen[id] {
			seen[id] = true
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		return model.CandidatePool{}, fmt.Errorf("refined pool references no known candidates")
	}

	desc := "AI-refined selection"
	if payload.Description != "" {
		desc += ": " + payload.Description
	}
	refined := pool
	refined.TrackIDs = kept
	refined.Description = desc
	return refined, nil
}

// sequencePool orders the pool, preferring the AI collaborator and falling
// back to the deterministic fill. The returned bool records AI provenance.
func (p *Planner) sequencePool(ctx context.Context, intent model.DerivedIntent, pool model.CandidatePool, seeds []*model.Track, seedIDs []string) ([]*model.Track, bool) {
	candidates := p.repo.GetMany(pool.TrackIDs)

	if p.gen != nil && len(candidates) > 0 {
		ordered, err := p.sequenceWithAI(ctx, intent, candidates, seeds, seedIDs)
		if err == nil {
			return ordered, true
		}
		logger.Warn("AI sequencing failed, using deterministic fill",
			logger.String("phase", string(PhaseSequence)),
			logger.ErrorField(err))
	}

	return sequence.DeterministicFill(intent.TargetDuration, seeds, candidates), false
}

func (p *Planner) sequenceWithAI(ctx context.Context, intent model.DerivedIntent, candidates, seeds []*model.Track, seedIDs []string) ([]*model.Track, error) {
	response, err := p.gen.Generate(ctx, buildSequencePrompt(intent, candidates, seedIDs))
	if err != nil {
		return nil, err
	}
	payload, err := decodeTrackListResponse(response)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*model.Track, len(candidates))
	for _, t := range candidates {
		byID[t.ID] = t
	}
	for _, s := range seeds {
		byID[s.ID] = s
	}

	isSeed := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		isSeed[s.ID] = true
	}

	// Seeds open the crate in request order regardless of where the model
	// put them; the rest keeps the model's order, unknown ids rejected.
	ordered := append([]*model.Track(nil), seeds...)
	seen := make(map[string]bool, len(payload.TrackIDs))
	for _, s := range seeds {
		seen[s.ID] = true
	}
	for _, id := range payload.TrackIDs {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("sequenced track %q is not in the candidate pool", id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ordered = append(ordered, t)
	}
	if len(ordered) == 0 {
		return nil, fmt.Errorf("sequencing produced an empty crate")
	}
	return ordered, nil
}

// Resequence reorders the current draft with the deterministic ordering
// strategy and replaces the current plan in draft state.
func (p *Planner) Resequence() (*model.CratePlan, error) {
	if p.current == nil {
		return nil, fmt.Errorf("no current plan to resequence")
	}

	tracks := p.repo.GetMany(p.current.TrackIDs)
	ordered := p.strategy.Order(tracks)

	plan := p.current.Clone()
	plan.TrackIDs = trackIDs(ordered)
	plan.TotalDuration = sequence.TotalDuration(ordered)
	plan.AIGenerated = false
	plan.Finalized = false
	plan.UpdatedAt = time.Now()
	p.current = plan
	return plan, nil
}

// Validate checks the current plan without mutating it.
func (p *Planner) Validate() (model.ValidationResult, error) {
	if p.current == nil {
		return model.ValidationResult{}, fmt.Errorf("no current plan to validate")
	}
	return ValidatePlan(p.current, p.repo, p.tolerance), nil
}

// Finalize re-validates the current plan and, if it passes, marks it
// finalized and appends a snapshot to the history. On validation failure
// the plan stays a draft. Calling twice appends twice; guarding against
// double finalization is the caller's job.
func (p *Planner) Finalize() (*model.CratePlan, error) {
	if p.current == nil {
		return nil, fmt.Errorf("no current plan to finalize")
	}

	result := ValidatePlan(p.current, p.repo, p.tolerance)
	if !result.IsValid {
		return nil, &FinalizeError{Errors: result.Errors}
	}

	p.current.Finalized = true
	p.current.UpdatedAt = time.Now()
	snapshot := p.current.Clone()
	p.finalized = append(p.finalized, snapshot)

	logger.Info("Crate plan finalized",
		logger.String("planId", snapshot.ID),
		logger.Int("trackCount", len(snapshot.TrackIDs)))

	return snapshot, nil
}

// Explain asks the collaborator for annotation prose. When no collaborator
// is configured, or the call fails, the prior annotation stays untouched.
func (p *Planner) Explain(ctx context.Context) (*model.CratePlan, error) {
	if p.current == nil {
		return nil, fmt.Errorf("no current plan to explain")
	}
	if p.gen == nil {
		return p.current, nil
	}

	tracks := p.repo.GetMany(p.current.TrackIDs)
	response, err := p.gen.Generate(ctx, buildExplainPrompt(p.current, tracks))
	if err != nil || strings.TrimSpace(response) == "" {
		logger.Warn("Explanation failed, keeping prior annotation",
			logger.String("phase", string(PhaseExplain)),
			logger.ErrorField(err))
		return p.current, nil
	}

	p.current.Annotation = strings.TrimSpace(response)
	p.current.UpdatedAt = time.Now()
	return p.current, nil
}

// Revise applies a free-text instruction to the current plan via the AI
// collaborator and installs the result as a new draft. There is no
// deterministic equivalent, so any failure is fatal for the phase.
func (p *Planner) Revise(ctx context.Context, instructions string) (*model.CratePlan, error) {
	if p.current == nil {
		return nil, fmt.Errorf("no current plan to revise")
	}
	if p.gen == nil {
		return nil, &RevisionFailedError{Cause: fmt.Errorf("no AI collaborator configured")}
	}

	tracks := p.repo.GetMany(p.current.TrackIDs)
	var poolTracks []*model.Track
	if p.pool != nil {
		poolTracks = p.repo.GetMany(p.pool.TrackIDs)
	}

	response, err := p.gen.Generate(ctx, buildRevisePrompt(p.current, tracks, poolTracks, instructions))
	if err != nil {
		return nil, &RevisionFailedError{Cause: err}
	}
	payload, err := decodeTrackListResponse(response)
	if err != nil {
		return nil, &RevisionFailedError{Cause: err}
	}

	revised := make([]*model.Track, 0, len(payload.TrackIDs))
	seen := make(map[string]bool, len(payload.TrackIDs))
	for _, id := range payload.TrackIDs {
		t, ok := p.repo.Get(id)
		if !ok {
			return nil, &RevisionFailedError{Cause: &NotFoundError{Resource: "revised track", ID: id}}
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		revised = append(revised, t)
	}

	plan := p.current.Clone()
	plan.ID = uuid.NewString()
	plan.TrackIDs = trackIDs(revised)
	plan.TotalDuration = sequence.TotalDuration(revised)
	plan.AIGenerated = true
	plan.Finalized = false
	now := time.Now()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	p.current = plan

	logger.Info("Crate plan revised",
		logger.String("planId", plan.ID),
		logger.Int("trackCount", len(plan.TrackIDs)))

	return plan, nil
}

// Mixability analyzes the current plan's track-to-track flow.
func (p *Planner) Mixability() (scoring.MixabilityReport, error) {
	if p.current == nil {
		return scoring.MixabilityReport{}, fmt.Errorf("no current plan to analyze")
	}
	return scoring.AnalyzeSetMixability(p.repo.GetMany(p.current.TrackIDs)), nil
}

// CurrentPlan returns the current draft or finalized plan, if any.
func (p *Planner) CurrentPlan() *model.CratePlan {
	return p.current
}

// CurrentPool returns the candidate pool behind the current plan, if any.
func (p *Planner) CurrentPool() *model.CandidatePool {
	return p.pool
}

// FinalizedPlans returns the append-only finalization history.
func (p *Planner) FinalizedPlans() []*model.CratePlan {
	return append([]*model.CratePlan(nil), p.finalized...)
}

func trackIDs(tracks []*model.Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}
