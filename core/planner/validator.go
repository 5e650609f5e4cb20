package planner

import (
	"fmt"

	"CrateFM/model"
)

// DefaultTolerance is the allowed deviation from the target duration at
// validation time, in seconds.
const DefaultTolerance = 300

// TrackLookup resolves track identifiers against a catalog. The validator
// treats the catalog as an injected dependency and never mutates anything.
type TrackLookup interface {
	Get(id string) (*model.Track, bool)
}

// ValidatePlan checks a plan's invariants: a non-empty track list, every
// identifier resolving to a real track, and the recomputed total duration
// landing within ±tolerance of the intent's target. Exactly hitting the
// tolerance boundary is valid. A tolerance <= 0 selects DefaultTolerance.
func ValidatePlan(plan *model.CratePlan, catalog TrackLookup, tolerance int) model.ValidationResult {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	result := model.ValidationResult{IsValid: true}

	if len(plan.TrackIDs) == 0 {
		result.IsValid = false
		result.Errors = append(result.Errors, "plan contains no tracks")
		return result
	}

	total := 0
	for _, id := range plan.TrackIDs {
		t, ok := catalog.Get(id)
		if !ok {
			result.IsValid = false
			result.Errors = append(result.Errors, fmt.Sprintf("track %q does not exist in the catalog", id))
			continue
		}
		total += t.Duration
	}

	if target := plan.Intent.TargetDuration; target > 0 {
		diff := total - target
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			result.IsValid = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("total duration %ds deviates from target %ds by more than %ds", total, target, tolerance))
		}
	}

	return result
}
