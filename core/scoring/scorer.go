// Package scoring evaluates how well tracks mix back-to-back: tempo, key
// and energy sub-scores, a weighted transition quality, tempo-path advice
// and whole-set mixability analysis. All functions are pure.
package scoring

import (
	"fmt"
	"math"

	"CrateFM/core/camelot"
	"CrateFM/model"
)

// Transition quality weights. Tempo and key dominate; energy refines.
const (
	bpmWeight    = 0.4
	keyWeight    = 0.4
	energyWeight = 0.2

	// neutralEnergyScore is used when either track lacks an energy level.
	neutralEnergyScore = 0.7

	// incompatibleKeyScore is the fixed penalty for a non-adjacent key jump.
	incompatibleKeyScore = 0.3
)

// Rating buckets a transition quality score.
type Rating string

const (
	RatingExcellent   Rating = "excellent"
	RatingGood        Rating = "good"
	RatingFair        Rating = "fair"
	RatingChallenging Rating = "challenging"
)

// BPMScore rates the tempo compatibility of two BPM values on [0,1].
// Symmetric in its arguments.
func BPMScore(a, b float64) float64 {
	diff := math.Abs(a - b)
	switch {
	case diff == 0:
		return 1.0
	case diff <= 2:
		return 0.95
	case diff <= 5:
		return 0.85
	case diff <= 10:
		return 0.65
	case diff <= 15:
		return 0.4
	default:
		return math.Max(0, 0.4-(diff-15)*0.02)
	}
}

// EnergyScore rates the compatibility of two 1-5 energy levels on [0,1].
// Symmetric in its arguments.
func EnergyScore(a, b int) float64 {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return 1.0
	case diff == 1:
		return 0.85
	case diff == 2:
		return 0.6
	default:
		return math.Max(0, 0.4-float64(diff-2)*0.15)
	}
}

// KeyScore rates moving from one Camelot key to another: 1.0 inside the
// compatible set, otherwise a harsh but non-zero penalty.
func KeyScore(from, to string) float64 {
	if camelot.AreCompatible(from, to) {
		return 1.0
	}
	return incompatibleKeyScore
}

// TransitionQuality is the composite assessment of one track-to-track move.
type TransitionQuality struct {
	BPMScore    float64 `json:"bpmScore"`
	KeyScore    float64 `json:"keyScore"`
	EnergyScore float64 `json:"energyScore"`
	Overall     float64 `json:"overall"`
	Rating      Rating  `json:"rating"`
}

// RateTransition scores the transition from t1 into t2.
func RateTransition(t1, t2 *model.Track) TransitionQuality {
	bpm := BPMScore(t1.BPM, t2.BPM)
	key := KeyScore(t1.Key, t2.Key)

	energy := neutralEnergyScore
	if t1.HasEnergy() && t2.HasEnergy() {
		energy = EnergyScore(t1.Energy, t2.Energy)
	}

	overall := bpmWeight*bpm + keyWeight*key + energyWeight*energy

	return TransitionQuality{
		BPMScore:    bpm,
		KeyScore:    key,
		EnergyScore: energy,
		Overall:     overall,
		Rating:      RateScore(overall),
	}
}

// RateScore buckets an overall score into a rating.
func RateScore(overall float64) Rating {
	switch {
	case overall >= 0.85:
		return RatingExcellent
	case overall >= 0.70:
		return RatingGood
	case overall >= 0.50:
		return RatingFair
	default:
		return RatingChallenging
	}
}

// TransitionMethod names a tempo-adjustment technique.
type TransitionMethod string

const (
	MethodDirect     TransitionMethod = "direct"
	MethodGradual    TransitionMethod = "gradual"
	MethodHalfTime   TransitionMethod = "half_time"
	MethodDoubleTime TransitionMethod = "double_time"
)

// TransitionPath describes how to move between two tempos.
type TransitionPath struct {
	Method      TransitionMethod `json:"method"`
	Adjustment  float64          `json:"adjustment"` // BPM delta to apply
	Description string           `json:"description"`
}

// bpmPathTolerance bounds how far a half/double-time pivot or a direct mix
// may sit from the target tempo.
const bpmPathTolerance = 5.0

// SuggestTransitionPath advises on getting from one BPM to another. Half- or
// double-time pivots are preferred only when strictly closer to the target
// than the direct difference and within tolerance.
func SuggestTransitionPath(fromBPM, toBPM float64) TransitionPath {
	directDiff := math.Abs(toBPM - fromBPM)
	halfDiff := math.Abs(toBPM - fromBPM/2)
	doubleDiff := math.Abs(toBPM - fromBPM*2)

	if halfDiff < directDiff && halfDiff <= bpmPathTolerance {
		return TransitionPath{
			Method:      MethodHalfTime,
			Adjustment:  toBPM - fromBPM/2,
			Description: fmt.Sprintf("drop to half-time (%.0f BPM), then adjust %.1f BPM", fromBPM/2, toBPM-fromBPM/2),
		}
	}
	if doubleDiff < directDiff && doubleDiff <= bpmPathTolerance {
		return TransitionPath{
			Method:      MethodDoubleTime,
			Adjustment:  toBPM - fromBPM*2,
			Description: fmt.Sprintf("push to double-time (%.0f BPM), then adjust %.1f BPM", fromBPM*2, toBPM-fromBPM*2),
		}
	}
	if directDiff <= bpmPathTolerance {
		return TransitionPath{
			Method:      MethodDirect,
			Adjustment:  toBPM - fromBPM,
			Description: fmt.Sprintf("tempos are close, mix directly (%.1f BPM shift)", toBPM-fromBPM),
		}
	}
	return TransitionPath{
		Method:      MethodGradual,
		Adjustment:  toBPM - fromBPM,
		Description: fmt.Sprintf("ease the tempo %.1f BPM across the blend", toBPM-fromBPM),
	}
}
