package scoring

import (
	"fmt"
	"strings"

	"CrateFM/model"
)

// weakTransitionThreshold marks a transition worth calling out.
const weakTransitionThreshold = 0.5

// wideTempoSpread triggers the tempo-spread recommendation, in BPM.
const wideTempoSpread = 20.0

// TransitionAssessment ties a quality score to its position in a set.
type TransitionAssessment struct {
	Position int               `json:"position"` // index of the outgoing track
	FromID   string            `json:"fromId"`
	ToID     string            `json:"toId"`
	Quality  TransitionQuality `json:"quality"`
}

// WeakTransition flags an adjacent pair that scores poorly, with the reason.
type WeakTransition struct {
	Position int     `json:"position"`
	FromID   string  `json:"fromId"`
	ToID     string  `json:"toId"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
}

// MixabilityReport summarizes how well an ordered set of tracks flows.
type MixabilityReport struct {
	OverallScore    float64                `json:"overallScore"`
	Transitions     []TransitionAssessment `json:"transitions,omitempty"`
	WeakTransitions []WeakTransition       `json:"weakTransitions,omitempty"`
	Recommendations []string               `json:"recommendations,omitempty"`
}

// AnalyzeSetMixability rates every adjacent pair in an ordered set and
// reports the mean as the overall score. Empty and single-track sets are
// perfectly mixable.
func AnalyzeSetMixability(tracks []*model.Track) MixabilityReport {
	if len(tracks) <= 1 {
		return MixabilityReport{OverallScore: 1.0}
	}

	report := MixabilityReport{}
	sum := 0.0
	for i := 0; i < len(tracks)-1; i++ {
		q := RateTransition(tracks[i], tracks[i+1])
		sum += q.Overall
		report.Transitions = append(report.Transitions, TransitionAssessment{
			Position: i,
			FromID:   tracks[i].ID,
			ToID:     tracks[i+1].ID,
			Quality:  q,
		})
		if q.Overall < weakTransitionThreshold {
			report.WeakTransitions = append(report.WeakTransitions, WeakTransition{
				Position: i,
				FromID:   tracks[i].ID,
				ToID:     tracks[i+1].ID,
				Score:    q.Overall,
				Reason:   weakReason(q),
			})
		}
	}
	report.OverallScore = sum / float64(len(tracks)-1)

	minBPM, maxBPM := tracks[0].BPM, tracks[0].BPM
	for _, t := range tracks[1:] {
		if t.BPM < minBPM {
			minBPM = t.BPM
		}
		if t.BPM > maxBPM {
			maxBPM = t.BPM
		}
	}
	if maxBPM-minBPM > wideTempoSpread {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("tempo spread is wide (%.0f-%.0f BPM); consider splitting the set or using half/double-time pivots", minBPM, maxBPM))
	}
	if len(report.WeakTransitions) > 0 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("%d transition(s) score below %.1f; reordering or swapping those tracks would smooth the flow", len(report.WeakTransitions), weakTransitionThreshold))
	}

	return report
}

// weakReason assembles a human-readable cause from the low sub-scores.
func weakReason(q TransitionQuality) string {
	var causes []string
	if q.BPMScore < 0.5 {
		causes = append(causes, "large tempo gap")
	}
	if q.KeyScore <= incompatibleKeyScore {
		causes = append(causes, "incompatible keys")
	}
	if q.EnergyScore < 0.5 {
		causes = append(causes, "abrupt energy change")
	}
	if len(causes) == 0 {
		causes = append(causes, "weak overall blend")
	}
	return strings.Join(causes, ", ")
}
