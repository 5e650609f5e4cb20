package scoring

import (
	"fmt"
	"math"

	"CrateFM/model"
)

// Progression penalties.
const (
	dropPenalty  = 0.15 // per adjacent drop of more than 2 levels
	shapePenalty = 0.2  // curve shape not matching the requested one
)

// ProgressionReport is the outcome of validating an energy sequence
// against an intended curve.
type ProgressionReport struct {
	Valid       bool     `json:"valid"`
	Score       float64  `json:"score"`
	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ValidateEnergyProgression checks a sequence of 1-5 energy levels against
// the requested curve shape. Sequences of length 0 or 1 are trivially valid.
func ValidateEnergyProgression(levels []int, curve model.EnergyCurve) ProgressionReport {
	if len(levels) <= 1 {
		return ProgressionReport{Valid: true, Score: 1.0}
	}

	report := ProgressionReport{Score: 1.0}

	for i := 1; i < len(levels); i++ {
		if levels[i-1]-levels[i] > 2 {
			report.Score -= dropPenalty
			report.Issues = append(report.Issues,
				fmt.Sprintf("energy drops from %d to %d between positions %d and %d", levels[i-1], levels[i], i-1, i))
			report.Suggestions = append(report.Suggestions,
				fmt.Sprintf("insert a bridging track around position %d to soften the drop", i))
		}
	}

	switch curve {
	case model.EnergyCurveLinear:
		half := len(levels) / 2
		first := meanInt(levels[:half])
		second := meanInt(levels[half:])
		if second < first {
			report.Score -= shapePenalty
			report.Issues = append(report.Issues,
				fmt.Sprintf("linear curve requested but energy falls from %.1f to %.1f across the set", first, second))
			report.Suggestions = append(report.Suggestions,
				"move higher-energy tracks toward the back half")
		}
	case model.EnergyCurvePeak:
		peakAt := 0
		for i, l := range levels {
			if l > levels[peakAt] {
				peakAt = i
			}
		}
		mid := float64(len(levels)-1) / 2
		if math.Abs(float64(peakAt)-mid) > 0.3*float64(len(levels)) {
			report.Score -= shapePenalty
			report.Issues = append(report.Issues,
				fmt.Sprintf("peak curve requested but the energy peak sits at position %d of %d", peakAt, len(levels)))
			report.Suggestions = append(report.Suggestions,
				"place the most intense tracks near the middle of the set")
		}
	}

	if report.Score < 0 {
		report.Score = 0
	}
	report.Valid = len(report.Issues) == 0
	return report
}

func meanInt(vals []int) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return float64(sum) / float64(len(vals))
}
