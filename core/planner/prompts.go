package planner

import (
	"fmt"
	"strings"

	"CrateFM/model"
)

// Prompt builders for the AI-backed phases. Each asks for the JSON shape the
// matching decode function in parse.go expects.

func buildDeriveIntentPrompt(prompt string, defaultTargetDuration int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Derive crate-planning parameters from this request:\n\n%q\n\n", prompt)
	b.WriteString("Reply with one JSON object of this shape:\n")
	b.WriteString(`{"bpmRange": {"min": 120, "max": 126}, "keys": ["8A", "9A"], "genres": ["house"], ` +
		`"targetDuration": 3600, "mixStyle": "smooth", "mustArtists": [], "avoidArtists": [], ` +
		`"energyCurve": "peak"}`)
	fmt.Fprintf(&b, "\n\nmixStyle is one of smooth, energetic, eclectic; energyCurve is one of linear, wave, peak or omitted. "+
		"If the request names no duration, use %d seconds.", defaultTargetDuration)
	return b.String()
}

func buildPoolRefinementPrompt(intent model.DerivedIntent, candidates []*model.Track) string {
	var b strings.Builder
	b.WriteString("Select the tracks from this candidate list that best fit the intent below. ")
	b.WriteString("Drop tracks whose key or energy clashes with the rest; keep enough material to fill the target duration.\n\n")
	writeIntent(&b, intent)
	b.WriteString("\nCandidates:\n")
	writeTracks(&b, candidates)
	b.WriteString("\nReply with one JSON object: {\"trackIds\": [...], \"description\": \"why these\"}.")
	return b.String()
}

func buildSequencePrompt(intent model.DerivedIntent, candidates []*model.Track, seedIDs []string) string {
	var b strings.Builder
	b.WriteString("Order these tracks into a crate that flows well: adjacent tracks should have compatible tempos and harmonically adjacent keys, with the energy following the intent.\n\n")
	writeIntent(&b, intent)
	if len(seedIDs) > 0 {
		fmt.Fprintf(&b, "\nThese seed tracks MUST open the crate, in this order: %s\n", strings.Join(seedIDs, ", "))
	}
	b.WriteString("\nTracks:\n")
	writeTracks(&b, candidates)
	b.WriteString("\nStop adding tracks once the summed duration reaches the target. ")
	b.WriteString("Reply with one JSON object: {\"trackIds\": [...]}.")
	return b.String()
}

func buildExplainPrompt(plan *model.CratePlan, tracks []*model.Track) string {
	var b strings.Builder
	b.WriteString("Write a short crate annotation (3-5 sentences, plain prose, no JSON) describing how this set flows: tempo arc, key journey, energy shape.\n\n")
	if plan.Prompt != "" {
		fmt.Fprintf(&b, "Original request: %q\n\n", plan.Prompt)
	}
	b.WriteString("Crate, in play order:\n")
	writeTracks(&b, tracks)
	return b.String()
}

func buildRevisePrompt(plan *model.CratePlan, tracks []*model.Track, pool []*model.Track, instructions string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Revise this crate according to the instruction: %q\n\n", instructions)
	b.WriteString("Current crate, in play order:\n")
	writeTracks(&b, tracks)
	if len(pool) > 0 {
		b.WriteString("\nOther tracks available in the catalog:\n")
		writeTracks(&b, pool)
	}
	b.WriteString("\nReply with one JSON object holding the full revised order: {\"trackIds\": [...]}. ")
	b.WriteString("Use only identifiers listed above.")
	return b.String()
}

func writeIntent(b *strings.Builder, intent model.DerivedIntent) {
	fmt.Fprintf(b, "Intent: BPM %.0f-%.0f, target duration %ds, mix style %s",
		intent.BPMRange.Min, intent.BPMRange.Max, intent.TargetDuration, intent.MixStyle)
	if len(intent.Keys) > 0 {
		fmt.Fprintf(b, ", keys %s", strings.Join(intent.Keys, "/"))
	}
	if len(intent.Genres) > 0 {
		fmt.Fprintf(b, ", genres %s", strings.Join(intent.Genres, "/"))
	}
	if intent.EnergyCurve != "" {
		fmt.Fprintf(b, ", energy curve %s", intent.EnergyCurve)
	}
	b.WriteString("\n")
}

func writeTracks(b *strings.Builder, tracks []*model.Track) {
	for _, t := range tracks {
		fmt.Fprintf(b, "- %s: %s - %s (%.0f BPM, key %s", t.ID, t.Artist, t.Title, t.BPM, t.Key)
		if t.HasEnergy() {
			fmt.Fprintf(b, ", energy %d/5", t.Energy)
		}
		fmt.Fprintf(b, ", %ds)\n", t.Duration)
	}
}
