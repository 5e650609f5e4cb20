package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"CrateFM/core/agent"
	"CrateFM/core/camelot"
	"CrateFM/model"
)

// payloadRange decodes a {"min": x, "max": y} object.
type payloadRange struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// intentPayload is the schema expected from the intent-derivation phase.
// Both bpmRange and tempoRange spellings are accepted.
type intentPayload struct {
	BPMRange       *payloadRange `json:"bpmRange"`
	TempoRange     *payloadRange `json:"tempoRange"`
	Keys           []string      `json:"keys"`
	Genres         []string      `json:"genres"`
	TargetDuration *float64      `json:"targetDuration"`
	MixStyle       string        `json:"mixStyle"`
	MustArtists    []string      `json:"mustArtists"`
	AvoidArtists   []string      `json:"avoidArtists"`
	MustTracks     []string      `json:"mustTracks"`
	AvoidTracks    []string      `json:"avoidTracks"`
	EnergyCurve    string        `json:"energyCurve"`
	TargetEnergy   *float64      `json:"targetEnergy"`
	MinPopularity  *int          `json:"minPopularity"`
}

// decodeIntentResponse turns a free-text model reply into a DerivedIntent.
// Absent or mistyped required fields make the whole response unparseable;
// the caller falls back rather than trusting a half-decoded intent.
func decodeIntentResponse(response string, defaultTargetDuration int) (model.DerivedIntent, error) {
	var payload intentPayload
	if err := agent.ExtractJSONInto(response, &payload); err != nil {
		return model.DerivedIntent{}, err
	}

	r := payload.BPMRange
	if r == nil {
		r = payload.TempoRange
	}
	if r == nil || r.Min == nil || r.Max == nil {
		return model.DerivedIntent{}, &agent.ParseError{
			Reason: "tempo range must decode to two numbers",
			Field:  "bpmRange",
		}
	}
	if *r.Min > *r.Max {
		return model.DerivedIntent{}, &agent.ParseError{
			Reason: "tempo range min exceeds max",
			Field:  "bpmRange",
			Value:  fmt.Sprintf("%v-%v", *r.Min, *r.Max),
		}
	}

	target := defaultTargetDuration
	if payload.TargetDuration != nil {
		if *payload.TargetDuration < 0 {
			return model.DerivedIntent{}, &agent.ParseError{
				Reason: "duration must be non-negative",
				Field:  "targetDuration",
				Value:  fmt.Sprintf("%v", *payload.TargetDuration),
			}
		}
		if *payload.TargetDuration > 0 {
			target = int(*payload.TargetDuration)
		}
	}

	intent := model.DerivedIntent{
		BPMRange:       model.BPMRange{Min: *r.Min, Max: *r.Max},
		Genres:         payload.Genres,
		TargetDuration: target,
		MixStyle:       parseMixStyle(payload.MixStyle),
		MustArtists:    payload.MustArtists,
		AvoidArtists:   payload.AvoidArtists,
		MustTracks:     payload.MustTracks,
		AvoidTracks:    payload.AvoidTracks,
		EnergyCurve:    parseEnergyCurve(payload.EnergyCurve),
		TargetEnergy:   payload.TargetEnergy,
		MinPopularity:  payload.MinPopularity,
	}

	// Keep only well-formed Camelot keys; a stray key name is not worth
	// discarding the whole derivation for.
	for _, k := range payload.Keys {
		if norm, err := camelot.Normalize(k); err == nil {
			intent.Keys = append(intent.Keys, norm)
		}
	}

	return intent, nil
}

func parseMixStyle(s string) model.MixStyle {
	switch model.MixStyle(strings.ToLower(strings.TrimSpace(s))) {
	case model.MixStyleEnergetic:
		return model.MixStyleEnergetic
	case model.MixStyleEclectic:
		return model.MixStyleEclectic
	default:
		return model.MixStyleSmooth
	}
}

func parseEnergyCurve(s string) model.EnergyCurve {
	switch model.EnergyCurve(strings.ToLower(strings.TrimSpace(s))) {
	case model.EnergyCurveLinear:
		return model.EnergyCurveLinear
	case model.EnergyCurveWave:
		return model.EnergyCurveWave
	case model.EnergyCurvePeak:
		return model.EnergyCurvePeak
	default:
		return ""
	}
}

// trackListPayload is the schema expected from the pool-refinement,
// sequencing and revision phases. A bare JSON array is also accepted.
type trackListPayload struct {
	TrackIDs    []string `json:"trackIds"`
	Description string   `json:"description"`
	Annotation  string   `json:"annotation"`
}

// decodeTrackListResponse extracts an ordered list of track ids from a model
// reply, plus any description/annotation text it carried.
func decodeTrackListResponse(response string) (trackListPayload, error) {
	jsonStr, err := agent.ExtractJSON(response)
	if err != nil {
		return trackListPayload{}, err
	}

	var payload trackListPayload
	if strings.HasPrefix(strings.TrimSpace(jsonStr), "[") {
		if err := json.Unmarshal([]byte(jsonStr), &payload.TrackIDs); err != nil {
			return trackListPayload{}, &agent.ParseError{Reason: "array is not a list of track ids: " + err.Error()}
		}
	} else if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return trackListPayload{}, &agent.ParseError{Reason: "object does not match expected shape: " + err.Error()}
	}

	if len(payload.TrackIDs) == 0 {
		return trackListPayload{}, &agent.ParseError{Reason: "response contains no track ids", Field: "trackIds"}
	}
	return payload, nil
}

// NormalizeIntent validates a caller-supplied intent in place, applying the
// default target duration when none is set. Violations are ConstraintErrors:
// externally supplied structured data is never silently coerced.
func NormalizeIntent(intent *model.DerivedIntent, defaultTargetDuration int) error {
	if intent.BPMRange.Min > intent.BPMRange.Max {
		return &ConstraintError{
			Field:  "bpmRange",
			Value:  fmt.Sprintf("%v-%v", intent.BPMRange.Min, intent.BPMRange.Max),
			Reason: "min must not exceed max",
		}
	}
	if intent.BPMRange.Min < 0 {
		return &ConstraintError{Field: "bpmRange.min", Value: intent.BPMRange.Min, Reason: "must not be negative"}
	}
	if intent.TargetDuration < 0 {
		return &ConstraintError{Field: "targetDuration", Value: intent.TargetDuration, Reason: "must not be negative"}
	}
	if intent.TargetDuration == 0 {
		intent.TargetDuration = defaultTargetDuration
	}
	if intent.MixStyle == "" {
		intent.MixStyle = model.MixStyleSmooth
	}
	for i, k := range intent.Keys {
		norm, err := camelot.Normalize(k)
		if err != nil {
			return &ConstraintError{Field: "keys", Value: k, Reason: "not a Camelot wheel position"}
		}
		intent.Keys[i] = norm
	}
	return nil
}
