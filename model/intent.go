package model

// MixStyle describes the intended character of transitions across a crate.
type MixStyle string

const (
	MixStyleSmooth    MixStyle = "smooth"
	MixStyleEnergetic MixStyle = "energetic"
	MixStyleEclectic  MixStyle = "eclectic"
)

// EnergyCurve describes the intended intensity progression across a crate.
type EnergyCurve string

const (
	EnergyCurveLinear EnergyCurve = "linear"
	EnergyCurveWave   EnergyCurve = "wave"
	EnergyCurvePeak   EnergyCurve = "peak"
)

// BPMRange bounds the tempo of candidate tracks, inclusive on both ends.
type BPMRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether bpm falls inside the range.
func (r BPMRange) Contains(bpm float64) bool {
	return bpm >= r.Min && bpm <= r.Max
}

// DerivedIntent is the normalized set of planning parameters, either supplied
// by the caller directly or derived from a free-text prompt.
type DerivedIntent struct {
	BPMRange       BPMRange    `json:"bpmRange"`
	Keys           []string    `json:"keys,omitempty"`
	Genres         []string    `json:"genres,omitempty"`
	TargetDuration int         `json:"targetDuration"` // seconds
	MixStyle       MixStyle    `json:"mixStyle"`
	MustArtists    []string    `json:"mustArtists,omitempty"`
	AvoidArtists   []string    `json:"avoidArtists,omitempty"`
	MustTracks     []string    `json:"mustTracks,omitempty"`
	AvoidTracks    []string    `json:"avoidTracks,omitempty"`
	EnergyCurve    EnergyCurve `json:"energyCurve,omitempty"`
	TargetEnergy   *float64    `json:"targetEnergy,omitempty"`  // 0-1
	MinPopularity  *int        `json:"minPopularity,omitempty"` // 0-100
}
