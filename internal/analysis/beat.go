package analysis

// Neighbor is a directed edge to an acoustically similar beat.
// Dest is a position in the owning FeatureSet's Beats slice.
type Neighbor struct {
	Dest     int
	Distance float64
}

// Beat is one contiguous span of audio treated as a single rhythmic unit,
// with its acoustic fingerprint. All fields except Neighbors are fixed once
// the beat is created.
type Beat struct {
	// Index is the beat's position in the original onset loop. Beats whose
	// span was too short for analysis are dropped without renumbering, so
	// the sequence may have gaps; the phase class (Index%PhaseModulus)
	// tracks position in the source's rhythmic grid, not the retained slice.
	Index int

	Start    float64 // seconds
	Duration float64 // seconds

	Timbre []float64 // coarse spectral-energy fingerprint, 12 values
	Pitch  []float64 // chroma: per-pitch-class energy, 12 values

	LoudnessStart float64 // dB
	LoudnessMax   float64 // dB
	Confidence    float64

	Neighbors []Neighbor
}

// FeatureSet is one immutable analysis snapshot: the retained beats in
// playback order plus the PCM geometry they index into. Graph regeneration
// produces a new FeatureSet rather than mutating a live one.
type FeatureSet struct {
	Beats      []Beat
	SampleRate int
	NumSamples int
}

// EdgeCount returns the total number of directed edges in the graph.
func (fs *FeatureSet) EdgeCount() int {
	var n int
	for i := range fs.Beats {
		n += len(fs.Beats[i].Neighbors)
	}
	return n
}
