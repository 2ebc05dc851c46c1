package config

// Segmentation settings
const (
	// EnvelopeDivisor sets the energy-envelope window length as a fraction
	// of the sample rate: sampleRate/50 samples, roughly 20ms per frame.
	EnvelopeDivisor = 50

	// PeakFloor is the minimum envelope value a frame must reach to be
	// considered an onset candidate.
	PeakFloor = 0.05

	// MinPeakSpacing is the minimum number of envelope frames between two
	// accepted onsets (15 frames of ~20ms each, roughly 0.3s).
	MinPeakSpacing = 15
)

// Feature extraction settings
const (
	// AnalysisWindow is the FFT window length in samples. Beats shorter
	// than this are dropped rather than analyzed.
	AnalysisWindow = 1024

	// TimbreBins is the length of the timbre vector (coarse spectral bins).
	TimbreBins = 12

	// ChromaClasses is the number of pitch classes in the chroma vector.
	ChromaClasses = 12

	// ChromaMinFreq is the lowest frequency (Hz) contributing to chroma;
	// spectral bins below A0 carry no usable pitch information.
	ChromaMinFreq = 27.5

	// TuningA4 is the reference frequency (Hz) for MIDI note conversion.
	TuningA4 = 440.0

	// LogFloor guards log-of-zero in timbre and loudness computation.
	LogFloor = 1e-10
)

// Similarity graph settings
const (
	// PhaseModulus restricts edges to beats on the same rhythmic
	// subdivision: only beats with equal index%PhaseModulus connect.
	PhaseModulus = 4

	// Distance weights for the six feature terms. Duration dominates so
	// that jumps land on beats of near-identical length.
	WeightTimbre        = 1.0
	WeightPitch         = 10.0
	WeightLoudnessStart = 1.0
	WeightLoudnessMax   = 1.0
	WeightDuration      = 100.0
	WeightConfidence    = 1.0
)

// Tunable parameter defaults and bounds
const (
	DefaultThreshold  = 60.0
	MinThreshold      = 10.0
	MaxThreshold      = 150.0
	DefaultBranchProb = 0.5
)

// Streaming settings
const (
	// WAVHeaderSize is the length of the canonical PCM WAV header emitted
	// before the endless body.
	WAVHeaderSize = 44

	// StreamChunkSize is the preferred chunk length in bytes when serving
	// the stream over HTTP.
	StreamChunkSize = 4096
)

// ClampThreshold bounds a similarity threshold to the supported range.
func ClampThreshold(t float64) float64 {
	if t < MinThreshold {
		return MinThreshold
	}
	if t > MaxThreshold {
		return MaxThreshold
	}
	return t
}

// ClampProbability bounds a branch probability to [0, 1].
func ClampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
