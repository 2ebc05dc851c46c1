package analysis

import (
	"math"

	"github.com/linuxmatters/jiveloop/internal/config"
)

// Distance returns the weighted feature distance between two beats.
func Distance(a, b *Beat) float64 {
	return config.WeightTimbre*euclidean(a.Timbre, b.Timbre) +
		config.WeightPitch*euclidean(a.Pitch, b.Pitch) +
		config.WeightLoudnessStart*math.Abs(a.LoudnessStart-b.LoudnessStart) +
		config.WeightLoudnessMax*math.Abs(a.LoudnessMax-b.LoudnessMax) +
		config.WeightDuration*math.Abs(a.Duration-b.Duration) +
		config.WeightConfidence*math.Abs(a.Confidence-b.Confidence)
}

func euclidean(v1, v2 []float64) float64 {
	var sum float64
	for i := range v1 {
		d := v1[i] - v2[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// WithGraph returns a new FeatureSet whose beats carry the neighbor lists
// for the given threshold. The receiver is never mutated, so a playback walk
// holding the old snapshot stays valid; callers publish the result through
// one atomic swap. Edges connect only beats on the same rhythmic subdivision
// (equal Index modulo PhaseModulus) whose distance is under the threshold.
func (fs *FeatureSet) WithGraph(threshold float64) *FeatureSet {
	next := &FeatureSet{
		Beats:      make([]Beat, len(fs.Beats)),
		SampleRate: fs.SampleRate,
		NumSamples: fs.NumSamples,
	}
	copy(next.Beats, fs.Beats)
	for i := range next.Beats {
		next.Beats[i].Neighbors = nil
	}

	for i := range next.Beats {
		for j := range next.Beats {
			if i == j {
				continue
			}
			a, b := &next.Beats[i], &next.Beats[j]
			if a.Index%config.PhaseModulus != b.Index%config.PhaseModulus {
				continue
			}
			if d := Distance(a, b); d < threshold {
				a.Neighbors = append(a.Neighbors, Neighbor{Dest: j, Distance: d})
			}
		}
	}

	return next
}
