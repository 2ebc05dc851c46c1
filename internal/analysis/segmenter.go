package analysis

import (
	"math"

	"github.com/linuxmatters/jiveloop/internal/config"
)

// Envelope computes the short-time RMS energy envelope: one value per
// window of sampleRate/50 samples (~20ms), from normalized samples.
func Envelope(samples []int16, sampleRate int) []float64 {
	window := sampleRate / config.EnvelopeDivisor
	if window < 1 {
		window = 1
	}

	numFrames := len(samples) / window
	envelope := make([]float64, 0, numFrames)

	for frame := 0; frame < numFrames; frame++ {
		start := frame * window
		var sumSquares float64
		for i := start; i < start+window; i++ {
			s := float64(samples[i]) / 32768.0
			sumSquares += s * s
		}
		envelope = append(envelope, math.Sqrt(sumSquares/float64(window)))
	}

	return envelope
}

// DetectOnsets segments a mono PCM buffer into beat boundaries. The result
// is strictly increasing, starts at 0 and ends at len(samples), so adjacent
// pairs partition the whole buffer. When no envelope peak qualifies the
// segmentation degenerates to a single span.
func DetectOnsets(samples []int16, sampleRate int) []int {
	if len(samples) == 0 {
		return []int{0}
	}

	window := sampleRate / config.EnvelopeDivisor
	if window < 1 {
		window = 1
	}
	envelope := Envelope(samples, sampleRate)

	onsets := []int{0}
	lastPeak := -config.MinPeakSpacing

	for i := 1; i < len(envelope)-1; i++ {
		if envelope[i] < config.PeakFloor {
			continue
		}
		if envelope[i] <= envelope[i-1] || envelope[i] < envelope[i+1] {
			continue
		}
		if i-lastPeak < config.MinPeakSpacing {
			continue
		}
		lastPeak = i

		onset := i * window
		// Peaks in the first envelope frame collapse into the leading
		// boundary; anything at or past the end is unreachable here but
		// the bound keeps the list strictly increasing regardless.
		if onset > onsets[len(onsets)-1] && onset < len(samples) {
			onsets = append(onsets, onset)
		}
	}

	onsets = append(onsets, len(samples))
	return onsets
}
