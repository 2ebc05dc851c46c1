package analysis

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/linuxmatters/jiveloop/internal/config"
)

// ApplyHann applies a Hann window to the input data
func ApplyHann(data []float64) []float64 {
	windowed := make([]float64, len(data))
	n := len(data)
	for i := range data {
		window := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = data[i] * window
	}
	return windowed
}

// extractor computes per-beat fingerprints from one centered analysis
// window per beat.
type extractor struct {
	fft        *fourier.FFT
	sampleRate int
}

func newExtractor(sampleRate int) *extractor {
	return &extractor{
		fft:        fourier.NewFFT(config.AnalysisWindow),
		sampleRate: sampleRate,
	}
}

// ExtractFeatures turns an onset segmentation into a FeatureSet. Beats
// shorter than the analysis window are dropped entirely; retained beats keep
// their original onset-loop index, so the numbering may have gaps.
func ExtractFeatures(samples []int16, sampleRate int, onsets []int) *FeatureSet {
	e := newExtractor(sampleRate)

	set := &FeatureSet{
		SampleRate: sampleRate,
		NumSamples: len(samples),
	}

	for i := 0; i+1 < len(onsets); i++ {
		start, end := onsets[i], onsets[i+1]
		if end-start < config.AnalysisWindow {
			continue
		}
		set.Beats = append(set.Beats, e.analyzeBeat(samples, i, start, end))
	}

	return set
}

func (e *extractor) analyzeBeat(samples []int16, index, start, end int) Beat {
	window := centeredWindow(samples, start, end)

	rms := windowRMS(window)
	loudness := 20 * math.Log10(rms+config.LogFloor)

	spectrum := e.magnitudeSpectrum(ApplyHann(window))

	return Beat{
		Index:         index,
		Start:         float64(start) / float64(e.sampleRate),
		Duration:      float64(end-start) / float64(e.sampleRate),
		Timbre:        timbreVector(spectrum),
		Pitch:         e.chromaVector(spectrum),
		LoudnessStart: loudness,
		LoudnessMax:   loudness,
		Confidence:    1.0,
	}
}

// centeredWindow takes one analysis window of normalized samples centered on
// the beat's midpoint, clamped to the buffer bounds.
func centeredWindow(samples []int16, start, end int) []float64 {
	mid := (start + end) / 2
	wstart := mid - config.AnalysisWindow/2
	if wstart < 0 {
		wstart = 0
	}
	if wstart+config.AnalysisWindow > len(samples) {
		wstart = len(samples) - config.AnalysisWindow
	}

	window := make([]float64, config.AnalysisWindow)
	for i := range window {
		window[i] = float64(samples[wstart+i]) / 32768.0
	}
	return window
}

func windowRMS(window []float64) float64 {
	var sumSquares float64
	for _, s := range window {
		sumSquares += s * s
	}
	return math.Sqrt(sumSquares / float64(len(window)))
}

// magnitudeSpectrum computes the magnitude of the real FFT of the windowed
// samples: AnalysisWindow/2+1 values.
func (e *extractor) magnitudeSpectrum(windowed []float64) []float64 {
	coeffs := e.fft.Coefficients(nil, windowed)
	mags := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mags[i] = math.Sqrt(real(c)*real(c) + imag(c)*imag(c))
	}
	return mags
}

// timbreVector partitions the spectrum into 12 contiguous equal-width bands;
// each value is the log of the summed magnitude in that band.
func timbreVector(spectrum []float64) []float64 {
	timbre := make([]float64, config.TimbreBins)
	binsPerBand := len(spectrum) / config.TimbreBins

	for band := 0; band < config.TimbreBins; band++ {
		start := band * binsPerBand
		end := start + binsPerBand

		var sum float64
		for i := start; i < end; i++ {
			sum += spectrum[i]
		}
		timbre[band] = math.Log(sum + config.LogFloor)
	}

	return timbre
}

// chromaVector accumulates spectral magnitude into 12 pitch classes,
// normalized by the maximum class energy.
func (e *extractor) chromaVector(spectrum []float64) []float64 {
	chroma := make([]float64, config.ChromaClasses)

	for bin := 1; bin < len(spectrum); bin++ {
		freq := float64(bin) * float64(e.sampleRate) / float64(config.AnalysisWindow)
		if freq < config.ChromaMinFreq {
			continue
		}
		// Fractional MIDI note referenced to A4=440 (note 69), nearest
		// integer note modulo 12 is the pitch class.
		note := 69 + 12*math.Log2(freq/config.TuningA4)
		class := int(math.Round(note)) % config.ChromaClasses
		if class < 0 {
			class += config.ChromaClasses
		}
		chroma[class] += spectrum[bin]
	}

	max := 0.0
	for _, v := range chroma {
		if v > max {
			max = v
		}
	}
	if max > 0 {
		for i := range chroma {
			chroma[i] /= max
		}
	}

	return chroma
}
