package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// FLACDecoder implements Decoder for FLAC files
type FLACDecoder struct {
	stream      *flac.Stream
	file        *os.File
	sampleRate  int
	numSamples  int64
	numChannels int
	position    int64
}

// NewFLACDecoder creates a new FLAC decoder. Format metadata comes from the
// stream's own StreamInfo block.
func NewFLACDecoder(filename string) (*FLACDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	// Parse FLAC stream - reads signature and StreamInfo block
	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create FLAC decoder: %w", err)
	}

	return &FLACDecoder{
		stream:      stream,
		file:        f,
		sampleRate:  int(stream.Info.SampleRate),
		numSamples:  int64(stream.Info.NSamples),
		numChannels: int(stream.Info.NChannels),
		position:    0,
	}, nil
}

// ReadChunk reads the next chunk of mono samples
func (d *FLACDecoder) ReadChunk(numSamples int) ([]float64, error) {
	if d.numSamples > 0 && d.position >= d.numSamples {
		return nil, io.EOF
	}

	samples := make([]float64, 0, numSamples)

	// Read FLAC frames until we have enough samples
	for len(samples) < numSamples {
		frame, err := d.stream.ParseNext()
		if err != nil {
			if err == io.EOF {
				if len(samples) == 0 {
					return nil, io.EOF
				}
				d.position += int64(len(samples))
				return samples, nil
			}
			return nil, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}

		// One subframe per channel; downmix by averaging
		frameSamples := len(frame.Subframes[0].Samples)
		maxVal := float64(int64(1) << (frame.BitsPerSample - 1))

		for i := 0; i < frameSamples && len(samples) < numSamples; i++ {
			var sample float64
			if len(frame.Subframes) == 1 {
				sample = float64(frame.Subframes[0].Samples[i])
			} else {
				var sum int64
				for _, subframe := range frame.Subframes {
					sum += int64(subframe.Samples[i])
				}
				sample = float64(sum) / float64(len(frame.Subframes))
			}
			samples = append(samples, sample/maxVal)
		}
	}

	d.position += int64(len(samples))
	return samples, nil
}

// SampleRate returns the sample rate
func (d *FLACDecoder) SampleRate() int {
	return d.sampleRate
}

// NumChannels returns the number of audio channels
func (d *FLACDecoder) NumChannels() int {
	return d.numChannels
}

// Close closes the decoder and releases resources
func (d *FLACDecoder) Close() error {
	if d.stream != nil {
		d.stream.Close()
	}
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
