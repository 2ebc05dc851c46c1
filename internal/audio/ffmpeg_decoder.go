package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
)

// FFmpegSampleRate is the rate ffmpeg resamples to when decoding formats no
// native decoder handles.
const FFmpegSampleRate = 44100

// FFmpegDecoder implements Decoder for any format the ffmpeg binary can
// decode. The whole file is decoded up front to mono s16le at a fixed rate;
// ReadChunk then serves from the in-memory buffer.
type FFmpegDecoder struct {
	samples  []float64
	position int
}

// NewFFmpegDecoder decodes an audio file via the ffmpeg binary.
func NewFFmpegDecoder(filename string) (*FFmpegDecoder, error) {
	cmd := exec.Command("ffmpeg",
		"-i", filename,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", FFmpegSampleRate),
		"-ac", "1",
		"-loglevel", "error",
		"pipe:1",
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", filename, err)
	}

	// Ensure even byte count for int16 alignment
	if len(out)%2 != 0 {
		out = out[:len(out)-1]
	}

	samples := make([]float64, len(out)/2)
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(out[i*2 : i*2+2]))
		samples[i] = float64(s) / 32768.0
	}

	return &FFmpegDecoder{samples: samples}, nil
}

// ReadChunk reads the next chunk of mono samples
func (d *FFmpegDecoder) ReadChunk(numSamples int) ([]float64, error) {
	if d.position >= len(d.samples) {
		return nil, io.EOF
	}
	if d.position+numSamples > len(d.samples) {
		numSamples = len(d.samples) - d.position
	}
	chunk := d.samples[d.position : d.position+numSamples]
	d.position += numSamples
	return chunk, nil
}

// SampleRate returns the sample rate
func (d *FFmpegDecoder) SampleRate() int {
	return FFmpegSampleRate
}

// NumChannels returns the number of audio channels after ffmpeg's downmix
func (d *FFmpegDecoder) NumChannels() int {
	return 1
}

// Close closes the decoder and releases resources
func (d *FFmpegDecoder) Close() error {
	return nil
}
