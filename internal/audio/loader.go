package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
)

// Track is the validated PCM input the analysis and playback core consume:
// mono 16-bit samples at a known fixed rate, container already stripped.
type Track struct {
	Samples    []int16
	SampleRate int
}

// Duration returns the track length in seconds.
func (t *Track) Duration() float64 {
	if t.SampleRate == 0 {
		return 0
	}
	return float64(len(t.Samples)) / float64(t.SampleRate)
}

// NewDecoder selects a decoder by file extension, falling back to the
// ffmpeg binary for anything without a native decoder.
func NewDecoder(filename string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return NewWAVDecoder(filename)
	case ".mp3":
		return NewMP3Decoder(filename)
	case ".flac":
		return NewFLACDecoder(filename)
	default:
		return NewFFmpegDecoder(filename)
	}
}

// Load decodes an audio file into a mono int16 track at the source rate.
func Load(filename string) (*Track, error) {
	decoder, err := NewDecoder(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio: %w", err)
	}
	defer decoder.Close()

	const chunkSize = 8192
	var samples []int16

	for {
		chunk, err := decoder.ReadChunk(chunkSize)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode audio: %w", err)
		}
		for _, s := range chunk {
			samples = append(samples, floatToInt16(s))
		}
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio data in file")
	}

	return &Track{Samples: samples, SampleRate: decoder.SampleRate()}, nil
}

// floatToInt16 converts a normalized sample to 16-bit PCM with clipping.
func floatToInt16(s float64) int16 {
	v := math.Round(s * 32767.0)
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(v)
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
