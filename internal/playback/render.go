package playback

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/linuxmatters/jiveloop/internal/config"
)

// SampleRate returns the engine's output sample rate.
func (e *Engine) SampleRate() int {
	return e.sampleRate
}

// Render writes a finite excerpt of the engine's endless walk to a real WAV
// file. Unlike the streaming header, the file carries true chunk sizes, so
// encoding goes through a proper WAV encoder. progress may be nil; it
// receives sample counts.
func Render(path string, e *Engine, minutes float64, progress func(done, total int64)) error {
	target := int64(minutes * 60 * float64(e.sampleRate))
	if target <= 0 {
		return fmt.Errorf("invalid render duration: %.2f minutes", minutes)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, e.sampleRate, 16, 1, 1)

	// Discard the streaming header; the encoder writes its own.
	if _, err := io.ReadFull(e, make([]byte, config.WAVHeaderSize)); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return enc.Close()
		}
		return fmt.Errorf("failed to read stream header: %w", err)
	}

	buf := make([]byte, config.StreamChunkSize)
	format := &goaudio.Format{NumChannels: 1, SampleRate: e.sampleRate}

	var done int64
	for done < target {
		remaining := (target - done) * 2
		chunk := buf
		if remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}

		n, err := e.Read(chunk)
		if n > 0 {
			data := make([]int, n/2)
			for i := range data {
				data[i] = int(int16(chunk[2*i]) | int16(chunk[2*i+1])<<8)
			}
			if werr := enc.Write(&goaudio.IntBuffer{
				Data:           data,
				Format:         format,
				SourceBitDepth: 16,
			}); werr != nil {
				return fmt.Errorf("failed to write WAV data: %w", werr)
			}
			done += int64(n / 2)
			if progress != nil {
				progress(done, target)
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read stream: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV: %w", err)
	}
	return nil
}
