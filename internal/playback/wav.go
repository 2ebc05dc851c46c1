package playback

import (
	"encoding/binary"

	"github.com/linuxmatters/jiveloop/internal/config"
)

// Header returns the canonical 44-byte WAV header for an endless mono
// 16-bit PCM stream. True length is unbounded, so the RIFF and data chunk
// sizes carry the maximum representable sentinel value; consumers treat the
// stream as unknown-length.
func Header(sampleRate int) []byte {
	h := make([]byte, config.WAVHeaderSize)

	const (
		bitsPerSample = 16
		numChannels   = 1
	)
	blockAlign := numChannels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], 0xFFFFFFFF)
	copy(h[8:12], "WAVE")

	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // PCM format tag
	binary.LittleEndian.PutUint16(h[22:24], numChannels)
	binary.LittleEndian.PutUint32(h[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(h[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(h[34:36], bitsPerSample)

	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], 0xFFFFFFFF)

	return h
}
