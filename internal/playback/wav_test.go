package playback

import (
	"encoding/binary"
	"testing"

	"github.com/linuxmatters/jiveloop/internal/config"
)

func TestHeaderLayout(t *testing.T) {
	const sampleRate = 22050
	h := Header(sampleRate)

	if len(h) != config.WAVHeaderSize {
		t.Fatalf("header length = %d, want %d", len(h), config.WAVHeaderSize)
	}

	if string(h[0:4]) != "RIFF" || string(h[8:12]) != "WAVE" {
		t.Errorf("bad RIFF/WAVE markers: %q %q", h[0:4], h[8:12])
	}
	if string(h[12:16]) != "fmt " || string(h[36:40]) != "data" {
		t.Errorf("bad chunk markers: %q %q", h[12:16], h[36:40])
	}

	// Unbounded stream: both size fields carry the sentinel maximum.
	if got := binary.LittleEndian.Uint32(h[4:8]); got != 0xFFFFFFFF {
		t.Errorf("RIFF size = 0x%08X, want sentinel 0xFFFFFFFF", got)
	}
	if got := binary.LittleEndian.Uint32(h[40:44]); got != 0xFFFFFFFF {
		t.Errorf("data size = 0x%08X, want sentinel 0xFFFFFFFF", got)
	}

	if got := binary.LittleEndian.Uint16(h[20:22]); got != 1 {
		t.Errorf("format tag = %d, want 1 (PCM)", got)
	}
	if got := binary.LittleEndian.Uint16(h[22:24]); got != 1 {
		t.Errorf("channels = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(h[24:28]); got != sampleRate {
		t.Errorf("sample rate = %d, want %d", got, sampleRate)
	}
	if got := binary.LittleEndian.Uint32(h[28:32]); got != sampleRate*2 {
		t.Errorf("byte rate = %d, want %d", got, sampleRate*2)
	}
	if got := binary.LittleEndian.Uint16(h[32:34]); got != 2 {
		t.Errorf("block align = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint16(h[34:36]); got != 16 {
		t.Errorf("bit depth = %d, want 16", got)
	}
}
