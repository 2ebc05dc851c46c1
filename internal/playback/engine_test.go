package playback

import (
	"bytes"
	"io"
	"testing"

	"github.com/linuxmatters/jiveloop/internal/analysis"
	"github.com/linuxmatters/jiveloop/internal/audio"
	"github.com/linuxmatters/jiveloop/internal/config"
)

const engineTestRate = 22050

// makeTrack builds a deterministic ramp so every byte of output identifies
// its source sample.
func makeTrack(numSamples int) *audio.Track {
	samples := make([]int16, numSamples)
	for i := range samples {
		samples[i] = int16((i*7 + 13) % 32768)
	}
	return &audio.Track{Samples: samples, SampleRate: engineTestRate}
}

// makeSet builds a FeatureSet from onset boundaries plus an optional
// neighbor table keyed by beat position.
func makeSet(onsets []int, numSamples int, neighbors map[int][]int) *analysis.FeatureSet {
	set := &analysis.FeatureSet{SampleRate: engineTestRate, NumSamples: numSamples}
	for i := 0; i+1 < len(onsets); i++ {
		set.Beats = append(set.Beats, analysis.Beat{
			Index:      i,
			Start:      float64(onsets[i]) / engineTestRate,
			Duration:   float64(onsets[i+1]-onsets[i]) / engineTestRate,
			Confidence: 1.0,
		})
	}
	for pos, dests := range neighbors {
		for _, d := range dests {
			set.Beats[pos].Neighbors = append(set.Beats[pos].Neighbors,
				analysis.Neighbor{Dest: d, Distance: 1})
		}
	}
	return set
}

// threeBeatFixture is the §-scenario shape: 22050 Hz, beats of 0.5s, 0.3s,
// 0.5s partitioning the buffer.
func threeBeatFixture(neighbors map[int][]int) (*audio.Track, *analysis.FeatureSet) {
	onsets := []int{0, 11025, 17640, 28665}
	track := makeTrack(28665)
	return track, makeSet(onsets, len(track.Samples), neighbors)
}

func segmentBytes(track *audio.Track, start, end int) []byte {
	return audio.SamplesToBytes(track.Samples[start:end])
}

func readAll(t *testing.T, e *Engine, n int) []byte {
	t.Helper()
	out := make([]byte, n)
	if _, err := io.ReadFull(e, out); err != nil {
		t.Fatalf("ReadFull(%d) failed: %v", n, err)
	}
	return out
}

func TestEngineSequentialWalkMatchesConcatenation(t *testing.T) {
	track, set := threeBeatFixture(nil)
	e := NewEngine(track, set, 1)
	e.SetBranchProbability(0)

	header := readAll(t, e, config.WAVHeaderSize)
	if !bytes.Equal(header, Header(engineTestRate)) {
		t.Fatal("stream does not start with the canonical header")
	}

	// With branch probability 0 the walk is seg0 seg1 seg2 seg0 ...
	var want bytes.Buffer
	for loop := 0; loop < 2; loop++ {
		want.Write(segmentBytes(track, 0, 11025))
		want.Write(segmentBytes(track, 11025, 17640))
		want.Write(segmentBytes(track, 17640, 28665))
	}

	got := readAll(t, e, want.Len())
	if !bytes.Equal(got, want.Bytes()) {
		t.Error("body bytes differ from looped concatenation of segments")
	}
}

func TestEngineNeverStarvesNonEmptyGraph(t *testing.T) {
	track, set := threeBeatFixture(map[int][]int{0: {2}, 1: {0}, 2: {1}})
	e := NewEngine(track, set, 42)
	e.SetBranchProbability(0.5)

	readAll(t, e, config.WAVHeaderSize)

	buf := make([]byte, 4096)
	for i := 0; i < 10000; i++ {
		n, err := e.Read(buf)
		if err != nil {
			t.Fatalf("pull %d: unexpected error %v", i, err)
		}
		if n != len(buf) {
			t.Fatalf("pull %d: short read %d of %d", i, n, len(buf))
		}
	}
}

func TestEngineAlwaysJumpsAtProbabilityOne(t *testing.T) {
	// Single-neighbor rings make the jump target deterministic whatever
	// the random source does: 0->2, 2->1, 1->0.
	track, set := threeBeatFixture(map[int][]int{0: {2}, 1: {0}, 2: {1}})
	e := NewEngine(track, set, 7)
	e.SetBranchProbability(1)

	readAll(t, e, config.WAVHeaderSize)

	var want bytes.Buffer
	want.Write(segmentBytes(track, 0, 11025))     // beat 0
	want.Write(segmentBytes(track, 17640, 28665)) // jump to beat 2
	want.Write(segmentBytes(track, 11025, 17640)) // jump to beat 1
	want.Write(segmentBytes(track, 0, 11025))     // jump to beat 0

	got := readAll(t, e, want.Len())
	if !bytes.Equal(got, want.Bytes()) {
		t.Error("walk at probability 1 did not follow the neighbor ring")
	}
}

func TestEngineFallsBackToSequentialWithoutNeighbors(t *testing.T) {
	// Beat 1 has no neighbors; at probability 1 it must still advance
	// sequentially to beat 2.
	track, set := threeBeatFixture(map[int][]int{0: {1}, 2: {0}})
	e := NewEngine(track, set, 7)
	e.SetBranchProbability(1)

	readAll(t, e, config.WAVHeaderSize)

	var want bytes.Buffer
	want.Write(segmentBytes(track, 0, 11025))     // beat 0
	want.Write(segmentBytes(track, 11025, 17640)) // jump to beat 1
	want.Write(segmentBytes(track, 17640, 28665)) // no neighbors: sequential to 2
	want.Write(segmentBytes(track, 0, 11025))     // jump to beat 0

	got := readAll(t, e, want.Len())
	if !bytes.Equal(got, want.Bytes()) {
		t.Error("neighborless beat did not fall back to sequential advance")
	}
}

func TestEngineEmptySequenceEmitsHeaderOnly(t *testing.T) {
	track := makeTrack(1000)
	set := &analysis.FeatureSet{SampleRate: engineTestRate, NumSamples: 1000}
	e := NewEngine(track, set, 1)

	out, err := io.ReadAll(e)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !bytes.Equal(out, Header(engineTestRate)) {
		t.Errorf("got %d bytes, want exactly the 44-byte header", len(out))
	}

	// Further pulls keep reporting end of stream.
	if n, err := e.Read(make([]byte, 16)); n != 0 || err != io.EOF {
		t.Errorf("post-EOF Read = (%d, %v), want (0, EOF)", n, err)
	}
}

func TestEngineOddChunkSizesPreserveByteStream(t *testing.T) {
	track, set := threeBeatFixture(nil)

	ref := NewEngine(track, set, 3)
	ref.SetBranchProbability(0)
	want := readAll(t, ref, 9001)

	odd := NewEngine(track, set, 3)
	odd.SetBranchProbability(0)
	var got bytes.Buffer
	buf := make([]byte, 3)
	for got.Len() < len(want) {
		n, err := odd.Read(buf[:min(3, len(want)-got.Len())])
		if err != nil {
			t.Fatalf("odd-size read failed: %v", err)
		}
		got.Write(buf[:n])
	}

	if !bytes.Equal(got.Bytes(), want) {
		t.Error("3-byte reads produced a different stream than bulk reads")
	}
}

func TestEngineBranchProbabilityUpdateTakesEffect(t *testing.T) {
	track, set := threeBeatFixture(map[int][]int{0: {2}, 1: {0}, 2: {1}})
	e := NewEngine(track, set, 5)
	e.SetBranchProbability(0)

	readAll(t, e, config.WAVHeaderSize)
	// Sequential through beat 0.
	got := readAll(t, e, 11025*2)
	if !bytes.Equal(got, segmentBytes(track, 0, 11025)) {
		t.Fatal("unexpected bytes for beat 0")
	}

	// The boundary decision for beat 0 is still pending; flipping to
	// always-jump now means that decision jumps along 0->2.
	e.SetBranchProbability(1)
	got = readAll(t, e, 11025*2)
	if !bytes.Equal(got, segmentBytes(track, 17640, 28665)) {
		t.Error("probability update did not take effect at the next transition")
	}
}

func TestEngineGraphSwapPickedUpAtNextDecision(t *testing.T) {
	track, set := threeBeatFixture(nil)
	e := NewEngine(track, set, 11)
	e.SetBranchProbability(1)

	readAll(t, e, config.WAVHeaderSize)

	// Read half of beat 0, then publish a regenerated snapshot mid-beat.
	readAll(t, e, 5000*2)
	e.SetGraph(makeSet([]int{0, 11025, 17640, 28665}, len(track.Samples),
		map[int][]int{0: {2}, 1: {0}, 2: {1}}))

	// The in-flight beat plays out untouched.
	got := readAll(t, e, 6025*2)
	if !bytes.Equal(got, segmentBytes(track, 5000, 11025)) {
		t.Fatal("in-flight beat was disturbed by graph swap")
	}

	// The pending boundary decision sees the new edges: jump 0->2.
	got = readAll(t, e, 11025*2)
	if !bytes.Equal(got, segmentBytes(track, 17640, 28665)) {
		t.Error("transition decision did not read the swapped graph")
	}
}

func TestEngineSeedDeterminism(t *testing.T) {
	track, set := threeBeatFixture(map[int][]int{0: {1, 2}, 1: {0, 2}, 2: {0, 1}})

	walk := func(seed int64) []byte {
		e := NewEngine(track, set, seed)
		e.SetBranchProbability(0.5)
		return readAll(t, e, 200000)
	}

	if !bytes.Equal(walk(99), walk(99)) {
		t.Error("same seed produced different walks")
	}
	if bytes.Equal(walk(99), walk(100)) {
		t.Error("different seeds produced identical 200kB walks; suspicious")
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
