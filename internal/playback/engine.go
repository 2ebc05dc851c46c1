// Package playback produces an unbounded audio stream from a finite track by
// walking its beat similarity graph. The engine is a synchronous pull-based
// producer: each Read computes exactly the bytes requested, with no internal
// buffering beyond a one-sample carry, and never blocks.
package playback

import (
	"io"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/linuxmatters/jiveloop/internal/analysis"
	"github.com/linuxmatters/jiveloop/internal/audio"
	"github.com/linuxmatters/jiveloop/internal/config"
)

// Engine streams an endless random walk over a track's beats as canonical
// 16-bit little-endian mono WAV. It implements io.Reader; the first 44 bytes
// are the sentinel-length header, everything after is PCM body.
//
// The graph snapshot and branch probability may be swapped concurrently with
// reads; a transition decision always sees one consistent snapshot. Read
// itself is single-consumer.
type Engine struct {
	pcm        []int16
	sampleRate int

	set        atomic.Pointer[analysis.FeatureSet]
	branchProb atomic.Uint64 // math.Float64bits

	rng *rand.Rand

	header    []byte
	headerPos int
	carry     []byte // partial sample left over from an odd-length read

	pos    int // position of the current beat in the retained sequence
	cursor int // absolute sample cursor
	segEnd int // current beat's end boundary in samples
}

// NewEngine creates a playback engine over the track's PCM and an analysis
// snapshot. Seed 0 selects a time-based seed; any other value makes the walk
// deterministic.
func NewEngine(track *audio.Track, set *analysis.FeatureSet, seed int64) *Engine {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine{
		pcm:        track.Samples,
		sampleRate: track.SampleRate,
		rng:        rand.New(rand.NewSource(seed)),
		header:     Header(track.SampleRate),
	}
	e.set.Store(set)
	e.SetBranchProbability(config.DefaultBranchProb)

	if len(set.Beats) > 0 {
		e.enter(set, 0)
	}
	return e
}

// SetGraph publishes a new analysis snapshot. The in-flight walk picks it up
// at its next transition decision; the current beat's remaining samples play
// out untouched.
func (e *Engine) SetGraph(set *analysis.FeatureSet) {
	e.set.Store(set)
}

// SetBranchProbability updates the jump likelihood. Takes effect at the next
// transition decision.
func (e *Engine) SetBranchProbability(p float64) {
	e.branchProb.Store(math.Float64bits(config.ClampProbability(p)))
}

// BranchProbability returns the current jump likelihood.
func (e *Engine) BranchProbability() float64 {
	return math.Float64frombits(e.branchProb.Load())
}

// Read fills p with the next chunk of the stream. For a non-empty beat
// sequence it always returns len(p) bytes; with zero beats it returns the
// header followed by io.EOF.
func (e *Engine) Read(p []byte) (int, error) {
	n := 0

	// Header region first. A consumer starting mid-header gets the
	// remaining header bytes only; the body never resumes from an offset.
	if e.headerPos < len(e.header) {
		n += copy(p, e.header[e.headerPos:])
		e.headerPos += n
	}

	// Flush the carried partial sample from a previous odd-length read.
	if len(e.carry) > 0 && n < len(p) {
		c := copy(p[n:], e.carry)
		e.carry = e.carry[c:]
		n += c
	}

	for n < len(p) {
		set := e.set.Load()
		if len(set.Beats) == 0 {
			if n > 0 {
				return n, io.EOF
			}
			return 0, io.EOF
		}

		if e.cursor >= e.segEnd {
			e.transition(set)
		}

		avail := e.segEnd - e.cursor
		if avail <= 0 {
			// Degenerate beat (rounds to zero samples); the transition
			// above advances past it next iteration.
			continue
		}

		want := (len(p) - n) / 2
		if want == 0 {
			// One byte of space left: emit a sample split across reads.
			buf := make([]byte, 2)
			s := e.pcm[e.cursor]
			buf[0] = byte(s)
			buf[1] = byte(uint16(s) >> 8)
			e.cursor++
			p[n] = buf[0]
			e.carry = buf[1:]
			n++
			break
		}
		if want > avail {
			want = avail
		}

		for i := 0; i < want; i++ {
			s := uint16(e.pcm[e.cursor+i])
			p[n+2*i] = byte(s)
			p[n+2*i+1] = byte(s >> 8)
		}
		e.cursor += want
		n += 2 * want
	}

	return n, nil
}

// transition applies the branching policy at a beat boundary: with the
// current branch probability, jump to a uniformly chosen neighbor; otherwise
// advance sequentially, wrapping from the last beat to the first.
func (e *Engine) transition(set *analysis.FeatureSet) {
	if e.pos >= len(set.Beats) {
		e.enter(set, 0)
		return
	}

	beat := &set.Beats[e.pos]
	if len(beat.Neighbors) > 0 && e.rng.Float64() < e.BranchProbability() {
		pick := beat.Neighbors[e.rng.Intn(len(beat.Neighbors))]
		e.enter(set, pick.Dest)
		return
	}

	next := e.pos + 1
	if next >= len(set.Beats) {
		next = 0
	}
	e.enter(set, next)
}

// enter positions the cursor at the start of the given beat.
func (e *Engine) enter(set *analysis.FeatureSet, pos int) {
	b := &set.Beats[pos]
	e.pos = pos
	e.cursor = e.sampleIndex(b.Start)
	e.segEnd = e.sampleIndex(b.Start + b.Duration)
}

func (e *Engine) sampleIndex(seconds float64) int {
	i := int(math.Round(seconds * float64(e.sampleRate)))
	if i < 0 {
		i = 0
	}
	if i > len(e.pcm) {
		i = len(e.pcm)
	}
	return i
}
