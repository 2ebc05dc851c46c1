// Package stream serves endless playback walks over HTTP. Every listener
// gets an independent engine over the same track and analysis snapshot, so
// two listeners hear two different walks.
package stream

import (
	"context"
	"fmt"
	"sync"

	"github.com/linuxmatters/jiveloop/internal/analysis"
	"github.com/linuxmatters/jiveloop/internal/audio"
	"github.com/linuxmatters/jiveloop/internal/config"
	"github.com/linuxmatters/jiveloop/internal/playback"
)

// Station owns the shared track, the current analysis snapshot, and the set
// of live playback engines. Parameter changes fan out to every engine;
// threshold changes regenerate the graph off the request path first.
type Station struct {
	track *audio.Track
	pool  *analysis.Pool

	mu         sync.RWMutex
	set        *analysis.FeatureSet
	threshold  float64
	branchProb float64
	seed       int64
	engines    map[*playback.Engine]struct{}
}

// Status is a point-in-time summary of the station.
type Status struct {
	Beats           int     `json:"beats"`
	Edges           int     `json:"edges"`
	Listeners       int     `json:"listeners"`
	Threshold       float64 `json:"threshold"`
	BranchProb      float64 `json:"branch_probability"`
	SampleRate      int     `json:"sample_rate"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// NewStation creates a station over an analyzed track. seed 0 gives every
// listener a time-based walk; a nonzero seed makes listener walks
// reproducible (listener n gets seed+n).
func NewStation(track *audio.Track, set *analysis.FeatureSet, pool *analysis.Pool, threshold float64, seed int64) *Station {
	return &Station{
		track:      track,
		pool:       pool,
		set:        set,
		threshold:  config.ClampThreshold(threshold),
		branchProb: config.DefaultBranchProb,
		seed:       seed,
		engines:    make(map[*playback.Engine]struct{}),
	}
}

// Subscribe creates a playback engine seeded with the current snapshot and
// branch probability and registers it for live updates.
func (s *Station) Subscribe() *playback.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()

	seed := s.seed
	if seed != 0 {
		s.seed++
	}
	e := playback.NewEngine(s.track, s.set, seed)
	e.SetBranchProbability(s.branchProb)
	s.engines[e] = struct{}{}
	return e
}

// Unsubscribe removes an engine from the live-update set.
func (s *Station) Unsubscribe(e *playback.Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.engines, e)
}

// ListenerCount returns the number of active engines.
func (s *Station) ListenerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.engines)
}

// SetBranchProbability updates the jump likelihood on the station and every
// live engine. Takes effect at each engine's next transition decision.
func (s *Station) SetBranchProbability(p float64) {
	p = config.ClampProbability(p)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branchProb = p
	for e := range s.engines {
		e.SetBranchProbability(p)
	}
}

// Retune regenerates the similarity graph at a new threshold and publishes
// the fresh snapshot to every live engine. Beats mid-play are unaffected;
// each walk picks up the new edges at its next boundary.
func (s *Station) Retune(ctx context.Context, threshold float64) error {
	threshold = config.ClampThreshold(threshold)

	s.mu.RLock()
	current := s.set
	s.mu.RUnlock()

	results := s.pool.Rebuild(ctx, current, threshold)
	var res analysis.Result
	select {
	case res = <-results:
	case <-ctx.Done():
		return ctx.Err()
	}
	if res.Err != nil {
		return fmt.Errorf("failed to rebuild graph: %w", res.Err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = res.Set
	s.threshold = threshold
	for e := range s.engines {
		e.SetGraph(res.Set)
	}
	return nil
}

// Snapshot returns the station's current status.
func (s *Station) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Beats:           len(s.set.Beats),
		Edges:           s.set.EdgeCount(),
		Listeners:       len(s.engines),
		Threshold:       s.threshold,
		BranchProb:      s.branchProb,
		SampleRate:      s.track.SampleRate,
		DurationSeconds: s.track.Duration(),
	}
}
