// Package analysis turns a PCM track into beats, fingerprints and a
// similarity graph. The worker pool here keeps that CPU-bound batch work off
// the goroutines serving playback: callers hand over owned input and receive
// an owned FeatureSet back over a channel.
package analysis

import (
	"context"
	"fmt"
	"sync"

	"github.com/linuxmatters/jiveloop/internal/config"
)

// Stage identifies a phase of the analysis pass.
type Stage int

const (
	StageSegmented Stage = iota
	StageFeatures
	StageGraph
)

func (s Stage) String() string {
	switch s {
	case StageSegmented:
		return "segmenting"
	case StageFeatures:
		return "extracting features"
	case StageGraph:
		return "building graph"
	default:
		return "unknown"
	}
}

// Update reports completion of one analysis stage.
type Update struct {
	Stage    Stage
	Onsets   int
	Beats    int
	Edges    int
	Envelope []float64 // energy envelope, set on StageSegmented
}

// ProgressFunc receives stage updates. May be nil.
type ProgressFunc func(Update)

// Request carries owned input for one full analysis pass.
type Request struct {
	Samples    []int16
	SampleRate int
	Threshold  float64
	Progress   ProgressFunc
}

// Result is the outcome of an offloaded job.
type Result struct {
	Set *FeatureSet
	Err error
}

// Analyze runs the full pass synchronously: segmentation, feature
// extraction, graph construction.
func Analyze(req Request) (*FeatureSet, error) {
	if req.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", req.SampleRate)
	}

	envelope := Envelope(req.Samples, req.SampleRate)
	onsets := DetectOnsets(req.Samples, req.SampleRate)
	report(req.Progress, Update{Stage: StageSegmented, Onsets: len(onsets), Envelope: envelope})

	set := ExtractFeatures(req.Samples, req.SampleRate, onsets)
	report(req.Progress, Update{Stage: StageFeatures, Onsets: len(onsets), Beats: len(set.Beats)})

	graph := set.WithGraph(config.ClampThreshold(req.Threshold))
	report(req.Progress, Update{
		Stage:  StageGraph,
		Onsets: len(onsets),
		Beats:  len(graph.Beats),
		Edges:  graph.EdgeCount(),
	})

	return graph, nil
}

func report(fn ProgressFunc, u Update) {
	if fn != nil {
		fn(u)
	}
}

type job struct {
	run func() Result
	out chan Result
}

// Pool runs analysis jobs on background workers.
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

// NewPool creates a worker pool with the given worker count and queue size.
func NewPool(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	p := &Pool{jobs: make(chan job, queueSize)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				j.out <- j.run()
			}
		}()
	}
	return p
}

// Stop waits for workers to finish after closing the queue.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}

// Analyze queues a full analysis pass. The returned channel delivers exactly
// one Result; a cancelled context resolves it early with ctx.Err().
func (p *Pool) Analyze(ctx context.Context, req Request) <-chan Result {
	return p.enqueue(ctx, func() Result {
		set, err := Analyze(req)
		return Result{Set: set, Err: err}
	})
}

// Rebuild queues a graph regeneration against an existing snapshot at a new
// threshold. The snapshot is never mutated.
func (p *Pool) Rebuild(ctx context.Context, set *FeatureSet, threshold float64) <-chan Result {
	return p.enqueue(ctx, func() Result {
		return Result{Set: set.WithGraph(config.ClampThreshold(threshold))}
	})
}

func (p *Pool) enqueue(ctx context.Context, run func() Result) <-chan Result {
	out := make(chan Result, 1)
	j := job{run: run, out: make(chan Result, 1)}

	go func() {
		select {
		case p.jobs <- j:
		case <-ctx.Done():
			out <- Result{Err: ctx.Err()}
			return
		}
		select {
		case res := <-j.out:
			out <- res
		case <-ctx.Done():
			out <- Result{Err: ctx.Err()}
		}
	}()

	return out
}
