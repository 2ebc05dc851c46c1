package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/linuxmatters/jiveloop/internal/config"
)

func TestAnalyzeFullPass(t *testing.T) {
	samples := makeBurstTrack(9)

	set, err := Analyze(Request{
		Samples:    samples,
		SampleRate: testRate,
		Threshold:  config.DefaultThreshold,
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(set.Beats) == 0 {
		t.Fatal("no beats extracted")
	}
	if set.EdgeCount() == 0 {
		t.Error("expected edges between identical same-phase beats")
	}

	t.Logf("Analysis complete: %d beats, %d edges", len(set.Beats), set.EdgeCount())
}

func TestAnalyzeInvalidSampleRate(t *testing.T) {
	if _, err := Analyze(Request{Samples: make([]int16, 100)}); err == nil {
		t.Error("expected error for zero sample rate, got nil")
	}
}

func TestAnalyzeReportsProgressInOrder(t *testing.T) {
	var stages []Stage
	_, err := Analyze(Request{
		Samples:    makeBurstTrack(3),
		SampleRate: testRate,
		Threshold:  config.DefaultThreshold,
		Progress: func(u Update) {
			stages = append(stages, u.Stage)
		},
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	want := []Stage{StageSegmented, StageFeatures, StageGraph}
	if len(stages) != len(want) {
		t.Fatalf("got %d updates, want %d", len(stages), len(want))
	}
	for i, s := range want {
		if stages[i] != s {
			t.Errorf("update %d = %v, want %v", i, stages[i], s)
		}
	}
}

func TestPoolAnalyze(t *testing.T) {
	pool := NewPool(2, 4)
	defer pool.Stop()

	res := <-pool.Analyze(context.Background(), Request{
		Samples:    makeBurstTrack(9),
		SampleRate: testRate,
		Threshold:  config.DefaultThreshold,
	})
	if res.Err != nil {
		t.Fatalf("pool analyze failed: %v", res.Err)
	}
	if res.Set == nil || len(res.Set.Beats) == 0 {
		t.Fatal("pool analyze returned no beats")
	}
}

func TestPoolRebuild(t *testing.T) {
	pool := NewPool(1, 1)
	defer pool.Stop()

	base, err := Analyze(Request{
		Samples:    makeBurstTrack(9),
		SampleRate: testRate,
		Threshold:  config.DefaultThreshold,
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	res := <-pool.Rebuild(context.Background(), base, config.MaxThreshold)
	if res.Err != nil {
		t.Fatalf("pool rebuild failed: %v", res.Err)
	}
	if res.Set == base {
		t.Error("rebuild returned the same snapshot instead of a new one")
	}
	if res.Set.EdgeCount() < base.EdgeCount() {
		t.Errorf("raising threshold lost edges: %d -> %d",
			base.EdgeCount(), res.Set.EdgeCount())
	}
}

func TestPoolCancelledContextResolves(t *testing.T) {
	pool := NewPool(1, 1)
	defer pool.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	select {
	case <-pool.Analyze(ctx, Request{Samples: makeBurstTrack(3), SampleRate: testRate}):
		// Either a completed result or ctx.Err(); the contract is that
		// the channel always resolves.
	case <-time.After(5 * time.Second):
		t.Fatal("result channel never resolved after cancellation")
	}
}
