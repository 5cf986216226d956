package scenario

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunnerCountsOutcomes(t *testing.T) {
	var ok, failed atomic.Int64
	steps := []Step{
		{Name: "ok", Weight: 1, Do: func(ctx context.Context) error {
			ok.Add(1)
			return nil
		}},
		{Name: "fail", Weight: 1, Do: func(ctx context.Context) error {
			failed.Add(1)
			return errors.New("boom")
		}},
		{Name: "skip", Weight: 1, Do: func(ctx context.Context) error {
			return ErrSkip
		}},
	}

	r := NewRunner(steps, 2, time.Millisecond)
	report := r.Run(context.Background(), 100*time.Millisecond)

	if report.Requests == 0 {
		t.Fatal("no requests recorded")
	}
	byName := map[string]StepReport{}
	for _, s := range report.Steps {
		byName[s.Name] = s
	}
	if byName["ok"].Errors != 0 {
		t.Fatalf("ok step recorded %d errors", byName["ok"].Errors)
	}
	if byName["fail"].Errors != byName["fail"].Requests {
		t.Fatal("every fail-step request should be an error")
	}
	if byName["skip"].Requests != 0 || byName["skip"].Skipped == 0 {
		t.Fatalf("skip step: %+v", byName["skip"])
	}
	if report.Errors != byName["fail"].Errors {
		t.Fatal("report error total does not match step errors")
	}
}

func TestRunnerWeights(t *testing.T) {
	var heavy, light atomic.Int64
	steps := []Step{
		{Name: "heavy", Weight: 9, Do: func(ctx context.Context) error {
			heavy.Add(1)
			return nil
		}},
		{Name: "light", Weight: 1, Do: func(ctx context.Context) error {
			light.Add(1)
			return nil
		}},
	}

	r := NewRunner(steps, 1, 0)
	r.Run(context.Background(), 50*time.Millisecond)

	if heavy.Load() <= light.Load() {
		t.Fatalf("heavy=%d light=%d, expected the weighted step to dominate", heavy.Load(), light.Load())
	}
}

func TestRunnerHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	steps := []Step{{Name: "noop", Weight: 1, Do: func(ctx context.Context) error { return nil }}}
	done := make(chan Report, 1)
	go func() {
		done <- NewRunner(steps, 4, 0).Run(ctx, time.Minute)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop on canceled context")
	}
}

func TestRunnerLatencyPercentiles(t *testing.T) {
	stats := &stepStats{}
	for i := 1; i <= 100; i++ {
		stats.record(time.Duration(i)*time.Millisecond, nil)
	}

	r := stats.report("fixed")
	if r.P50 < 40*time.Millisecond || r.P50 > 60*time.Millisecond {
		t.Fatalf("p50 = %v", r.P50)
	}
	if r.P95 < 90*time.Millisecond {
		t.Fatalf("p95 = %v", r.P95)
	}
	if r.Max != 100*time.Millisecond {
		t.Fatalf("max = %v", r.Max)
	}
}
