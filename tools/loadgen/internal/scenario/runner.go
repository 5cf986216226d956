package scenario

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// ErrSkip marks a step iteration that could not run, usually because
// the pool had no sample to feed it. Skips are counted separately from
// failures.
var ErrSkip = errors.New("scenario: skipped")

// Step is one kind of request in the mix. Weight sets how often it is
// drawn relative to the other steps.
type Step struct {
	Name   string
	Weight int
	Do     func(ctx context.Context) error
}

// StepReport aggregates the outcomes of one step.
type StepReport struct {
	Name     string
	Requests int64
	Errors   int64
	Skipped  int64
	P50      time.Duration
	P95      time.Duration
	Max      time.Duration
}

// Report is the outcome of a run.
type Report struct {
	Steps    []StepReport
	Elapsed  time.Duration
	Requests int64
	Errors   int64
}

type stepStats struct {
	mu        sync.Mutex
	requests  int64
	errors    int64
	skipped   int64
	latencies []time.Duration
}

func (s *stepStats) record(d time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case errors.Is(err, ErrSkip):
		s.skipped++
	case err != nil:
		s.requests++
		s.errors++
		s.latencies = append(s.latencies, d)
	default:
		s.requests++
		s.latencies = append(s.latencies, d)
	}
}

func (s *stepStats) report(name string) StepReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := StepReport{
		Name:     name,
		Requests: s.requests,
		Errors:   s.errors,
		Skipped:  s.skipped,
	}
	if len(s.latencies) == 0 {
		return r
	}
	sorted := make([]time.Duration, len(s.latencies))
	copy(sorted, s.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	r.P50 = sorted[len(sorted)/2]
	r.P95 = sorted[len(sorted)*95/100]
	r.Max = sorted[len(sorted)-1]
	return r
}

// Runner fans a weighted step mix over a number of workers for a fixed
// duration.
type Runner struct {
	steps   []Step
	stats   []*stepStats
	total   int
	workers int
	pause   time.Duration
}

// NewRunner builds a runner. pause is the per-worker delay between
// requests; zero means full speed.
func NewRunner(steps []Step, workers int, pause time.Duration) *Runner {
	if workers <= 0 {
		workers = 1
	}
	r := &Runner{
		steps:   steps,
		stats:   make([]*stepStats, len(steps)),
		workers: workers,
		pause:   pause,
	}
	for i := range steps {
		r.stats[i] = &stepStats{}
		if steps[i].Weight <= 0 {
			steps[i].Weight = 1
		}
		r.total += steps[i].Weight
	}
	return r
}

// draw picks a step index by weight.
func (r *Runner) draw(rng *rand.Rand) int {
	n := rng.Intn(r.total)
	for i, step := range r.steps {
		n -= step.Weight
		if n < 0 {
			return i
		}
	}
	return len(r.steps) - 1
}

// Run drives the mix until the duration elapses or ctx is canceled,
// then returns the aggregated report.
func (r *Runner) Run(ctx context.Context, d time.Duration) Report {
	runCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for runCtx.Err() == nil {
				idx := r.draw(rng)
				began := time.Now()
				err := r.steps[idx].Do(runCtx)
				if runCtx.Err() != nil {
					// The deadline fired mid-request; do not count a
					// canceled call as a failure.
					return
				}
				r.stats[idx].record(time.Since(began), err)
				if r.pause > 0 {
					select {
					case <-time.After(r.pause):
					case <-runCtx.Done():
						return
					}
				}
			}
		}(start.UnixNano() + int64(w))
	}
	wg.Wait()

	report := Report{Elapsed: time.Since(start)}
	for i, step := range r.steps {
		sr := r.stats[i].report(step.Name)
		report.Steps = append(report.Steps, sr)
		report.Requests += sr.Requests
		report.Errors += sr.Errors
	}
	return report
}
