package pool

import (
	"errors"
	"hash/fnv"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by operations on a closed pool.
var ErrClosed = errors.New("pool: closed")

// Config sizes the pool.
type Config struct {
	// TTL is how long a sample stays usable; zero disables expiry.
	TTL time.Duration

	// PerKind caps the number of samples kept per kind.
	PerKind int

	// Shards is rounded up to a power of two.
	Shards int

	// SweepEvery is the interval of the background stale sweep; zero
	// disables it.
	SweepEvery time.Duration
}

// DefaultConfig keeps a few minutes of recent identifiers per kind.
func DefaultConfig() Config {
	return Config{
		TTL:        5 * time.Minute,
		PerKind:    1000,
		Shards:     16,
		SweepEvery: time.Minute,
	}
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Samples int64
	ByKind  map[Kind]int64
	Hits    int64
	Misses  int64
	Puts    int64
	Drops   int64
	Stale   int64
	Uptime  time.Duration
}

// HitRate returns the fraction of draws that found a sample, 0..1.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type shard struct {
	mu    sync.Mutex
	rings map[Kind]*ring
	rng   *rand.Rand

	hits   atomic.Int64
	misses atomic.Int64
	puts   atomic.Int64
}

// Pool is a sharded, thread-safe sample store. Kinds hash onto shards
// so concurrent workers rarely contend on the same lock.
type Pool struct {
	shards []*shard
	mask   uint64
	cfg    Config
	start  time.Time

	drops atomic.Int64
	stale atomic.Int64

	sweepStop chan struct{}
	closed    atomic.Bool
}

// New creates a pool and, when configured, starts its background sweep.
func New(cfg Config) *Pool {
	count := nextPow2(cfg.Shards)
	shards := make([]*shard, count)
	for i := range shards {
		shards[i] = &shard{
			rings: make(map[Kind]*ring),
			rng:   rand.New(rand.NewSource(time.Now().UnixNano() + int64(i))),
		}
	}

	p := &Pool{
		shards:    shards,
		mask:      uint64(count - 1),
		cfg:       cfg,
		start:     time.Now(),
		sweepStop: make(chan struct{}),
	}
	if cfg.SweepEvery > 0 {
		go p.sweepLoop(cfg.SweepEvery)
	}
	return p
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}

func (p *Pool) shardFor(kind Kind) *shard {
	h := fnv.New64a()
	h.Write([]byte(kind))
	return p.shards[h.Sum64()&p.mask]
}

// Put stores a sample under its kind, applying the pool TTL when the
// sample carries none.
func (p *Pool) Put(s *Sample) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if s.Deadline.IsZero() && p.cfg.TTL > 0 {
		s.Deadline = time.Now().Add(p.cfg.TTL)
	}

	sh := p.shardFor(s.Kind)
	sh.mu.Lock()
	r, ok := sh.rings[s.Kind]
	if !ok {
		r = newRing(p.cfg.PerKind)
		sh.rings[s.Kind] = r
	}
	dropped := r.put(s)
	sh.mu.Unlock()

	sh.puts.Add(1)
	if dropped {
		p.drops.Add(1)
	}
	return nil
}

// Pick draws a random live sample of the given kind, or nil when none
// is available.
func (p *Pool) Pick(kind Kind) *Sample {
	if p.closed.Load() {
		return nil
	}

	sh := p.shardFor(kind)
	sh.mu.Lock()
	var s *Sample
	if r, ok := sh.rings[kind]; ok {
		s = r.pick(sh.rng)
	}
	sh.mu.Unlock()

	if s == nil {
		sh.misses.Add(1)
		return nil
	}
	sh.hits.Add(1)
	return s
}

// Len returns the number of samples stored under the kind, stale ones
// included until the next sweep.
func (p *Pool) Len(kind Kind) int {
	sh := p.shardFor(kind)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if r, ok := sh.rings[kind]; ok {
		return r.len()
	}
	return 0
}

// Kinds returns every kind that currently holds samples.
func (p *Pool) Kinds() []Kind {
	var kinds []Kind
	for _, sh := range p.shards {
		sh.mu.Lock()
		for k, r := range sh.rings {
			if r.len() > 0 {
				kinds = append(kinds, k)
			}
		}
		sh.mu.Unlock()
	}
	return kinds
}

// Sweep discards stale samples across all shards and returns how many
// were removed.
func (p *Pool) Sweep() int {
	total := 0
	for _, sh := range p.shards {
		sh.mu.Lock()
		for _, r := range sh.rings {
			total += r.sweep()
		}
		sh.mu.Unlock()
	}
	p.stale.Add(int64(total))
	return total
}

func (p *Pool) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.Sweep()
		case <-p.sweepStop:
			return
		}
	}
}

// Stats snapshots the pool counters.
func (p *Pool) Stats() Stats {
	stats := Stats{
		ByKind: make(map[Kind]int64),
		Drops:  p.drops.Load(),
		Stale:  p.stale.Load(),
		Uptime: time.Since(p.start),
	}
	for _, sh := range p.shards {
		stats.Hits += sh.hits.Load()
		stats.Misses += sh.misses.Load()
		stats.Puts += sh.puts.Load()
		sh.mu.Lock()
		for k, r := range sh.rings {
			n := int64(r.len())
			stats.Samples += n
			stats.ByKind[k] += n
		}
		sh.mu.Unlock()
	}
	return stats
}

// Close stops the background sweep. Subsequent puts fail and picks
// return nil.
func (p *Pool) Close() error {
	if p.closed.Swap(true) {
		return ErrClosed
	}
	close(p.sweepStop)
	return nil
}
