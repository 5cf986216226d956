package pool

import "math/rand"

// ring is a fixed-capacity circular store. When full, a put overwrites
// the oldest sample; draws pick a random live slot. Not safe for
// concurrent use, the owning shard serializes access.
type ring struct {
	slots []*Sample
	next  int
	n     int
}

func newRing(capacity int) *ring {
	if capacity <= 0 {
		capacity = 256
	}
	return &ring{slots: make([]*Sample, capacity)}
}

// put stores a sample and reports whether an older one was overwritten.
func (r *ring) put(s *Sample) bool {
	dropped := r.slots[r.next] != nil
	r.slots[r.next] = s
	r.next = (r.next + 1) % len(r.slots)
	if !dropped {
		r.n++
	}
	return dropped
}

// pick returns a random non-stale sample, or nil when none is live.
// Stale samples found along the way are discarded.
func (r *ring) pick(rng *rand.Rand) *Sample {
	if r.n == 0 {
		return nil
	}
	start := rng.Intn(len(r.slots))
	for i := 0; i < len(r.slots); i++ {
		idx := (start + i) % len(r.slots)
		s := r.slots[idx]
		if s == nil {
			continue
		}
		if s.Stale() {
			r.slots[idx] = nil
			r.n--
			continue
		}
		s.touch()
		return s
	}
	return nil
}

// sweep discards stale samples and returns how many were removed.
func (r *ring) sweep() int {
	removed := 0
	for i, s := range r.slots {
		if s != nil && s.Stale() {
			r.slots[i] = nil
			r.n--
			removed++
		}
	}
	return removed
}

func (r *ring) len() int { return r.n }
