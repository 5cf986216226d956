// Package pool keeps identifiers harvested from API responses so that
// later requests can reference rows that actually exist. Samples are
// grouped by kind, expire after a TTL, and are drawn at random to keep
// the generated traffic spread over the dataset.
package pool

import (
	"sync/atomic"
	"time"
)

// Kind classifies a harvested value.
type Kind string

const (
	KindOrganizationID Kind = "organization.id"
	KindKkmID          Kind = "kkm.id"
	KindRiskID         Kind = "risk.id"
	KindOrderID        Kind = "order.id"
	KindExecutionID    Kind = "execution.id"
	KindUgdID          Kind = "ugd.id"
	KindIinBin         Kind = "iin_bin"
)

// Sample is one harvested value together with where it came from and
// when it stops being trustworthy.
type Sample struct {
	Value  any
	Kind   Kind
	Origin string

	Seen     time.Time
	Deadline time.Time

	hits atomic.Int64
}

// NewSample wraps a value. A zero ttl means the sample never goes
// stale.
func NewSample(value any, kind Kind, ttl time.Duration) *Sample {
	s := &Sample{
		Value: value,
		Kind:  kind,
		Seen:  time.Now(),
	}
	if ttl > 0 {
		s.Deadline = s.Seen.Add(ttl)
	}
	return s
}

// FromEndpoint records the endpoint that produced the value.
func (s *Sample) FromEndpoint(origin string) *Sample {
	s.Origin = origin
	return s
}

// Stale reports whether the sample has passed its deadline.
func (s *Sample) Stale() bool {
	return !s.Deadline.IsZero() && time.Now().After(s.Deadline)
}

// Hits returns how many times the sample has been drawn.
func (s *Sample) Hits() int64 { return s.hits.Load() }

func (s *Sample) touch() { s.hits.Add(1) }

// Int returns the value as an int when it holds an integer, either
// native or as the float64 that encoding/json produces.
func (s *Sample) Int() (int, bool) {
	switch v := s.Value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// String returns the value as a string when it holds one.
func (s *Sample) String() (string, bool) {
	v, ok := s.Value.(string)
	return v, ok
}
