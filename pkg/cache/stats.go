package cache

import "sync/atomic"

// Stats counts cache lookups.
type Stats struct {
	hits   atomic.Int64
	misses atomic.Int64
	stores atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Hits   int64 `json:"hits"   yaml:"hits"`
	Misses int64 `json:"misses" yaml:"misses"`
	Stores int64 `json:"stores" yaml:"stores"`
}

// HitRate is hits over lookups, or 0 before the first lookup.
func (s StatsSnapshot) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

func (s *Stats) hit()   { s.hits.Add(1) }
func (s *Stats) miss()  { s.misses.Add(1) }
func (s *Stats) store() { s.stores.Add(1) }

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Stores: s.stores.Load(),
	}
}

// Reset zeroes the counters.
func (s *Stats) Reset() {
	s.hits.Store(0)
	s.misses.Store(0)
	s.stores.Store(0)
}
