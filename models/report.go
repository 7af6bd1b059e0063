package models

import (
	"sync"
	"time"
)

// ScanReport tallies classification outcomes across one full scan cycle.
// Counters merge under a mutex so per-candidate evaluation may be
// parallelised later without changing the report contract.
type ScanReport struct {
	mu sync.Mutex

	CycleID    string
	StartedAt  time.Time
	FinishedAt time.Time
	Counts     map[string]int
}

func NewScanReport(cycleID string, startedAt time.Time) *ScanReport {
	return &ScanReport{
		CycleID:   cycleID,
		StartedAt: startedAt,
		Counts:    make(map[string]int),
	}
}

// Add records one classification outcome.
func (r *ScanReport) Add(c Classification) {
	r.mu.Lock()
	r.Counts[c.String()]++
	r.mu.Unlock()
}

// Count returns the tally for one classification.
func (r *ScanReport) Count(c Classification) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Counts[c.String()]
}

// Total returns the number of candidates evaluated this cycle.
func (r *ScanReport) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}

// Snapshot returns a copy of the counters safe to serialise.
func (r *ScanReport) Snapshot() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.Counts))
	for k, v := range r.Counts {
		out[k] = v
	}
	return out
}
