package observability

import (
	"sync/atomic"
	"time"
)

// SweepStats keeps in-process counters for the worker's /statz endpoint.
type SweepStats struct {
	runs    atomic.Uint64
	failed  atomic.Uint64
	cleared atomic.Uint64

	// duration stats (nanoseconds)
	durationTotal atomic.Int64
	durationMax   atomic.Int64
	lastRunUnix   atomic.Int64
}

func NewSweepStats() *SweepStats {
	return &SweepStats{}
}

func (s *SweepStats) Observe(cleared int64, d time.Duration, err error, at time.Time) {
	s.runs.Add(1)
	s.lastRunUnix.Store(at.Unix())

	if err != nil {
		s.failed.Add(1)
	} else if cleared > 0 {
		s.cleared.Add(uint64(cleared))
	}

	ns := d.Nanoseconds()
	s.durationTotal.Add(ns)

	for {
		curr := s.durationMax.Load()
		if ns <= curr {
			return
		}
		if s.durationMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type SweepStatsSnapshot struct {
	Runs            uint64        `json:"runs"`
	Failed          uint64        `json:"failed"`
	Cleared         uint64        `json:"cleared"`
	AverageDuration time.Duration `json:"averageDurationNs"`
	MaxDuration     time.Duration `json:"maxDurationNs"`
	LastRun         *time.Time    `json:"lastRun,omitempty"`
}

func (s *SweepStats) Snapshot() SweepStatsSnapshot {
	runs := s.runs.Load()

	var avg time.Duration
	if runs > 0 {
		avg = time.Duration(s.durationTotal.Load() / int64(runs))
	}

	snap := SweepStatsSnapshot{
		Runs:            runs,
		Failed:          s.failed.Load(),
		Cleared:         s.cleared.Load(),
		AverageDuration: avg,
		MaxDuration:     time.Duration(s.durationMax.Load()),
	}

	if last := s.lastRunUnix.Load(); last > 0 {
		t := time.Unix(last, 0).UTC()
		snap.LastRun = &t
	}
	return snap
}
