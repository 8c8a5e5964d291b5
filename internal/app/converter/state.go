package converter

import (
	"sync/atomic"
	"time"
)

// Phase is the lifecycle position of a run.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseRunning
	// PhaseDraining means cancellation was observed and the current batch is
	// being checkpointed before stopping
	PhaseDraining
	PhaseCompleted
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseDraining:
		return "draining"
	case PhaseCompleted:
		return "completed"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// RunState holds the counters of one run. The runner is the only writer; the
// progress reporter and the emergency handler read it through Snapshot.
type RunState struct {
	total        atomic.Int64
	processed    atomic.Int64
	successful   atomic.Int64
	failed       atomic.Int64
	currentBatch atomic.Int64
	totalBatches atomic.Int64
	phase        atomic.Int32
	startedAt    atomic.Int64
}

// Snapshot is a point-in-time copy of RunState. Fields are read one by one,
// so a snapshot taken mid-update may be off by one file.
type Snapshot struct {
	Total        int
	Processed    int
	Successful   int
	Failed       int
	CurrentBatch int
	TotalBatches int
	Phase        Phase
	StartedAt    time.Time
}

func (s *RunState) start(total, totalBatches int, at time.Time) {
	s.total.Store(int64(total))
	s.totalBatches.Store(int64(totalBatches))
	s.processed.Store(0)
	s.successful.Store(0)
	s.failed.Store(0)
	s.currentBatch.Store(0)
	s.startedAt.Store(at.UnixNano())
	s.setPhase(PhaseRunning)
}

func (s *RunState) setBatch(n int) {
	s.currentBatch.Store(int64(n))
}

func (s *RunState) recordFile(failed bool) {
	if failed {
		s.failed.Add(1)
	} else {
		s.successful.Add(1)
	}
	s.processed.Add(1)
}

func (s *RunState) setPhase(p Phase) {
	s.phase.Store(int32(p))
}

func (s *RunState) Phase() Phase {
	return Phase(s.phase.Load())
}

func (s *RunState) Snapshot() Snapshot {
	snap := Snapshot{
		Total:        int(s.total.Load()),
		Processed:    int(s.processed.Load()),
		Successful:   int(s.successful.Load()),
		Failed:       int(s.failed.Load()),
		CurrentBatch: int(s.currentBatch.Load()),
		TotalBatches: int(s.totalBatches.Load()),
		Phase:        Phase(s.phase.Load()),
	}
	if started := s.startedAt.Load(); started != 0 {
		snap.StartedAt = time.Unix(0, started)
	}
	return snap
}

// Elapsed returns the time since the run started, or zero before it started.
func (s Snapshot) Elapsed(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(s.StartedAt)
}
