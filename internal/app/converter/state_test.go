package converter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "running", PhaseRunning.String())
	assert.Equal(t, "draining", PhaseDraining.String())
	assert.Equal(t, "completed", PhaseCompleted.String())
	assert.Equal(t, "terminated", PhaseTerminated.String())
	assert.Equal(t, "unknown", Phase(42).String())
}

func TestRunState_Snapshot(t *testing.T) {
	var s RunState
	snap := s.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.True(t, snap.StartedAt.IsZero())
	assert.Zero(t, snap.Elapsed(time.Now()))

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.start(5, 3, start)
	s.setBatch(2)
	s.recordFile(false)
	s.recordFile(true)
	s.recordFile(false)

	snap = s.Snapshot()
	assert.Equal(t, Snapshot{
		Total:        5,
		Processed:    3,
		Successful:   2,
		Failed:       1,
		CurrentBatch: 2,
		TotalBatches: 3,
		Phase:        PhaseRunning,
		StartedAt:    time.Unix(0, start.UnixNano()),
	}, snap)
	assert.Equal(t, 90*time.Second, snap.Elapsed(start.Add(90*time.Second)))

	s.setPhase(PhaseDraining)
	assert.Equal(t, PhaseDraining, s.Phase())
}
