package converter

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"call-transcriber/internal/app/session"
)

func TestEstimateRemaining(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name      string
		processed int
		total     int
		elapsed   time.Duration
		want      string
	}{
		{name: "nothing_processed", processed: 0, total: 10, elapsed: time.Minute, want: "unknown"},
		{name: "no_time_elapsed", processed: 3, total: 10, elapsed: 0, want: "unknown"},
		{name: "seconds", processed: 5, total: 10, elapsed: 5 * time.Second, want: "About 5 seconds (ETA: 12:00:05)"},
		{name: "minutes", processed: 10, total: 40, elapsed: 100 * time.Second, want: "About 5 minutes (ETA: 12:05:00)"},
		{name: "hours", processed: 1, total: 3, elapsed: time.Hour, want: "About 2.0 hours (ETA: 2024-01-01 14:00:00)"},
		{name: "done", processed: 4, total: 4, elapsed: time.Minute, want: "About 0 seconds (ETA: 12:00:00)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateRemaining(tt.processed, tt.total, tt.elapsed, now))
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0:00:00", FormatElapsed(0))
	assert.Equal(t, "0:00:00", FormatElapsed(-time.Second))
	assert.Equal(t, "0:01:05", FormatElapsed(65*time.Second+400*time.Millisecond))
	assert.Equal(t, "26:03:07", FormatElapsed(26*time.Hour+3*time.Minute+7*time.Second))
}

func TestProgressLines(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)
	snap := Snapshot{Total: 4, Processed: 2, Successful: 1, Failed: 1, CurrentBatch: 1, TotalBatches: 2, StartedAt: start}

	lines := ProgressLines(snap, start.Add(20*time.Second))
	assert.Equal(t, []string{
		"Files processed: 2/4",
		"Batch: 1/2",
		"Successful: 1, Failed: 1",
		"Elapsed time: 0:00:20",
		"Estimated remaining: About 20 seconds (ETA: 12:00:40)",
	}, lines)
}

func newTestSession(t *testing.T) *session.Log {
	t.Helper()
	log, err := session.Create(t.TempDir(), "test", zap.NewNop())
	require.NoError(t, err)
	return log
}

func readSession(t *testing.T, log *session.Log) string {
	t.Helper()
	data, err := os.ReadFile(log.Path())
	require.NoError(t, err)
	return string(data)
}

func TestReporter_Report(t *testing.T) {
	log := newTestSession(t)
	var state RunState
	r := NewReporter(&state, log, zap.NewNop(), time.Hour)

	r.Report()
	assert.NotContains(t, readSession(t, log), "PROGRESS UPDATE", "idle run is not reported")

	state.start(4, 2, time.Now())
	r.Report()
	assert.NotContains(t, readSession(t, log), "PROGRESS UPDATE", "nothing processed yet")

	state.recordFile(false)
	r.Report()
	content := readSession(t, log)
	assert.Contains(t, content, "PROGRESS UPDATE")
	assert.Contains(t, content, "Files processed: 1/4")

	state.setPhase(PhaseCompleted)
	r.Report()
	assert.Equal(t, content, readSession(t, log), "finished run is not reported")
}

func TestReporter_StartTicks(t *testing.T) {
	log := newTestSession(t)
	var state RunState
	state.start(2, 1, time.Now())
	state.recordFile(false)

	r := NewReporter(&state, log, zap.NewNop(), 10*time.Millisecond)
	r.Start(context.Background())
	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(readSession(t, log)), []byte("PROGRESS UPDATE"))
	}, 2*time.Second, 10*time.Millisecond)
	r.Stop()
	r.Stop()
}

func TestReporter_StopWithoutStart(t *testing.T) {
	var state RunState
	r := NewReporter(&state, nil, nil, time.Second)
	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without Start")
	}
}

func TestReporter_DisabledInterval(t *testing.T) {
	var state RunState
	r := NewReporter(&state, nil, nil, 0)
	r.Start(context.Background())
	r.Stop()
}

func TestProgressManager_Disabled(t *testing.T) {
	pm := NewProgressManager(ProgressConfig{Enabled: false})
	bar := pm.CreateBar(3, "Batch 1/1")
	bar.Increment()
	bar.Complete()
	pm.Wait()
	pm.Shutdown()

	var nilManager *ProgressManager
	nilManager.CreateBar(1, "x").Increment()
	nilManager.Wait()
}

func TestProgressManager_Enabled(t *testing.T) {
	var out bytes.Buffer
	pm := NewProgressManager(ProgressConfig{Enabled: true, Writer: &out})
	bar := pm.CreateBar(2, "Batch 1/1")
	bar.Increment()
	bar.Complete()
	pm.Wait()
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(nil))
	assert.False(t, IsTTY(&bytes.Buffer{}))
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTTY(f))
	assert.True(t, ShouldShowProgress(true))
}
