package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "call-transcriber/internal/app/errors"
	"call-transcriber/internal/app/ledger"
	"call-transcriber/internal/app/metrics"
	"call-transcriber/internal/app/model"
	"call-transcriber/internal/app/session"
	"call-transcriber/internal/app/testutil"
)

type runnerFixture struct {
	dir         string
	inputDir    string
	ledgerPath  string
	transcriber *testutil.MockTranscriber
	prober      *testutil.MockProber
	cancel      *testutil.CancelFlag
	session     *session.Log
	collector   *metrics.Collector
}

func newRunnerFixture(t *testing.T, names ...string) *runnerFixture {
	t.Helper()
	dir := t.TempDir()
	f := &runnerFixture{
		dir:         dir,
		inputDir:    filepath.Join(dir, "clips"),
		ledgerPath:  filepath.Join(dir, "call_transcriptions.csv"),
		transcriber: testutil.NewMockTranscriber(),
		prober:      testutil.NewMockProber(42.5),
		cancel:      &testutil.CancelFlag{},
		collector:   metrics.NewCollector(),
	}
	testutil.WriteAudioFixtures(t, f.inputDir, names...)
	log, err := session.Create(dir, "test", zap.NewNop())
	require.NoError(t, err)
	f.session = log
	return f
}

func steppingClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func (f *runnerFixture) runner(batchSize int, storeOpts ...ledger.Option) *Runner {
	storeOpts = append([]ledger.Option{ledger.WithEmergencyDir(f.dir), ledger.WithClock(steppingClock())}, storeOpts...)
	store := ledger.NewStore(zap.NewNop(), storeOpts...)
	return NewRunner(Options{
		InputDir:      f.inputDir,
		LedgerPath:    f.ledgerPath,
		LanguageCode:  "hin",
		BatchSize:     batchSize,
		SessionID:     "test",
		CheckpointDir: f.dir,
	}, NewConverter(f.transcriber, f.prober, zap.NewNop()), store, f.cancel, f.session, f.collector, nil, zap.NewNop())
}

func (f *runnerFixture) backups(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(ledger.BackupDir(f.ledgerPath))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func (f *runnerFixture) sessionText(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.session.Path())
	require.NoError(t, err)
	return string(data)
}

func TestRunner_Run_CheckpointsEveryBatch(t *testing.T) {
	f := newRunnerFixture(t, "a.wav", "b.wav", "c.wav")
	r := f.runner(2)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Discovered)
	assert.Equal(t, 3, summary.Pending)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 3, summary.Successful)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 2, summary.Batches)
	assert.False(t, summary.Interrupted)
	assert.Equal(t, PhaseCompleted, r.State().Phase())

	records := testutil.ReadLedger(t, f.ledgerPath)
	assert.ElementsMatch(t, []string{"a.wav", "b.wav", "c.wav"}, testutil.RecordNames(records))
	for _, rec := range records {
		assert.Equal(t, 42.5, rec.DurationSeconds)
		assert.Equal(t, "2024-03-14", rec.FileDate)
		assert.Equal(t, 1, rec.SpeakerCount)
	}

	// first checkpoint creates the ledger, the second one backs it up
	assert.Len(t, f.backups(t), 1)

	text := f.sessionText(t)
	assert.Equal(t, 2, strings.Count(text, "=== CHECKPOINT"))
	assert.Contains(t, text, "Batch 1 summary: 2 successful, 0 failed")
	assert.Contains(t, text, "Batch 2 summary: 1 successful, 0 failed")
	assert.Contains(t, text, "=== FINAL SUMMARY ===")
	assert.NotContains(t, text, "PROCESS INTERRUPTED")
}

func TestRunner_Run_SkipsFilesAlreadyInLedger(t *testing.T) {
	f := newRunnerFixture(t, "a.wav", "b.wav")
	testutil.WriteLedger(t, f.ledgerPath, model.TranscriptionRecord{
		FileName: "a.wav", FileDate: "2024-03-01", DurationSeconds: 10, Transcription: "old", SpeakerCount: 2,
	})

	summary, err := f.runner(10).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"b.wav"}, f.transcriber.CalledFiles())
	assert.Equal(t, 1, summary.Pending)

	records := testutil.ReadLedger(t, f.ledgerPath)
	require.Len(t, records, 2)
	assert.Equal(t, "a.wav", records[0].FileName)
	assert.Equal(t, "old", records[0].Transcription)
	assert.Equal(t, "b.wav", records[1].FileName)
}

func TestRunner_Run_IsIdempotent(t *testing.T) {
	f := newRunnerFixture(t, "a.wav", "b.wav", "c.wav")
	_, err := f.runner(2).Run(context.Background())
	require.NoError(t, err)
	before, err := os.ReadFile(f.ledgerPath)
	require.NoError(t, err)
	backups := f.backups(t)
	f.transcriber.Reset()

	summary, err := f.runner(2).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, f.transcriber.GetCallCount())
	assert.Zero(t, summary.Pending)
	assert.Zero(t, summary.Batches)
	after, err := os.ReadFile(f.ledgerPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, backups, f.backups(t))
}

func TestRunner_Run_CancellationDrainsCurrentBatch(t *testing.T) {
	f := newRunnerFixture(t, "a.wav", "b.wav", "c.wav", "d.wav", "e.wav")
	f.transcriber.OnCall = func(name string) {
		if name == "c.wav" {
			f.cancel.Cancel()
		}
	}
	r := f.runner(2)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	// enumeration order is not guaranteed to be sorted, so look at what ran
	called := f.transcriber.CalledFiles()
	require.Len(t, called, 3)
	assert.Equal(t, "c.wav", called[2])

	records := testutil.ReadLedger(t, f.ledgerPath)
	assert.ElementsMatch(t, called, testutil.RecordNames(records))
	assert.True(t, summary.Interrupted)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 2, summary.Batches)
	assert.Equal(t, PhaseTerminated, r.State().Phase())
	assert.Contains(t, f.sessionText(t), "PROCESS INTERRUPTED BY USER - PARTIAL COMPLETION")
}

func TestRunner_Run_CancelledBeforeFirstBatch(t *testing.T) {
	f := newRunnerFixture(t, "a.wav", "b.wav")
	f.cancel.Cancel()

	summary, err := f.runner(2).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, f.transcriber.GetCallCount())
	assert.True(t, summary.Interrupted)
	assert.NoFileExists(t, f.ledgerPath)
}

func TestRunner_Run_ContextCancelledStops(t *testing.T) {
	f := newRunnerFixture(t, "a.wav", "b.wav")
	ctx, cancel := context.WithCancel(context.Background())
	f.transcriber.OnCall = func(string) { cancel() }

	summary, err := f.runner(1).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, f.transcriber.GetCallCount())
	assert.Equal(t, 1, summary.Processed)
	records := testutil.ReadLedger(t, f.ledgerPath)
	require.Len(t, records, 1)
	assert.False(t, records[0].Failed(), "in-flight call is not aborted by cancellation")
}

func TestRunner_Run_FailuresAreRecorded(t *testing.T) {
	f := newRunnerFixture(t, "a.wav", "b.wav")
	f.transcriber.SetErrorForFile("b.wav", errors.New("rate limited"))

	summary, err := f.runner(5).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	records := testutil.ReadLedger(t, f.ledgerPath)
	byName := make(map[string]model.TranscriptionRecord)
	for _, rec := range records {
		byName[rec.FileName] = rec
	}
	assert.True(t, byName["b.wav"].Failed())
	assert.Contains(t, byName["b.wav"].Transcription, "rate limited")
	assert.False(t, byName["a.wav"].Failed())
	assert.Contains(t, f.sessionText(t), "FAILED: b.wav - ERROR: transcription failed: rate limited")
	assert.Contains(t, f.sessionText(t), "SUCCESS: a.wav")

	// failed rows count as done unless retries are requested
	f.transcriber.Reset()
	delete(f.transcriber.ErrorMap, "b.wav")
	_, err = f.runner(5).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, f.transcriber.GetCallCount())

	_, err = f.runner(5, ledger.WithExcludeFailures(true)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b.wav"}, f.transcriber.CalledFiles())

	records = testutil.ReadLedger(t, f.ledgerPath)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.False(t, rec.Failed(), rec.FileName)
	}
}

func TestRunner_Run_MergeFailureWritesCheckpointFile(t *testing.T) {
	f := newRunnerFixture(t, "a.wav", "b.wav")
	// a non-empty directory where the temp ledger goes makes the write fail
	blocker := f.ledgerPath + ".temp"
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "x"), 0o755))

	summary, err := f.runner(2).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FailedMerges)
	checkpoint := filepath.Join(f.dir, "checkpoint_test_batch_1.csv")
	assert.Equal(t, []string{checkpoint}, summary.CheckpointFiles)
	records := testutil.ReadLedger(t, checkpoint)
	assert.ElementsMatch(t, []string{"a.wav", "b.wav"}, testutil.RecordNames(records))
	assert.NoFileExists(t, f.ledgerPath)
}

func TestRunner_Run_SetupErrors(t *testing.T) {
	f := newRunnerFixture(t)
	r := f.runner(2)
	r.opts.InputDir = filepath.Join(f.dir, "missing")

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrInputDirNotFound)
}

func TestRunner_Run_EmptyInputFolder(t *testing.T) {
	f := newRunnerFixture(t)

	summary, err := f.runner(2).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Discovered)
	assert.NoFileExists(t, f.ledgerPath)
}

func TestRunner_Run_IgnoresUnsupportedFiles(t *testing.T) {
	f := newRunnerFixture(t, "a.WAV", "notes.txt", "b.m4a")

	summary, err := f.runner(10).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Discovered)
	assert.ElementsMatch(t, []string{"a.WAV", "b.m4a"}, f.transcriber.CalledFiles())
}

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner(Options{}, nil, nil, nil, nil, nil, nil, nil)
	assert.Equal(t, 1, r.opts.BatchSize)
	assert.Equal(t, ".", r.opts.CheckpointDir)
	assert.NotEmpty(t, r.opts.SessionID)
	assert.NotEmpty(t, r.opts.Extensions)
}
