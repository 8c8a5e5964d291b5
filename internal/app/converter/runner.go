package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"call-transcriber/internal/app/metrics"
	"call-transcriber/internal/app/model"
	"call-transcriber/internal/app/session"
	"call-transcriber/internal/app/util/files"
)

// Invoker transcribes a single work item into a ledger record.
type Invoker interface {
	Invoke(ctx context.Context, item model.WorkItem, languageCode string) model.TranscriptionRecord
}

// Ledger is the persistence the runner checkpoints into.
type Ledger interface {
	LoadKnownKeys(path string) (map[string]struct{}, error)
	MergeAndPersist(path string, records []model.TranscriptionRecord) bool
	WriteSideFile(path string, records []model.TranscriptionRecord) error
}

// Canceller reports whether the operator asked the run to stop.
type Canceller interface {
	Cancelled() bool
}

type Options struct {
	InputDir         string
	LedgerPath       string
	LanguageCode     string
	BatchSize        int
	Extensions       []string
	SessionID        string
	CheckpointDir    string
	ProgressInterval time.Duration
}

// RunSummary describes how a run ended.
type RunSummary struct {
	Discovered      int
	Pending         int
	Processed       int
	Successful      int
	Failed          int
	Batches         int
	FailedMerges    int
	CheckpointFiles []string
	Interrupted     bool
	Elapsed         time.Duration
}

// Runner drives the batch loop: select the pending files, transcribe them
// one at a time, and checkpoint the ledger after every batch.
type Runner struct {
	opts      Options
	invoker   Invoker
	ledger    Ledger
	canceller Canceller
	session   *session.Log
	metrics   *metrics.Collector
	progress  *ProgressManager
	logger    *zap.Logger
	state     *RunState
	now       func() time.Time
}

func NewRunner(opts Options, invoker Invoker, ledger Ledger, canceller Canceller, sessionLog *session.Log,
	collector *metrics.Collector, progress *ProgressManager, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = files.SupportedAudioExtensions
	}
	if opts.CheckpointDir == "" {
		opts.CheckpointDir = "."
	}
	if opts.SessionID == "" {
		opts.SessionID = session.NewID(time.Now())
	}
	return &Runner{
		opts:      opts,
		invoker:   invoker,
		ledger:    ledger,
		canceller: canceller,
		session:   sessionLog,
		metrics:   collector,
		progress:  progress,
		logger:    logger,
		state:     &RunState{},
		now:       time.Now,
	}
}

// State exposes the live counters, used by the emergency handler.
func (r *Runner) State() *RunState {
	return r.state
}

// Run processes every pending file. The returned error is only set for
// setup failures; per-file and per-checkpoint failures are reported in the
// summary and the logs.
func (r *Runner) Run(ctx context.Context) (RunSummary, error) {
	var summary RunSummary

	items, err := files.GetAllAudioFiles(r.opts.InputDir, r.opts.Extensions)
	if err != nil {
		return summary, err
	}
	summary.Discovered = len(items)
	if len(items) == 0 {
		r.logger.Warn("no audio files found", zap.String("input_dir", r.opts.InputDir))
		r.state.setPhase(PhaseTerminated)
		return summary, nil
	}
	r.logger.Info("found audio files", zap.Int("count", len(items)), zap.String("input_dir", r.opts.InputDir))

	known, _ := r.ledger.LoadKnownKeys(r.opts.LedgerPath)
	pending := SelectPending(items, known)
	summary.Pending = len(pending)
	r.metrics.SetPending(len(pending))
	if len(pending) == 0 {
		r.logger.Info("no new files to process, all files already in ledger",
			zap.String("ledger", r.opts.LedgerPath))
		r.state.setPhase(PhaseTerminated)
		return summary, nil
	}
	r.logger.Info("files remaining to process",
		zap.Int("pending", len(pending)),
		zap.Int("already_processed", len(items)-len(pending)))

	batches := lo.Chunk(pending, r.opts.BatchSize)
	startedAt := r.now()
	r.state.start(len(pending), len(batches), startedAt)
	r.session.Started(len(pending), len(batches), r.opts.BatchSize)
	r.logger.Info("session started",
		zap.String("session_log", r.session.Path()),
		zap.Int("batches", len(batches)),
		zap.Int("batch_size", r.opts.BatchSize))

	reporter := NewReporter(r.state, r.session, r.logger, r.opts.ProgressInterval)
	reporter.Start(ctx)
	defer reporter.Stop()

	// In-flight calls are never aborted; cancellation is observed between files.
	callCtx := context.WithoutCancel(ctx)

	for i, batch := range batches {
		batchNum := i + 1
		if r.stopRequested(ctx) {
			r.logger.Warn("exit requested, stopping before next batch", zap.Int("next_batch", batchNum))
			break
		}
		r.state.setBatch(batchNum)
		summary.Batches++
		r.logger.Info("processing batch",
			zap.Int("batch", batchNum),
			zap.Int("total_batches", len(batches)),
			zap.Int("files", len(batch)))

		results, ok, failed := r.runBatch(ctx, callCtx, batch, batchNum, len(batches))

		interrupted := r.stopRequested(ctx)
		if path, merged := r.checkpoint(results, batchNum, interrupted); !merged {
			summary.FailedMerges++
			if path != "" {
				summary.CheckpointFiles = append(summary.CheckpointFiles, path)
			}
		}
		r.session.BatchSummary(batchNum, ok, failed)
		r.logger.Info("batch finished", zap.Int("batch", batchNum), zap.Int("successful", ok), zap.Int("failed", failed))

		if interrupted {
			r.logger.Warn("exit requested, progress saved", zap.Int("batch", batchNum))
			break
		}
	}
	r.progress.Wait()

	snap := r.state.Snapshot()
	summary.Processed = snap.Processed
	summary.Successful = snap.Successful
	summary.Failed = snap.Failed
	summary.Interrupted = snap.Processed < snap.Total
	summary.Elapsed = r.now().Sub(startedAt)
	if summary.Interrupted {
		r.state.setPhase(PhaseTerminated)
	} else {
		r.state.setPhase(PhaseCompleted)
	}
	r.finish(summary)
	return summary, nil
}

func (r *Runner) runBatch(ctx, callCtx context.Context, batch []model.WorkItem, batchNum, totalBatches int) ([]model.TranscriptionRecord, int, int) {
	bar := r.progress.CreateBar(len(batch), fmt.Sprintf("Batch %d/%d", batchNum, totalBatches))
	defer bar.Complete()

	results := make([]model.TranscriptionRecord, 0, len(batch))
	var ok, failed int
	for _, item := range batch {
		start := r.now()
		record := r.invoker.Invoke(callCtx, item, r.opts.LanguageCode)
		results = append(results, record)

		isFailure := record.Failed()
		r.state.recordFile(isFailure)
		r.metrics.ObserveFile(isFailure, record.DurationSeconds, r.now().Sub(start))
		if isFailure {
			failed++
			r.session.FileFailed(item.Name, record.Transcription)
		} else {
			ok++
			r.session.FileSucceeded(item.Name)
		}
		bar.Increment()

		if r.stopRequested(ctx) {
			r.state.setPhase(PhaseDraining)
			r.logger.Warn("exit requested, saving current batch", zap.Int("batch", batchNum),
				zap.Int("completed_in_batch", len(results)))
			break
		}
	}
	return results, ok, failed
}

// checkpoint merges the batch into the ledger. When the merge fails the batch
// is written to its own checkpoint file and that path is returned.
func (r *Runner) checkpoint(results []model.TranscriptionRecord, batchNum int, interrupted bool) (string, bool) {
	var sidePath string
	merged := true
	if len(results) > 0 {
		merged = r.ledger.MergeAndPersist(r.opts.LedgerPath, results)
		r.metrics.ObserveCheckpoint(merged)
		if merged {
			r.logger.Info("checkpoint saved", zap.Int("batch", batchNum), zap.Int("records", len(results)))
		} else {
			sidePath = filepath.Join(r.opts.CheckpointDir,
				fmt.Sprintf("checkpoint_%s_batch_%d.csv", r.opts.SessionID, batchNum))
			if err := r.ledger.WriteSideFile(sidePath, results); err != nil {
				r.logger.Error("failed to save checkpoint file", zap.String("path", sidePath), zap.Error(err))
				sidePath = ""
			} else {
				r.logger.Warn("ledger merge failed, batch saved to checkpoint file", zap.String("path", sidePath))
			}
		}
	}

	r.session.Checkpoint(interrupted, ProgressLines(r.state.Snapshot(), r.now())...)
	return sidePath, merged
}

func (r *Runner) finish(summary RunSummary) {
	lines := []string{
		fmt.Sprintf("Total files processed: %d/%d", summary.Processed, summary.Pending),
		fmt.Sprintf("Successful transcriptions: %d", summary.Successful),
		fmt.Sprintf("Failed transcriptions: %d", summary.Failed),
		fmt.Sprintf("Total time: %s", FormatElapsed(summary.Elapsed)),
		fmt.Sprintf("Results saved to: %s", r.opts.LedgerPath),
	}
	if summary.FailedMerges > 0 {
		lines = append(lines, fmt.Sprintf("Ledger merges failed: %d (see checkpoint files)", summary.FailedMerges))
	}
	if summary.Interrupted {
		lines = append(lines, "Process was interrupted before completion")
	}
	r.session.FinalSummary(lines...)

	fields := []zap.Field{
		zap.Int("processed", summary.Processed),
		zap.Int("pending", summary.Pending),
		zap.Int("successful", summary.Successful),
		zap.Int("failed", summary.Failed),
		zap.String("elapsed", FormatElapsed(summary.Elapsed)),
		zap.String("ledger", r.opts.LedgerPath),
		zap.String("session_log", r.session.Path()),
	}
	switch {
	case summary.Failed > 0:
		r.logger.Warn("some transcriptions failed, see session log", fields...)
	case summary.Interrupted:
		r.logger.Warn("process was interrupted before completion", fields...)
	default:
		r.logger.Info("all transcriptions completed successfully", fields...)
	}
}

func (r *Runner) stopRequested(ctx context.Context) bool {
	if r.canceller != nil && r.canceller.Cancelled() {
		return true
	}
	return ctx.Err() != nil
}
