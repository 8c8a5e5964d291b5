package converter

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"go.uber.org/zap"

	"call-transcriber/internal/app/session"
)

type ProgressConfig struct {
	Enabled bool
	Writer  io.Writer
}

// ProgressManager draws one terminal bar per batch. When disabled every
// method is a no-op.
type ProgressManager struct {
	container *mpb.Progress
	enabled   bool
	mu        sync.Mutex
}

type ProgressBar struct {
	bar     *mpb.Bar
	enabled bool
}

func NewProgressManager(config ProgressConfig) *ProgressManager {
	if !config.Enabled {
		return &ProgressManager{enabled: false}
	}

	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}

	container := mpb.New(
		mpb.WithOutput(writer),
		mpb.WithRefreshRate(120*time.Millisecond),
	)

	return &ProgressManager{
		container: container,
		enabled:   true,
	}
}

func (pm *ProgressManager) CreateBar(total int, description string) *ProgressBar {
	if pm == nil || !pm.enabled || pm.container == nil {
		return &ProgressBar{enabled: false}
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	bar := pm.container.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(description+" ", decor.WC{W: len(description) + 1, C: decor.DindentRight}),
			decor.CountersNoUnit("(%d/%d)", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.NewPercentage("%.1f", decor.WCSyncSpace),
			decor.OnComplete(
				decor.EwmaETA(decor.ET_STYLE_GO, 30, decor.WCSyncWidth), " done ",
			),
		),
	)

	return &ProgressBar{
		bar:     bar,
		enabled: true,
	}
}

func (pb *ProgressBar) Increment() {
	if pb.enabled && pb.bar != nil {
		pb.bar.EwmaIncrement(time.Second)
	}
}

// Complete marks the bar done at its current count, which is short of the
// total when a batch is drained early.
func (pb *ProgressBar) Complete() {
	if pb.enabled && pb.bar != nil {
		pb.bar.SetTotal(pb.bar.Current(), true)
	}
}

func (pm *ProgressManager) Wait() {
	if pm != nil && pm.enabled && pm.container != nil {
		pm.container.Wait()
	}
}

func (pm *ProgressManager) Shutdown() {
	if pm != nil && pm.enabled && pm.container != nil {
		pm.container.Shutdown()
	}
}

func IsTTY(writer io.Writer) bool {
	if writer == nil {
		return false
	}

	if file, ok := writer.(*os.File); ok {
		stat, err := file.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

func ShouldShowProgress(forced bool) bool {
	if forced {
		return true
	}

	return IsTTY(os.Stderr)
}

// EstimateRemaining extrapolates the time left from the average throughput
// so far. It returns "unknown" until at least one file has been processed.
func EstimateRemaining(processed, total int, elapsed time.Duration, now time.Time) string {
	if processed <= 0 || elapsed <= 0 {
		return "unknown"
	}
	remaining := total - processed
	if remaining < 0 {
		remaining = 0
	}
	seconds := elapsed.Seconds() * float64(remaining) / float64(processed)
	eta := now.Add(time.Duration(seconds * float64(time.Second)))

	switch {
	case seconds < 60:
		return fmt.Sprintf("About %d seconds (ETA: %s)", int(seconds), eta.Format("15:04:05"))
	case seconds < 3600:
		return fmt.Sprintf("About %d minutes (ETA: %s)", int(seconds/60), eta.Format("15:04:05"))
	default:
		return fmt.Sprintf("About %.1f hours (ETA: %s)", seconds/3600, eta.Format("2006-01-02 15:04:05"))
	}
}

// FormatElapsed renders d as H:MM:SS.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// ProgressLines is the status block shared by progress updates and
// checkpoints.
func ProgressLines(snap Snapshot, now time.Time) []string {
	elapsed := snap.Elapsed(now)
	return []string{
		fmt.Sprintf("Files processed: %d/%d", snap.Processed, snap.Total),
		fmt.Sprintf("Batch: %d/%d", snap.CurrentBatch, snap.TotalBatches),
		fmt.Sprintf("Successful: %d, Failed: %d", snap.Successful, snap.Failed),
		fmt.Sprintf("Elapsed time: %s", FormatElapsed(elapsed)),
		fmt.Sprintf("Estimated remaining: %s", EstimateRemaining(snap.Processed, snap.Total, elapsed, now)),
	}
}

// Reporter periodically writes the run status to the session log and the
// structured logger while a run is active.
type Reporter struct {
	state    *RunState
	session  *session.Log
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time

	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	started bool
}

func NewReporter(state *RunState, sessionLog *session.Log, logger *zap.Logger, interval time.Duration) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{
		state:    state,
		session:  sessionLog,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the reporting goroutine. A non-positive interval disables
// reporting.
func (r *Reporter) Start(ctx context.Context) {
	r.started = true
	if r.interval <= 0 {
		close(r.done)
		return
	}
	go r.loop(ctx)
}

func (r *Reporter) loop(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-ticker.C:
			r.Report()
		}
	}
}

// Report writes one progress update if the run is active and has processed
// at least one file.
func (r *Reporter) Report() {
	snap := r.state.Snapshot()
	if snap.Phase != PhaseRunning && snap.Phase != PhaseDraining {
		return
	}
	if snap.Processed == 0 {
		return
	}
	now := r.now()
	lines := ProgressLines(snap, now)
	r.session.ProgressUpdate(lines...)
	r.logger.Info("progress",
		zap.Int("processed", snap.Processed),
		zap.Int("total", snap.Total),
		zap.Int("batch", snap.CurrentBatch),
		zap.Int("total_batches", snap.TotalBatches),
		zap.String("elapsed", FormatElapsed(snap.Elapsed(now))),
		zap.String("remaining", EstimateRemaining(snap.Processed, snap.Total, snap.Elapsed(now), now)))
}

// Stop ends the reporting goroutine and waits for it. It is safe to call
// more than once.
func (r *Reporter) Stop() {
	if !r.started {
		return
	}
	r.once.Do(func() { close(r.stop) })
	<-r.done
}
