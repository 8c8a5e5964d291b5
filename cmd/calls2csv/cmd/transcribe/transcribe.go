package transcribe

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"call-transcriber/cmd/calls2csv/cmd/common"
	"call-transcriber/internal/app"
	"call-transcriber/internal/app/converter"
	"call-transcriber/internal/app/metrics"
	"call-transcriber/internal/app/session"
	"call-transcriber/internal/app/signals"
	"call-transcriber/internal/config"
)

// initializeRunner is replaced in tests.
var initializeRunner = app.InitializeRunner

func init() {
	common.BindLedgerFlags(Cmd)
	common.BindTranscribeFlags(Cmd)
}

// Cmd represents the transcribe command
var Cmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Transcribe every recording in the input folder that is not in the ledger yet",
	Long: `Transcribe every recording in the input folder that is not in the ledger yet.

- Files already present in the ledger are skipped, failed ones included unless
  --retry-failed is given
- The ledger is backed up and rewritten after every batch
- Ctrl+C once finishes the current file, saves the batch and stops;
  Ctrl+C twice exits immediately`,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := common.LoadSettings(cmd)
		if err != nil {
			return err
		}
		if err := settings.Validate(); err != nil {
			return err
		}
		return run(cmd, settings)
	},
}

func run(cmd *cobra.Command, settings config.Settings) (err error) {
	startedAt := time.Now()
	sessionID := session.NewID(startedAt)

	logger, err := common.NewLogger(settings, sessionID)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sessionLog, err := session.Create(settings.SessionDir, sessionID, logger)
	if err != nil {
		return err
	}

	controller := signals.NewController(logger)
	stop := controller.Watch(cmd.Context())
	defer stop()

	collector := metrics.NewCollector()
	var runner *converter.Runner

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			writeEmergency(settings, sessionID, runner, err, logger)
		}
	}()

	logger.Info("starting transcription",
		zap.String("input_folder", settings.InputFolder),
		zap.String("output_csv", settings.OutputCSV),
		zap.String("provider", settings.Provider),
		zap.String("language", settings.LanguageCode),
		zap.Int("batch_size", settings.BatchSize),
		zap.Bool("retry_failed", settings.RetryFailed))

	runner, err = initializeRunner(settings, app.Runtime{
		SessionID:  sessionID,
		Logger:     logger,
		Session:    sessionLog,
		Metrics:    collector,
		Controller: controller,
	})
	if err != nil {
		return err
	}

	summary, err := runner.Run(cmd.Context())
	if err != nil {
		logger.Error("transcription run failed", zap.Error(err))
		return err
	}

	if err := collector.WriteTextfile(settings.MetricsFile); err != nil {
		logger.Warn("failed to write metrics file", zap.String("path", settings.MetricsFile), zap.Error(err))
	}
	for _, path := range summary.CheckpointFiles {
		logger.Warn("batch kept outside the ledger", zap.String("path", path))
	}
	return nil
}

func writeEmergency(settings config.Settings, sessionID string, runner *converter.Runner, cause error, logger *zap.Logger) {
	var lines []string
	if runner != nil {
		snap := runner.State().Snapshot()
		lines = append(lines,
			fmt.Sprintf("Processed %d/%d files before error", snap.Processed, snap.Total),
			fmt.Sprintf("Successful: %d, Failed: %d", snap.Successful, snap.Failed),
			fmt.Sprintf("Batch: %d/%d", snap.CurrentBatch, snap.TotalBatches),
		)
	}
	path, err := session.WriteEmergency(settings.EmergencyDir, sessionID, time.Now(), cause, lines...)
	if err != nil {
		logger.Error("failed to write emergency log", zap.NamedError("cause", cause), zap.Error(err))
		return
	}
	logger.Error("critical error, emergency log written", zap.Error(cause), zap.String("path", path))
}
