// Package common holds the flag and settings plumbing shared by the
// subcommands.
package common

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appcommon "call-transcriber/internal/app/common"
	"call-transcriber/internal/config"
)

const (
	flagConfig  = "config"
	flagEnvFile = "env-file"
	flagVerbose = "verbose"
)

// BindGlobalFlags registers the persistent flags of the root command.
func BindGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().String(flagConfig, "", "optional YAML settings file")
	root.PersistentFlags().String(flagEnvFile, "", "env file to load (default .env, then .env.local)")
	root.PersistentFlags().BoolP(flagVerbose, "V", false, "debug logging")
}

// BindLedgerFlags registers the flags every command reading the ledger takes.
func BindLedgerFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "folder with the call recordings (INPUT_FOLDER)")
	cmd.Flags().StringP("output", "o", "", "ledger CSV path (OUTPUT_CSV)")
	cmd.Flags().Bool("retry-failed", false, "treat failed ledger rows as pending (RETRY_FAILED)")
}

// BindTranscribeFlags registers the flags that only matter when calling the
// transcription service.
func BindTranscribeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("language", "l", "", "language code sent to the service (LANGUAGE_CODE)")
	cmd.Flags().IntP("batch-size", "b", 0, "files per checkpoint (BATCH_SIZE)")
	cmd.Flags().StringP("provider", "p", "", "elevenlabs or openai (TRANSCRIPTION_PROVIDER)")
	cmd.Flags().String("model", "", "model id (MODEL_ID)")
	cmd.Flags().Duration("progress-interval", 0, "progress report interval (PROGRESS_INTERVAL)")
	cmd.Flags().Duration("request-timeout", 0, "per-request timeout, 0 for none (REQUEST_TIMEOUT)")
	cmd.Flags().String("metrics-file", "", "write Prometheus textfile metrics here (METRICS_FILE)")
	cmd.Flags().Bool("progress", false, "force progress bars even without a terminal")
}

// LoadSettings layers defaults, the YAML file, the environment (after loading
// the env file) and the flags that were set explicitly.
func LoadSettings(cmd *cobra.Command) (config.Settings, error) {
	var envFiles []string
	if f := cmd.Flag(flagEnvFile); f != nil && f.Value.String() != "" {
		envFiles = append(envFiles, f.Value.String())
	}
	if _, err := config.LoadEnv(envFiles...); err != nil {
		return config.Settings{}, err
	}

	var configPath string
	if f := cmd.Flag(flagConfig); f != nil {
		configPath = f.Value.String()
	}
	settings, err := config.Load(configPath)
	if err != nil {
		return settings, err
	}
	applyFlags(cmd, &settings)
	if f := cmd.Flag(flagVerbose); f != nil && f.Changed {
		settings.Debug = f.Value.String() == "true"
	}
	return settings, nil
}

func applyFlags(cmd *cobra.Command, s *config.Settings) {
	fs := cmd.Flags()
	changed := func(name string) bool {
		return fs.Lookup(name) != nil && fs.Changed(name)
	}
	if changed("input") {
		s.InputFolder, _ = fs.GetString("input")
	}
	if changed("output") {
		s.OutputCSV, _ = fs.GetString("output")
	}
	if changed("retry-failed") {
		s.RetryFailed, _ = fs.GetBool("retry-failed")
	}
	if changed("language") {
		s.LanguageCode, _ = fs.GetString("language")
	}
	if changed("batch-size") {
		s.BatchSize, _ = fs.GetInt("batch-size")
	}
	if changed("provider") {
		provider, _ := fs.GetString("provider")
		s.Provider = strings.ToLower(provider)
	}
	if changed("model") {
		s.ModelID, _ = fs.GetString("model")
	}
	if changed("progress-interval") {
		s.ProgressInterval, _ = fs.GetDuration("progress-interval")
	}
	if changed("request-timeout") {
		s.RequestTimeout, _ = fs.GetDuration("request-timeout")
	}
	if changed("metrics-file") {
		s.MetricsFile, _ = fs.GetString("metrics-file")
	}
	if changed("progress") {
		s.ProgressBars, _ = fs.GetBool("progress")
	}
}

// LogFileName is the rotated log file shared by every run.
const LogFileName = "transcription.log"

// NewLogger builds the application logger. With a session id the logs are
// also written to the rotated LogFileName under the log directory, each entry
// tagged with the session.
func NewLogger(settings config.Settings, sessionID string) (*zap.Logger, error) {
	cfg := appcommon.LoggerConfig{
		Development: true,
		Level:       zapcore.InfoLevel,
	}
	if settings.Debug {
		cfg.Level = zapcore.DebugLevel
	}
	if sessionID == "" {
		return appcommon.NewLogger(cfg)
	}
	cfg.FilePath = filepath.Join(settings.LogDir, LogFileName)
	logger, err := appcommon.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("session", sessionID)), nil
}
