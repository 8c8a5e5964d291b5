package app

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"call-transcriber/internal/app/api"
	_ "call-transcriber/internal/app/api/elevenlabs"
	_ "call-transcriber/internal/app/api/openai/whisper"
	"call-transcriber/internal/app/api/provider"
	"call-transcriber/internal/app/audio"
	"call-transcriber/internal/app/converter"
	apperrors "call-transcriber/internal/app/errors"
	"call-transcriber/internal/app/ledger"
	"call-transcriber/internal/app/metrics"
	"call-transcriber/internal/app/session"
	"call-transcriber/internal/app/signals"
	"call-transcriber/internal/app/util/files"
	"call-transcriber/internal/config"
)

// Runtime carries the per-run objects the command creates before wiring the
// pipeline, so that they stay reachable from its panic handler.
type Runtime struct {
	SessionID  string
	Logger     *zap.Logger
	Session    *session.Log
	Metrics    *metrics.Collector
	Controller *signals.Controller
}

// provideTranscriber builds the configured provider from the registry
func provideTranscriber(settings config.Settings) (api.Transcriber, error) {
	p, err := provider.CreateProvider(settings.Provider, provider.Settings{
		APIKey:  settings.APIKey(),
		BaseURL: settings.BaseURL,
		Model:   settings.ModelID,
		Timeout: settings.RequestTimeout,
	})
	switch {
	case errors.Is(err, provider.ErrNotRegistered):
		return nil, apperrors.Mark(
			fmt.Errorf("%w (registered: %s)", err, strings.Join(provider.ListRegisteredProviders(), ", ")),
			apperrors.ErrUnknownProvider)
	case err != nil:
		return nil, apperrors.Mark(err, apperrors.ErrInvalidConfig)
	}
	return p, nil
}

func provideProber() audio.Prober {
	return audio.NewFFProbe()
}

func provideStore(settings config.Settings, logger *zap.Logger) *ledger.Store {
	return ledger.NewStore(logger,
		ledger.WithEmergencyDir(settings.EmergencyDir),
		ledger.WithExcludeFailures(settings.RetryFailed),
	)
}

// provideProgress builds the bar container and stops it before a forced exit
// so the terminal is left usable.
func provideProgress(settings config.Settings, controller *signals.Controller) *converter.ProgressManager {
	pm := converter.NewProgressManager(converter.ProgressConfig{
		Enabled: converter.ShouldShowProgress(settings.ProgressBars),
	})
	controller.OnForcedExit(pm.Shutdown)
	return pm
}

func provideRunnerOptions(settings config.Settings, runtime Runtime) converter.Options {
	return converter.Options{
		InputDir:         settings.InputFolder,
		LedgerPath:       settings.OutputCSV,
		LanguageCode:     settings.LanguageCode,
		BatchSize:        settings.BatchSize,
		Extensions:       files.SupportedAudioExtensions,
		SessionID:        runtime.SessionID,
		CheckpointDir:    settings.SessionDir,
		ProgressInterval: settings.ProgressInterval,
	}
}
