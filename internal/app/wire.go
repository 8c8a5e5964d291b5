//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"call-transcriber/internal/app/converter"
	"call-transcriber/internal/app/ledger"
	"call-transcriber/internal/app/signals"
	"call-transcriber/internal/config"
)

func InitializeRunner(settings config.Settings, runtime Runtime) (*converter.Runner, error) {
	wire.Build(
		wire.FieldsOf(new(Runtime), "Logger", "Session", "Metrics", "Controller"),
		provideTranscriber,
		provideProber,
		provideStore,
		provideProgress,
		provideRunnerOptions,
		converter.NewConverter,
		converter.NewRunner,
		wire.Bind(new(converter.Invoker), new(*converter.Converter)),
		wire.Bind(new(converter.Ledger), new(*ledger.Store)),
		wire.Bind(new(converter.Canceller), new(*signals.Controller)),
	)
	return &converter.Runner{}, nil
}

// InitializeStore builds the ledger store used by the read-only commands.
func InitializeStore(settings config.Settings, logger *zap.Logger) *ledger.Store {
	wire.Build(provideStore)
	return &ledger.Store{}
}
