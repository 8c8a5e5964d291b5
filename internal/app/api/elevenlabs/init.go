package elevenlabs

import (
	"call-transcriber/internal/app/api/provider"
)

func init() {
	provider.RegisterProvider(providerName, createElevenLabsProvider)
}

func createElevenLabsProvider(settings provider.Settings) (provider.Provider, error) {
	return NewElevenLabsSTTProvider(ElevenLabsConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Timeout: settings.Timeout,
	}), nil
}
