package whisper

import (
	"call-transcriber/internal/app/api/openai"
	"call-transcriber/internal/app/api/provider"
)

func init() {
	provider.RegisterProvider(providerName, createOpenAIProvider)
}

func createOpenAIProvider(settings provider.Settings) (provider.Provider, error) {
	client := openai.NewClient(settings.APIKey, settings.BaseURL, settings.Timeout)
	return NewRemoteTranscriber(client, settings.APIKey, settings.Model), nil
}
