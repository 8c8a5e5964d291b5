package api

import (
	"context"

	"call-transcriber/internal/app/api/provider"
)

// Transcriber converts one audio file to text through a speech-to-text backend.
type Transcriber interface {
	Name() string
	TranscriptWithOptions(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error)
}
