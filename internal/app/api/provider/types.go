package provider

import (
	"context"
	"time"
)

// TranscriptionRequest represents one transcription call.
type TranscriptionRequest struct {
	InputFilePath string `json:"input_file_path"`

	// Language hint such as "hin" or "en"; empty lets the provider detect it
	Language string `json:"language,omitempty"`
	Model    string `json:"model,omitempty"`

	// Diarize asks the provider to label speakers when it supports it
	Diarize        bool `json:"diarize,omitempty"`
	TagAudioEvents bool `json:"tag_audio_events,omitempty"`

	ProviderOptions map[string]interface{} `json:"provider_options,omitempty"`
}

// TranscriptionResponse represents the response from a transcription provider
type TranscriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`

	Segments []TranscriptionSegment `json:"segments,omitempty"`
	Words    []TranscriptionWord    `json:"words,omitempty"`

	ProcessingTime time.Duration `json:"processing_time,omitempty"`
	ModelUsed      string        `json:"model_used,omitempty"`
}

// TranscriptionSegment represents a time-segmented piece of transcription
type TranscriptionSegment struct {
	ID      int     `json:"id"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
}

// TranscriptionWord represents a single word with timing information
type TranscriptionWord struct {
	Word    string  `json:"word"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
}

// SpeakerCount returns the number of distinct speaker labels carried by the
// response, or 1 when it has no speaker segmentation at all.
func (r *TranscriptionResponse) SpeakerCount() int {
	speakers := make(map[string]struct{})
	for _, s := range r.Segments {
		if s.Speaker != "" {
			speakers[s.Speaker] = struct{}{}
		}
	}
	for _, w := range r.Words {
		if w.Speaker != "" {
			speakers[w.Speaker] = struct{}{}
		}
	}
	if len(speakers) == 0 {
		return 1
	}
	return len(speakers)
}

// TranscriptionError represents provider-specific errors
type TranscriptionError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Provider    string   `json:"provider"`
	StatusCode  int      `json:"status_code,omitempty"`
	Retryable   bool     `json:"retryable"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (e *TranscriptionError) Error() string {
	return e.Provider + ": " + e.Message
}

// Provider is implemented by every speech-to-text backend.
type Provider interface {
	Name() string
	TranscriptWithOptions(ctx context.Context, request *TranscriptionRequest) (*TranscriptionResponse, error)
	ValidateConfiguration() error
}
