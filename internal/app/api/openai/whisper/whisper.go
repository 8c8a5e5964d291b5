package whisper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"call-transcriber/internal/app/api/provider"
)

const providerName = "openai"

// languageCodes maps ISO 639-3 hints to the ISO 639-1 codes Whisper expects.
var languageCodes = map[string]string{
	"hin": "hi", "eng": "en", "ben": "bn", "tam": "ta", "tel": "te", "mar": "mr",
	"urd": "ur", "guj": "gu", "kan": "kn", "mal": "ml", "pan": "pa", "spa": "es",
	"fra": "fr", "deu": "de", "por": "pt", "ita": "it", "jpn": "ja", "zho": "zh",
}

// RemoteTranscriber implements remote transcription using the OpenAI API.
type RemoteTranscriber struct {
	client *openai.Client
	apiKey string
	model  string
}

// NewRemoteTranscriber creates a new RemoteTranscriber instance.
func NewRemoteTranscriber(client *openai.Client, apiKey, model string) *RemoteTranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	return &RemoteTranscriber{client: client, apiKey: apiKey, model: model}
}

func (rt *RemoteTranscriber) Name() string {
	return providerName
}

// TranscriptWithOptions uses the OpenAI API for remote transcription. Whisper
// does not label speakers, so the response carries plain segments only.
func (rt *RemoteTranscriber) TranscriptWithOptions(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	startTime := time.Now()

	model := rt.model
	if request.Model != "" {
		model = request.Model
	}

	req := openai.AudioRequest{
		Model:    model,
		FilePath: request.InputFilePath,
		Language: toWhisperLanguage(request.Language),
		Format:   openai.AudioResponseFormatVerboseJSON,
	}
	resp, err := rt.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, convertError(err)
	}

	segments := make([]provider.TranscriptionSegment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, provider.TranscriptionSegment{
			ID:    s.ID,
			Text:  s.Text,
			Start: s.Start,
			End:   s.End,
		})
	}

	return &provider.TranscriptionResponse{
		Text:           resp.Text,
		Language:       resp.Language,
		Duration:       resp.Duration,
		Segments:       segments,
		ProcessingTime: time.Since(startTime),
		ModelUsed:      model,
	}, nil
}

func (rt *RemoteTranscriber) ValidateConfiguration() error {
	if rt.apiKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}
	return nil
}

func toWhisperLanguage(code string) string {
	if len(code) == 2 {
		return code
	}
	return languageCodes[code]
}

func convertError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &provider.TranscriptionError{
			Code:       fmt.Sprintf("api_error_%d", apiErr.HTTPStatusCode),
			Message:    apiErr.Message,
			Provider:   providerName,
			StatusCode: apiErr.HTTPStatusCode,
			Retryable:  apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &provider.TranscriptionError{
			Code:       fmt.Sprintf("request_error_%d", reqErr.HTTPStatusCode),
			Message:    reqErr.Error(),
			Provider:   providerName,
			StatusCode: reqErr.HTTPStatusCode,
			Retryable:  reqErr.HTTPStatusCode >= 500,
		}
	}
	return &provider.TranscriptionError{
		Code:      "network_error",
		Message:   fmt.Sprintf("createTranscription failed: %v", err),
		Provider:  providerName,
		Retryable: true,
	}
}
