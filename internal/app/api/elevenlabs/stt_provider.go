package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"call-transcriber/internal/app/api/provider"
)

const (
	providerName   = "elevenlabs"
	defaultBaseURL = "https://api.elevenlabs.io/v1"
	defaultModel   = "scribe_v1"
	maxFileSize    = 1 << 30
)

// ElevenLabsSTTProvider calls the ElevenLabs Speech-to-Text API
type ElevenLabsSTTProvider struct {
	config ElevenLabsConfig
	client *http.Client
}

// ElevenLabsConfig represents configuration for ElevenLabs STT provider
type ElevenLabsConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// ElevenLabsResponse represents the response from ElevenLabs STT API
type ElevenLabsResponse struct {
	LanguageCode        string  `json:"language_code"`
	LanguageProbability float64 `json:"language_probability"`
	Text                string  `json:"text"`
	Words               []Word  `json:"words,omitempty"`
}

// Word is one token of the response; spacing and audio events are words too
type Word struct {
	Text      string  `json:"text"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Type      string  `json:"type"`
	SpeakerID string  `json:"speaker_id,omitempty"`
}

type apiErrorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// NewElevenLabsSTTProvider creates a new ElevenLabs STT provider
func NewElevenLabsSTTProvider(config ElevenLabsConfig) *ElevenLabsSTTProvider {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Model == "" {
		config.Model = defaultModel
	}

	// a zero Timeout leaves the call unbounded
	client := &http.Client{
		Timeout: config.Timeout,
	}

	return &ElevenLabsSTTProvider{
		config: config,
		client: client,
	}
}

func (el *ElevenLabsSTTProvider) Name() string {
	return providerName
}

// TranscriptWithOptions uploads the file and returns the transcript with the
// speaker labels of every word when diarization was requested.
func (el *ElevenLabsSTTProvider) TranscriptWithOptions(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	startTime := time.Now()

	if request.InputFilePath == "" {
		return nil, &provider.TranscriptionError{
			Code:     "invalid_input",
			Message:  "input file path is required",
			Provider: providerName,
		}
	}

	fileInfo, err := os.Stat(request.InputFilePath)
	if err != nil {
		return nil, &provider.TranscriptionError{
			Code:     "file_not_found",
			Message:  fmt.Sprintf("input file not accessible: %v", err),
			Provider: providerName,
		}
	}
	if fileInfo.Size() > maxFileSize {
		return nil, &provider.TranscriptionError{
			Code:        "file_too_large",
			Message:     "file size exceeds 1GB limit",
			Provider:    providerName,
			Suggestions: []string{"Split the recording into smaller parts"},
		}
	}

	httpReq, err := el.createHTTPRequest(ctx, request)
	if err != nil {
		return nil, err
	}

	resp, err := el.client.Do(httpReq)
	if err != nil {
		return nil, &provider.TranscriptionError{
			Code:      "network_error",
			Message:   fmt.Sprintf("failed to call ElevenLabs API: %v", err),
			Provider:  providerName,
			Retryable: true,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, el.handleHTTPError(resp)
	}

	var body ElevenLabsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &provider.TranscriptionError{
			Code:     "response_parse_error",
			Message:  fmt.Sprintf("failed to parse API response: %v", err),
			Provider: providerName,
		}
	}

	return &provider.TranscriptionResponse{
		Text:           body.Text,
		Language:       body.LanguageCode,
		Words:          convertWords(body.Words),
		ProcessingTime: time.Since(startTime),
		ModelUsed:      el.getModel(request),
	}, nil
}

func (el *ElevenLabsSTTProvider) createHTTPRequest(ctx context.Context, request *provider.TranscriptionRequest) (*http.Request, error) {
	file, err := os.Open(request.InputFilePath)
	if err != nil {
		return nil, &provider.TranscriptionError{
			Code:     "file_open_error",
			Message:  fmt.Sprintf("failed to open audio file: %v", err),
			Provider: providerName,
		}
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(request.InputFilePath))
	if err != nil {
		return nil, formError(err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, &provider.TranscriptionError{
			Code:     "file_copy_error",
			Message:  fmt.Sprintf("failed to read audio file: %v", err),
			Provider: providerName,
		}
	}

	fields := [][2]string{
		{"model_id", el.getModel(request)},
		{"diarize", strconv.FormatBool(request.Diarize)},
		{"tag_audio_events", strconv.FormatBool(request.TagAudioEvents)},
	}
	if request.Language != "" {
		fields = append(fields, [2]string{"language_code", request.Language})
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, formError(err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, formError(err)
	}

	url := fmt.Sprintf("%s/speech-to-text", el.config.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, &provider.TranscriptionError{
			Code:     "request_creation_error",
			Message:  fmt.Sprintf("failed to create HTTP request: %v", err),
			Provider: providerName,
		}
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("xi-api-key", el.config.APIKey)
	req.Header.Set("User-Agent", "call-transcriber/1.0")

	return req, nil
}

func formError(err error) error {
	return &provider.TranscriptionError{
		Code:     "form_creation_error",
		Message:  fmt.Sprintf("failed to build multipart form: %v", err),
		Provider: providerName,
	}
}

// handleHTTPError handles HTTP error responses
func (el *ElevenLabsSTTProvider) handleHTTPError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	detail := string(bytes.TrimSpace(raw))
	var parsed apiErrorBody
	if json.Unmarshal(raw, &parsed) == nil && len(parsed.Detail) > 0 {
		detail = string(parsed.Detail)
	}

	e := &provider.TranscriptionError{
		Provider:   providerName,
		StatusCode: resp.StatusCode,
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		e.Code = "authentication_failed"
		e.Message = "ElevenLabs API key is invalid or missing"
		e.Suggestions = []string{"Check your ELEVENLABS_API_KEY environment variable"}
	case resp.StatusCode == http.StatusTooManyRequests:
		e.Code = "rate_limit_exceeded"
		e.Message = "ElevenLabs API rate limit exceeded"
		e.Retryable = true
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		e.Code = "file_too_large"
		e.Message = "audio file is too large"
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		e.Code = "invalid_request"
		e.Message = fmt.Sprintf("invalid request (HTTP %d): %s", resp.StatusCode, detail)
	case resp.StatusCode >= 500:
		e.Code = "server_error"
		e.Message = fmt.Sprintf("ElevenLabs server error (HTTP %d)", resp.StatusCode)
		e.Retryable = true
	default:
		e.Code = "unknown_error"
		e.Message = fmt.Sprintf("unexpected HTTP status %d: %s", resp.StatusCode, detail)
	}
	return e
}

func (el *ElevenLabsSTTProvider) getModel(request *provider.TranscriptionRequest) string {
	if request.Model != "" {
		return request.Model
	}
	return el.config.Model
}

func convertWords(words []Word) []provider.TranscriptionWord {
	if len(words) == 0 {
		return nil
	}
	out := make([]provider.TranscriptionWord, len(words))
	for i, w := range words {
		out[i] = provider.TranscriptionWord{
			Word:    w.Text,
			Start:   w.Start,
			End:     w.End,
			Speaker: w.SpeakerID,
		}
	}
	return out
}

// ValidateConfiguration validates the provider configuration
func (el *ElevenLabsSTTProvider) ValidateConfiguration() error {
	if el.config.APIKey == "" {
		return fmt.Errorf("ElevenLabs API key is required")
	}
	if el.config.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if el.config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}
