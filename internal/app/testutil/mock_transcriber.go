package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"call-transcriber/internal/app/api/provider"
)

// MockTranscriber is a configurable implementation of api.Transcriber.
// Per-file behaviour is keyed by the base name of the input path.
type MockTranscriber struct {
	mock.Mock
	mu sync.Mutex

	DefaultLatency  time.Duration
	DefaultError    error
	DefaultResponse string
	DefaultSpeakers []string
	UseExpectations bool

	CallCount   int
	CallHistory []TranscriptionCall
	ErrorMap    map[string]error
	ResponseMap map[string]string
	SpeakerMap  map[string][]string
	PanicMap    map[string]any

	// OnCall runs after each call is recorded, outside the lock.
	OnCall func(fileName string)
}

// TranscriptionCall represents a single transcription call for tracking
type TranscriptionCall struct {
	FileName string
	Request  provider.TranscriptionRequest
	Time     time.Time
	Error    error
}

func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{
		DefaultResponse: "mock transcription",
		DefaultSpeakers: []string{"speaker_0"},
		ErrorMap:        make(map[string]error),
		ResponseMap:     make(map[string]string),
		SpeakerMap:      make(map[string][]string),
		PanicMap:        make(map[string]any),
	}
}

func (m *MockTranscriber) Name() string {
	return "mock"
}

// TranscriptWithOptions implements api.Transcriber.
func (m *MockTranscriber) TranscriptWithOptions(ctx context.Context, req *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	name := filepath.Base(req.InputFilePath)

	m.mu.Lock()
	m.CallCount++
	call := TranscriptionCall{FileName: name, Request: *req, Time: time.Now()}
	panicValue, shouldPanic := m.PanicMap[name]
	err, hasErr := m.ErrorMap[name]
	if !hasErr && m.DefaultError != nil {
		err, hasErr = m.DefaultError, true
	}
	text, ok := m.ResponseMap[name]
	if !ok {
		text = m.DefaultResponse
	}
	speakers, ok := m.SpeakerMap[name]
	if !ok {
		speakers = m.DefaultSpeakers
	}
	latency := m.DefaultLatency
	call.Error = err
	m.CallHistory = append(m.CallHistory, call)
	onCall := m.OnCall
	m.mu.Unlock()

	if onCall != nil {
		onCall(name)
	}
	if shouldPanic {
		panic(panicValue)
	}
	if latency > 0 {
		time.Sleep(latency)
	}

	if m.UseExpectations {
		args := m.Called(ctx, req)
		if args.Get(0) == nil {
			return nil, args.Error(1)
		}
		return args.Get(0).(*provider.TranscriptionResponse), args.Error(1)
	}
	if hasErr {
		return nil, err
	}

	resp := &provider.TranscriptionResponse{Text: text, ModelUsed: "mock"}
	for i, speaker := range speakers {
		resp.Words = append(resp.Words, provider.TranscriptionWord{
			Word:    fmt.Sprintf("w%d", i),
			Speaker: speaker,
		})
	}
	return resp, nil
}

func (m *MockTranscriber) SetErrorForFile(name string, err error) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorMap[name] = err
	return m
}

func (m *MockTranscriber) SetResponseForFile(name, text string, speakers ...string) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResponseMap[name] = text
	if len(speakers) > 0 {
		m.SpeakerMap[name] = speakers
	}
	return m
}

func (m *MockTranscriber) SetPanicForFile(name string, value any) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PanicMap[name] = value
	return m
}

func (m *MockTranscriber) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// CalledFiles returns the file names in call order.
func (m *MockTranscriber) CalledFiles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.CallHistory))
	for _, call := range m.CallHistory {
		names = append(names, call.FileName)
	}
	return names
}

func (m *MockTranscriber) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.CallHistory = nil
}
