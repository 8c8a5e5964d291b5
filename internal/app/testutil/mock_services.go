package testutil

import (
	"context"
	"path/filepath"
	"sync"
)

// MockProber implements audio.Prober with per-file durations keyed by base
// name.
type MockProber struct {
	mu              sync.Mutex
	DefaultDuration float64
	Durations       map[string]float64
	Errors          map[string]error
}

func NewMockProber(defaultDuration float64) *MockProber {
	return &MockProber{
		DefaultDuration: defaultDuration,
		Durations:       make(map[string]float64),
		Errors:          make(map[string]error),
	}
}

func (p *MockProber) Duration(_ context.Context, path string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	name := filepath.Base(path)
	if err, ok := p.Errors[name]; ok {
		return 0, err
	}
	if d, ok := p.Durations[name]; ok {
		return d, nil
	}
	return p.DefaultDuration, nil
}

// CancelFlag is a Canceller that tests flip directly.
type CancelFlag struct {
	mu        sync.Mutex
	cancelled bool
}

func (c *CancelFlag) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled = true
}

func (c *CancelFlag) Cancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}
