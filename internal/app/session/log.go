// Package session writes the human readable record of one transcription run:
// the session log with per-file outcomes and summaries, and the emergency log
// left behind when a run dies.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const clockLayout = "2006-01-02 15:04:05"

// NewID returns the identifier used in the names of every file a run creates.
func NewID(now time.Time) string {
	return now.Format("20060102_150405")
}

// Log appends to the session log file. Each write opens the file in append
// mode so that everything written survives an abrupt exit. A nil *Log
// discards everything.
type Log struct {
	path   string
	logger *zap.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// Create starts a new session log named after id inside dir.
func Create(dir, id string, logger *zap.Logger) (*Log, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("transcription_session_%s.log", id))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return &Log{path: path, logger: logger, now: time.Now}, nil
}

func (l *Log) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func (l *Log) Started(total, batches, batchSize int) {
	if l == nil {
		return
	}
	l.write(fmt.Sprintf("Session started at %s\nFiles to transcribe: %d\nTotal batches: %d (batch size: %d)\n\n",
		l.now().Format(clockLayout), total, batches, batchSize))
}

func (l *Log) FileSucceeded(name string) {
	l.write(fmt.Sprintf("SUCCESS: %s\n", name))
}

func (l *Log) FileFailed(name, detail string) {
	l.write(fmt.Sprintf("FAILED: %s - %s\n", name, detail))
}

func (l *Log) ProgressUpdate(lines ...string) {
	if l == nil {
		return
	}
	l.write(block(fmt.Sprintf("\n--- PROGRESS UPDATE %s ---\n", l.now().Format(clockLayout)), lines))
}

func (l *Log) Checkpoint(interrupted bool, lines ...string) {
	if l == nil {
		return
	}
	if interrupted {
		lines = append(lines, "PROCESS INTERRUPTED BY USER - PARTIAL COMPLETION")
	}
	l.write(block(fmt.Sprintf("\n=== CHECKPOINT %s ===\n", l.now().Format(clockLayout)), lines))
}

func (l *Log) BatchSummary(batch, successful, failed int) {
	l.write(fmt.Sprintf("\nBatch %d summary: %d successful, %d failed\n\n", batch, successful, failed))
}

func (l *Log) FinalSummary(lines ...string) {
	if l == nil {
		return
	}
	header := fmt.Sprintf("\n=== FINAL SUMMARY ===\nSession completed at %s\n", l.now().Format(clockLayout))
	l.write(block(header, lines))
}

func (l *Log) write(text string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		l.logger.Warn("failed to open session log", zap.String("path", l.path), zap.Error(err))
		return
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		l.logger.Warn("failed to write session log", zap.String("path", l.path), zap.Error(err))
	}
}

func block(header string, lines []string) string {
	var b strings.Builder
	b.WriteString(header)
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteEmergency records a fatal error together with the run counters so an
// operator can tell how far the run got.
func WriteEmergency(dir, id string, at time.Time, cause error, lines ...string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("emergency_log_%s.txt", id))
	header := fmt.Sprintf("EMERGENCY LOG - CRITICAL ERROR at %s\nError: %v\n", at.Format(clockLayout), cause)
	if err := os.WriteFile(path, []byte(block(header, lines)), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
