package model

import (
	"fmt"
	"strings"
)

// ErrorSentinel prefixes the transcription text of failed attempts.
const ErrorSentinel = "ERROR:"

// DateLayout is the layout of the file_date column.
const DateLayout = "2006-01-02"

// LedgerHeader is the column order of the ledger CSV.
var LedgerHeader = []string{"file_name", "file_date", "duration_seconds", "transcription", "speaker_count"}

// TranscriptionRecord is one row of the ledger, keyed by FileName.
type TranscriptionRecord struct {
	FileName        string
	FileDate        string
	DurationSeconds float64
	Transcription   string
	SpeakerCount    int
}

// NewFailureRecord builds the record stored for a file whose transcription failed.
func NewFailureRecord(item WorkItem, cause error) TranscriptionRecord {
	return TranscriptionRecord{
		FileName:        item.Name,
		FileDate:        item.FileDate(),
		DurationSeconds: 0,
		Transcription:   fmt.Sprintf("%s %v", ErrorSentinel, cause),
		SpeakerCount:    0,
	}
}

// Failed reports whether the record describes a failed attempt.
func (r TranscriptionRecord) Failed() bool {
	return strings.HasPrefix(r.Transcription, ErrorSentinel)
}
