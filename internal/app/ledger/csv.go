package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"call-transcriber/internal/app/model"
)

// columnAliases maps header names written by older versions of the tool.
var columnAliases = map[string]string{
	"speakers": "speaker_count",
}

// WriteRecords writes the ledger header followed by one row per record.
func WriteRecords(w io.Writer, records []model.TranscriptionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.LedgerHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.FileName,
			r.FileDate,
			strconv.FormatFloat(r.DurationSeconds, 'f', -1, 64),
			r.Transcription,
			strconv.Itoa(r.SpeakerCount),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRecords parses a ledger table. Columns are located by header name, so
// column order and unknown extra columns do not matter. An empty input yields
// no records.
func ReadRecords(r io.Reader) ([]model.TranscriptionRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	if _, ok := index["file_name"]; !ok {
		return nil, fmt.Errorf("missing file_name column in header %v", header)
	}

	var records []model.TranscriptionRecord
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		record, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("parse row %d: %w", line, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func parseRow(row []string, index map[string]int) (model.TranscriptionRecord, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	record := model.TranscriptionRecord{
		FileName:      field("file_name"),
		FileDate:      field("file_date"),
		Transcription: field("transcription"),
	}
	if v := strings.TrimSpace(field("duration_seconds")); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return record, fmt.Errorf("duration_seconds %q: %w", v, err)
		}
		if !finiteNonNegative(d) {
			return record, fmt.Errorf("duration_seconds %q: must be a finite non-negative number", v)
		}
		record.DurationSeconds = d
	}
	if v := strings.TrimSpace(field("speaker_count")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			// pandas writes integer columns holding NaN as floats
			f, ferr := strconv.ParseFloat(v, 64)
			if ferr != nil {
				return record, fmt.Errorf("speaker_count %q: %w", v, err)
			}
			if !finiteNonNegative(f) || f != math.Trunc(f) || f > math.MaxInt32 {
				return record, fmt.Errorf("speaker_count %q: must be a non-negative whole number", v)
			}
			n = int(f)
		}
		if n < 0 {
			return record, fmt.Errorf("speaker_count %q: must not be negative", v)
		}
		record.SpeakerCount = n
	}
	return record, nil
}

func finiteNonNegative(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}
