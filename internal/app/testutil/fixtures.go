package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"call-transcriber/internal/app/ledger"
	"call-transcriber/internal/app/model"
)

// FixtureTime is the modification time given to audio fixtures.
var FixtureTime = time.Date(2024, 3, 14, 10, 30, 0, 0, time.Local)

// WriteAudioFixtures creates dir with one small file per name, all stamped
// with FixtureTime.
func WriteAudioFixtures(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("RIFF fake audio"), 0o644))
		require.NoError(t, os.Chtimes(path, FixtureTime, FixtureTime))
		paths = append(paths, path)
	}
	return paths
}

// WriteLedger writes records to path in ledger format.
func WriteLedger(t *testing.T, path string, records ...model.TranscriptionRecord) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, ledger.WriteRecords(f, records))
}

// ReadLedger reads every record from path.
func ReadLedger(t *testing.T, path string) []model.TranscriptionRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := ledger.ReadRecords(f)
	require.NoError(t, err)
	return records
}

// RecordNames returns the file names of records in order.
func RecordNames(records []model.TranscriptionRecord) []string {
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.FileName)
	}
	return names
}
