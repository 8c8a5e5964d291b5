package files

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "call-transcriber/internal/app/errors"
)

func TestGetAllAudioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.wav", "b.MP3", "c.m4a", "d.aac", "notes.txt", "e.mp4"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.wav"), 0o755))

	items, err := GetAllAudioFiles(dir, SupportedAudioExtensions)
	require.NoError(t, err)

	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
		assert.Equal(t, filepath.Join(dir, item.Name), item.FullPath)
		assert.False(t, item.ModTime.IsZero())
	}
	assert.Equal(t, []string{"a.wav", "b.MP3", "c.m4a", "d.aac"}, names)
}

func TestGetAllAudioFiles_MissingDir(t *testing.T) {
	_, err := GetAllAudioFiles(filepath.Join(t.TempDir(), "missing"), SupportedAudioExtensions)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInputDirNotFound))
}

func TestGetAllAudioFiles_PathIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.wav")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := GetAllAudioFiles(path, SupportedAudioExtensions)
	assert.True(t, errors.Is(err, apperrors.ErrInputDirNotFound))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "ledger.csv")
	dst := filepath.Join(dir, "copy.csv")
	content := []byte("file_name,file_date\r\na.wav,2024-01-01\n")
	require.NoError(t, os.WriteFile(src, content, 0o644))

	require.NoError(t, CopyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// refuses to overwrite an existing snapshot
	assert.Error(t, CopyFile(src, dst))
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	assert.Equal(t, "20250102_030405_006000", Timestamp(ts))
	assert.NotEqual(t, Timestamp(ts), Timestamp(ts.Add(time.Microsecond)))
}

func TestFileStem(t *testing.T) {
	assert.Equal(t, "call_transcriptions", FileStem("/data/call_transcriptions.csv"))
	assert.Equal(t, "ledger", FileStem("ledger"))
}
