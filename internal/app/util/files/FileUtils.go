package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "call-transcriber/internal/app/errors"
	"call-transcriber/internal/app/model"
)

// SupportedAudioExtensions lists the extensions picked up from the input folder.
var SupportedAudioExtensions = []string{".aac", ".mp3", ".wav", ".m4a"}

// GetAllAudioFiles lists the files of inputDir whose extension is one of exts,
// in directory enumeration order. Subdirectories are not visited.
func GetAllAudioFiles(inputDir string, exts []string) ([]model.WorkItem, error) {
	info, err := os.Stat(inputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Mark(err, apperrors.ErrInputDirNotFound)
		}
		return nil, apperrors.Wrapf(err, "failed to stat input folder %s", inputDir)
	}
	if !info.IsDir() {
		return nil, apperrors.Mark(fmt.Errorf("%s is not a directory", inputDir), apperrors.ErrInputDirNotFound)
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to read input folder %s", inputDir)
	}

	var items []model.WorkItem
	for _, entry := range entries {
		if entry.IsDir() || !hasExtension(entry.Name(), exts) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		items = append(items, model.WorkItem{
			FullPath: filepath.Join(inputDir, entry.Name()),
			ModTime:  fi.ModTime(),
			Name:     entry.Name(),
		})
	}
	return items, nil
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// EnsureDir creates dir and its parents if they do not exist.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// CopyFile copies src to dst byte for byte and syncs dst before returning.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Timestamp formats t for use in file names, with microseconds so that
// consecutive calls within one second produce distinct names.
func Timestamp(t time.Time) string {
	return fmt.Sprintf("%s_%06d", t.Format("20060102_150405"), t.Nanosecond()/int(time.Microsecond))
}

// FileStem returns the base name of path without its extension.
func FileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
