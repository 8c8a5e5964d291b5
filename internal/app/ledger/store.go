package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	apperrors "call-transcriber/internal/app/errors"
	"call-transcriber/internal/app/model"
	"call-transcriber/internal/app/util/files"
)

const (
	backupDirName   = "backups"
	tempSuffix      = ".temp"
	emergencyPrefix = "new_transcriptions_"
)

// Store reads and writes the CSV ledger of transcription attempts.
//
// Every mutation of an existing ledger is preceded by a verbatim copy into the
// sibling backups directory, and the new table replaces the old one through a
// rename so readers never see a half-written file.
type Store struct {
	logger          *zap.Logger
	emergencyDir    string
	excludeFailures bool
	now             func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithEmergencyDir sets where unmerged records are written when a merge fails.
func WithEmergencyDir(dir string) Option {
	return func(s *Store) {
		s.emergencyDir = dir
	}
}

// WithExcludeFailures makes LoadKnownKeys ignore rows of failed attempts so
// that those files are selected again.
func WithExcludeFailures(exclude bool) Option {
	return func(s *Store) {
		s.excludeFailures = exclude
	}
}

// WithClock overrides the time source used for backup and side file names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		logger:       logger,
		emergencyDir: ".",
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// BackupDir returns the directory holding snapshots of the ledger at path.
func BackupDir(path string) string {
	return filepath.Join(filepath.Dir(path), backupDirName)
}

// Load reads every record of the ledger at path. A missing ledger is not an
// error and yields no records.
func (s *Store) Load(path string) ([]model.TranscriptionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Mark(err, apperrors.ErrLedgerRead)
	}
	defer f.Close()

	records, err := ReadRecords(bufio.NewReader(f))
	if err != nil {
		return nil, apperrors.Mark(fmt.Errorf("%s: %w", path, err), apperrors.ErrLedgerRead)
	}
	return records, nil
}

// LoadKnownKeys returns the file names already present in the ledger. An
// existing but unreadable ledger is logged and treated as empty so the run can
// go on; the error is returned for callers that want to report it.
func (s *Store) LoadKnownKeys(path string) (map[string]struct{}, error) {
	known := make(map[string]struct{})

	if !files.Exists(path) {
		s.logger.Info("no existing transcriptions file", zap.String("path", path))
		return known, nil
	}

	records, err := s.Load(path)
	if err != nil {
		s.logger.Error("error reading existing ledger, treating it as empty",
			zap.String("path", path), zap.Error(err))
		return known, err
	}

	for _, r := range records {
		if s.excludeFailures && r.Failed() {
			continue
		}
		known[r.FileName] = struct{}{}
	}
	s.logger.Info("found already transcribed files",
		zap.Int("count", len(known)), zap.Int("rows", len(records)))
	return known, nil
}

// MergeAndPersist merges records into the ledger at path, new rows winning
// over existing rows with the same file name. It reports whether the ledger
// now holds the records. When the merge fails after a backup was taken the
// records are written to an emergency side file instead.
func (s *Store) MergeAndPersist(path string, records []model.TranscriptionRecord) bool {
	stamp := files.Timestamp(s.now())
	exists := files.Exists(path)

	if exists {
		backupPath, err := s.backup(path, stamp)
		if err != nil {
			s.logger.Error("failed to create backup of existing ledger, not modifying it",
				zap.String("path", path), zap.Error(err))
			return false
		}
		s.logger.Info("created backup of existing data", zap.String("backup", backupPath))
	}

	combined, err := s.merge(path, exists, records)
	if err == nil {
		err = s.replace(path, combined)
	}
	if err != nil {
		s.logger.Error("error saving transcriptions to ledger",
			zap.String("path", path), zap.Error(err))
		s.writeEmergency(records, stamp)
		return false
	}

	s.logger.Info("saved transcriptions",
		zap.Int("new", len(records)), zap.Int("total", len(combined)))
	return true
}

// WriteSideFile writes records as a standalone ledger table at path.
func (s *Store) WriteSideFile(path string, records []model.TranscriptionRecord) error {
	if err := files.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := WriteRecords(w, records); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *Store) backup(path, stamp string) (string, error) {
	dir := BackupDir(path)
	if err := files.EnsureDir(dir); err != nil {
		return "", apperrors.Mark(err, apperrors.ErrBackupFailed)
	}
	backupPath := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", files.FileStem(path), stamp))
	if err := files.CopyFile(path, backupPath); err != nil {
		return "", apperrors.Mark(err, apperrors.ErrBackupFailed)
	}
	return backupPath, nil
}

func (s *Store) merge(path string, exists bool, records []model.TranscriptionRecord) ([]model.TranscriptionRecord, error) {
	incoming := keepLast(records)
	if !exists {
		return incoming, nil
	}

	existing, err := s.Load(path)
	if err != nil {
		return nil, err
	}
	existing = keepLast(existing)

	newNames := lo.SliceToMap(incoming, func(r model.TranscriptionRecord) (string, struct{}) {
		return r.FileName, struct{}{}
	})
	duplicates := lo.FilterMap(existing, func(r model.TranscriptionRecord, _ int) (string, bool) {
		_, dup := newNames[r.FileName]
		return r.FileName, dup
	})
	if len(duplicates) > 0 {
		s.logger.Warn("found duplicate files, using new transcriptions for these files",
			zap.Int("count", len(duplicates)), zap.Strings("files", duplicates))
		existing = lo.Reject(existing, func(r model.TranscriptionRecord, _ int) bool {
			_, dup := newNames[r.FileName]
			return dup
		})
	}

	combined := make([]model.TranscriptionRecord, 0, len(existing)+len(incoming))
	combined = append(combined, existing...)
	combined = append(combined, incoming...)
	return combined, nil
}

func (s *Store) replace(path string, records []model.TranscriptionRecord) error {
	tmp := path + tempSuffix

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return apperrors.Mark(err, apperrors.ErrLedgerWrite)
	}
	w := bufio.NewWriter(f)
	err = WriteRecords(w, records)
	if err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return apperrors.Mark(err, apperrors.ErrLedgerWrite)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apperrors.Mark(err, apperrors.ErrLedgerWrite)
	}
	return nil
}

func (s *Store) writeEmergency(records []model.TranscriptionRecord, stamp string) {
	name := fmt.Sprintf("%s%s_%s.csv", emergencyPrefix, stamp, uuid.NewString()[:8])
	path := filepath.Join(s.emergencyDir, name)
	if err := s.WriteSideFile(path, records); err != nil {
		s.logger.Error("failed to create emergency backup of new transcriptions",
			zap.String("path", path), zap.Error(err))
		return
	}
	s.logger.Info("created emergency backup of new transcriptions", zap.String("path", path))
}

// keepLast drops every record whose file name occurs again later in the slice.
func keepLast(records []model.TranscriptionRecord) []model.TranscriptionRecord {
	last := make(map[string]int, len(records))
	for i, r := range records {
		last[r.FileName] = i
	}
	if len(last) == len(records) {
		return records
	}
	return lo.Filter(records, func(r model.TranscriptionRecord, i int) bool {
		return last[r.FileName] == i
	})
}
