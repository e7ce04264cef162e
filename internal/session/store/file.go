package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore keeps the session record in a single file on disk, the moral
// equivalent of the browser's local storage slot for a local process.
type FileStore struct {
	path string
	log  *slog.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed Store writing to path.
func NewFileStore(path string, log *slog.Logger) *FileStore {
	if log == nil {
		log = slog.Default()
	}

	return &FileStore{
		path: path,
		log:  log,
	}
}

// Read returns the stored record or ErrNoSession when the file is absent.
func (s *FileStore) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSession
		}

		s.log.Error("failed to read session file", slog.String("path", s.path), slog.Any("error", err))
		return nil, fmt.Errorf("read session file: %w", err)
	}

	return data, nil
}

// Write replaces the stored record. The record is written to a temporary
// file and renamed into place so a crash never leaves a half-written slot.
func (s *FileStore) Write(_ context.Context, record []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}

	tmpName := tmp.Name()
	if _, err := tmp.Write(record); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write session record: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp session file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		s.log.Error("failed to replace session file", slog.String("path", s.path), slog.Any("error", err))
		return fmt.Errorf("replace session file: %w", err)
	}

	return nil
}

// Delete removes the record file, treating an already absent file as success.
func (s *FileStore) Delete(_ context.Context) error {
	if err := os.Remove(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		s.log.Error("failed to delete session file", slog.String("path", s.path), slog.Any("error", err))
		return fmt.Errorf("delete session file: %w", err)
	}

	return nil
}

// HealthCheck verifies that the slot directory is writable.
func (s *FileStore) HealthCheck(_ context.Context) error {
	dir := filepath.Dir(s.path)
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("session dir not writable: %w", err)
	}

	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}
