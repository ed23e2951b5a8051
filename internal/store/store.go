// Package store persists the user's state: the settings record and the
// model cache snapshot, saved together in one JSON document under the
// user's home directory.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/mwkelly/redraft/internal/config"
	"github.com/mwkelly/redraft/internal/modelcache"
)

// Record is the persisted document. Settings and the model cache are
// saved together so a single load restores the whole host state.
type Record struct {
	Settings   config.Settings     `json:"settings"`
	ModelCache modelcache.Snapshot `json:"model_cache"`
}

// DefaultRecord returns the state of a first run: default settings and
// an empty model cache.
func DefaultRecord() Record {
	return Record{Settings: config.DefaultSettings()}
}

// FileStore reads and writes the record at a fixed path. Writes are
// atomic (temp file plus rename) and serialized across processes with
// a sidecar lock file, so two invocations saving at once cannot
// interleave.
type FileStore struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// NewFileStore creates a store for path. A nil logger discards logs.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FileStore{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}
}

// Path returns the data file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the record. A missing file means a first run and yields
// the default record; any other failure is an error.
func (s *FileStore) Load() (Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("data file absent, using defaults", "path", s.path)
		return DefaultRecord(), nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("reading %s: %w", s.path, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decoding %s: %w", s.path, err)
	}
	return rec, nil
}

// Save writes the record atomically, creating the parent directory on
// first use. The file is readable by the owner only: it holds the API
// key.
func (s *FileStore) Save(rec Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("locking %s: %w", s.path, err)
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}

	s.logger.Debug("data file saved", "path", s.path, "bytes", len(data))
	return nil
}
