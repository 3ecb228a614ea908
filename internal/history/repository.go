package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/drew/flakewatch/internal/model"
)

// lockRetryDelay is how often a held lock is polled
const lockRetryDelay = 100 * time.Millisecond

// Repository persists the history store
type Repository interface {
	// Load reads the store. A missing or unreadable history yields an empty store.
	Load() (*Store, error)
	// Save overwrites the persisted history with s.
	Save(s *Store) error
	// Update runs fn on the current store and persists the result as one atomic
	// read-modify-write.
	Update(ctx context.Context, fn func(*Store) error) error
}

// FileRepository stores history as a JSON file guarded by an advisory lock file
type FileRepository struct {
	path        string
	lockTimeout time.Duration
	log         logrus.FieldLogger
}

// NewFileRepository returns a repository for the history file at path.
// A lockTimeout of zero waits for the lock until ctx is done.
func NewFileRepository(path string, lockTimeout time.Duration, logger logrus.FieldLogger) *FileRepository {
	return &FileRepository{
		path:        path,
		lockTimeout: lockTimeout,
		log:         logger,
	}
}

// Path returns the history file location
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the history file; missing and corrupt files both start a fresh store
func (r *FileRepository) Load() (*Store, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.log.WithField("path", r.path).Debug("no test history yet, starting fresh")
			return NewStore(), nil
		}
		r.log.WithError(err).WithField("path", r.path).Warn("could not read test history, starting fresh")
		return NewStore(), nil
	}

	var doc model.HistoryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		r.log.WithError(err).WithField("path", r.path).Warn("test history is corrupt, starting fresh")
		return NewStore(), nil
	}
	return FromDocument(doc), nil
}

// Save writes the store to a temp file next to the history file and renames it
// into place
func (r *FileRepository) Save(s *Store) (err error) {
	data, err := json.MarshalIndent(s.Document(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode test history: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write test history: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp history file: %w", err)
	}
	if err = os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace test history: %w", err)
	}
	return nil
}

// Update holds the lock file for the whole load, fn, save sequence
func (r *FileRepository) Update(ctx context.Context, fn func(*Store) error) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	lock := flock.New(r.path + ".lock")

	lockCtx := ctx
	if r.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, r.lockTimeout)
		defer cancel()
	}

	locked, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire history lock %s: %w", lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("history lock %s is held by another process", lock.Path())
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			r.log.Warnf("failed to release history lock: %v", unlockErr)
		}
	}()

	store, err := r.Load()
	if err != nil {
		return err
	}
	if err := fn(store); err != nil {
		return err
	}
	return r.Save(store)
}
