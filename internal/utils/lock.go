package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockFileSuffix = ".lock"
)

// DBLock manages a file-based lock for the snapshot database.
type DBLock struct {
	lock *flock.Flock
	path string
}

// NewDBLock creates a new lock for the given database path.
func NewDBLock(dbPath string) (*DBLock, error) {
	absPath, err := GetAbsDBPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute db path: %w", err)
	}
	lockPath := absPath + lockFileSuffix
	return &DBLock{
		lock: flock.New(lockPath),
		path: lockPath,
	}, nil
}

// lockRetry is how often a waiting LockContext polls the lock file.
const lockRetry = 250 * time.Millisecond

// Lock acquires the database lock, waiting if another process holds it.
func (l *DBLock) Lock() error {
	return l.LockContext(context.Background())
}

// LockContext acquires the database lock, waiting until it is free or ctx
// is done.
func (l *DBLock) LockContext(ctx context.Context) error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}
	if locked {
		return nil
	}

	Log.WithField("lock", l.path).Info("Another atlasview process is writing snapshots, waiting for it to finish...")
	locked, err = l.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
	}
	if !locked {
		return fmt.Errorf("lock on %s is still held", l.path)
	}
	return nil
}

// Unlock releases the database lock.
func (l *DBLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// GetAbsDBPath resolves the database path, defaulting to the user's config
// directory. The parent directory is created if needed.
func GetAbsDBPath(dbPath string) (string, error) {
	var (
		p   string
		err error
	)
	if dbPath == "" {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", herr
		}
		p = filepath.Join(home, ".config", "atlasview", "atlasview.sqlite")
	} else if p, err = filepath.Abs(dbPath); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	return p, nil
}
