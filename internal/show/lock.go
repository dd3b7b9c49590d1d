package show

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"sonicvoyager/internal/config"
)

// ErrAlreadyPerforming reports another process holding the performance lock.
var ErrAlreadyPerforming = errors.New("another sonicvoyager performance is already running")

// Lock is the single-instance guard held by realtime performances.
type Lock struct {
	path string
	fl   *flock.Flock
}

// AcquireLock takes the performance lock without blocking.
func AcquireLock(cfg *config.Config) (*Lock, error) {
	path := cfg.LockPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrAlreadyPerforming, path)
	}
	return &Lock{path: path, fl: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release drops the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}

// Locked reports whether another process currently holds the lock at path.
func Locked(cfg *config.Config) (bool, error) {
	path := cfg.LockPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return false, err
	}
	if ok {
		_ = fl.Unlock()
	}
	return !ok, nil
}
