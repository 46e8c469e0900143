// Package lock keeps two termwiki servers from watching the same docs tree.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	wikierrors "github.com/Aman-CERP/termwiki/internal/errors"
)

// FileName is the lock file created in the docs root.
const FileName = ".termwiki.lock"

// ServerLock is a cross-process advisory lock on a docs directory.
type ServerLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// New returns an unlocked lock for docsRoot.
func New(docsRoot string) *ServerLock {
	p := filepath.Join(docsRoot, FileName)
	return &ServerLock{path: p, flock: flock.New(p)}
}

// Acquire takes the lock without blocking. If another process holds it the
// error carries ERR_302_ALREADY_SERVING.
func (l *ServerLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return wikierrors.New(wikierrors.ErrCodeAlreadyServing, "another termwiki server is using this docs directory", nil).
			WithDetail("path", l.path).
			WithSuggestion("stop the other server, or point --dir at a different project")
	}
	l.locked = true
	return nil
}

// Release unlocks and removes the lock file. Safe to call more than once.
func (l *ServerLock) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	_ = os.Remove(l.path)
	return nil
}

// Path returns the lock file path.
func (l *ServerLock) Path() string {
	return l.path
}

// Held reports whether this process holds the lock.
func (l *ServerLock) Held() bool {
	return l.locked
}
