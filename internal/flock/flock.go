// Package flock provides exclusive file locks shared between processes.
//
// Locks are advisory flock(2) locks on the data file itself. The kernel (or,
// for NFS and SMB mounts, the file server) arbitrates them, so they exclude
// writers in other processes and on other machines. Two handles opened by
// the same process also exclude each other.
package flock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/raphi011/bsw/internal/failure"
)

// ErrLocked is returned by TryLock when another handle holds the lock.
var ErrLocked = errors.New("file is locked by another writer")

// FileLock is an exclusive lock on one file.
type FileLock struct {
	path string
	file *os.File
}

// New creates a lock for path. The file and its parent directory are
// created on first lock if missing.
func New(path string) *FileLock {
	return &FileLock{path: path}
}

func (l *FileLock) open() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	l.file = f
	return nil
}

// Lock acquires the lock, blocking until it is free.
func (l *FileLock) Lock() error {
	return l.acquire(unix.LOCK_EX)
}

// TryLock acquires the lock without waiting. Returns an error wrapping
// ErrLocked, classified as failure.LockConflict, if it is held elsewhere.
func (l *FileLock) TryLock() error {
	return l.acquire(unix.LOCK_EX | unix.LOCK_NB)
}

func (l *FileLock) acquire(how int) error {
	if l.file != nil {
		return fmt.Errorf("lock %s already held by this handle", l.path)
	}
	if err := l.open(); err != nil {
		return err
	}

	if err := unix.Flock(int(l.file.Fd()), how); err != nil {
		l.file.Close()
		l.file = nil
		if errors.Is(err, unix.EWOULDBLOCK) {
			return failure.New(failure.LockConflict, "lock "+l.path, ErrLocked)
		}
		return err
	}
	return nil
}

// File returns the locked file handle, or nil when not locked.
// Reads and writes through it happen under the lock.
func (l *FileLock) File() *os.File {
	return l.file
}

// Unlock releases the lock and closes the file. Safe to call when not locked.
func (l *FileLock) Unlock() error {
	if l.file == nil {
		return nil
	}

	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	l.file = nil
	return err
}

// WithExclusive runs fn while holding the lock on path, without waiting for
// it. The lock is released on every return path, including a panic in fn.
func WithExclusive(path string, fn func(f *os.File) error) (err error) {
	l := New(path)
	if err := l.TryLock(); err != nil {
		return err
	}
	defer func() {
		if uerr := l.Unlock(); err == nil && uerr != nil {
			err = uerr
		}
	}()
	return fn(l.File())
}
