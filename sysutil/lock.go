//go:build !windows

// Package sysutil holds small OS-facing helpers shared by the repository and
// filesystem-adapter packages.
package sysutil

import (
	"os"

	"golang.org/x/sys/unix"
)

// RepoLock is an advisory flock(2)-based lock on a repository root directory.
// The object store itself is treated as read-only and immutable, but a
// repository directory may still be concurrently rewritten by the sync
// client that owns it; holding a shared lock for the duration of a scan or
// mount at least keeps this reader's view from racing an exclusive writer in
// the same process tree.
type RepoLock struct {
	fd       int
	blocking bool
}

// NewRepoLock wraps the given open repository-root directory handle.
func NewRepoLock(f *os.File) *RepoLock {
	return &RepoLock{fd: int(f.Fd())}
}

// SetBlocking controls whether Lock waits for a conflicting lock to clear.
// Defaults to false (fail fast with EWOULDBLOCK).
func (l *RepoLock) SetBlocking(blocking bool) {
	l.blocking = blocking
}

// Lock acquires the shared (read) lock.
func (l *RepoLock) Lock() error {
	opt := unix.LOCK_SH
	if !l.blocking {
		opt |= unix.LOCK_NB
	}

	return unix.Flock(l.fd, opt)
}

// Unlock releases the lock held by this process.
func (l *RepoLock) Unlock() error {
	return unix.Flock(l.fd, unix.LOCK_UN)
}
