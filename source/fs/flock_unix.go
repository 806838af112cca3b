//go:build unix

package fs

import (
	"errors"
	"syscall"
)

// fileLock takes an exclusive flock on fd. Filesystems without lock
// support (NFS, SMB) are written to unlocked.
func fileLock(fd int) (unlock func(), err error) {
	if err := syscall.Flock(fd, syscall.LOCK_EX); err != nil {
		if errors.Is(err, syscall.ENOTSUP) || errors.Is(err, syscall.EOPNOTSUPP) || errors.Is(err, syscall.ENOLCK) {
			return func() {}, nil
		}
		return nil, err
	}
	return func() { _ = syscall.Flock(fd, syscall.LOCK_UN) }, nil
}
