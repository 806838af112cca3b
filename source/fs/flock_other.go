//go:build !unix

package fs

// fileLock is a no-op where flock is unavailable.
func fileLock(int) (unlock func(), err error) {
	return func() {}, nil
}
