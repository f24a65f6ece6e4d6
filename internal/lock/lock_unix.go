//go:build unix

package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Acquire takes an exclusive, non-blocking advisory lock on a storage device
// directory so that only one process can have it mounted.
//
// On Unix systems, this uses flock(2) on a file named FileName inside the
// directory. flock locks belong to the open file description, so a second
// Acquire on the same directory fails even from within the same process.
//
// The returned file handle must remain open for the duration of the lock.
func Acquire(dir string) (*os.File, error) {
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("unable to open lock file: %w", err)
	}

	err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", dir, ErrLocked)
	}

	return f, nil
}

// Release drops a lock taken with Acquire and closes the file.
func Release(f *os.File) error {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
