//go:build windows

package lock

import (
	"fmt"
	"os"
	"path/filepath"
)

// Acquire takes an exclusive lock on a storage device directory.
//
// On Windows, this is implemented by atomically creating FileName inside the
// directory. If the file already exists, the device is assumed to be mounted
// by another process.
//
// The returned file handle must be kept open for the duration of the lock.
func Acquire(dir string) (*os.File, error) {
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, ErrLocked)
	}

	return f, nil
}

// Release removes the lock file. It should be called exactly once for each
// successful Acquire.
func Release(f *os.File) error {
	name := f.Name()
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}
