// Package storage defines the narrow filesystem surface consumed by the
// record writer, along with the host and in-memory implementations that
// back a mount point.
package storage

import (
	"errors"
	"fmt"
	"io"
	"syscall"
)

// File is an open handle on a mounted filesystem.
type File interface {
	io.Writer
	io.Seeker
	io.Closer
}

// Filesystem opens files by path. Flags follow os.OpenFile.
type Filesystem interface {
	OpenFile(name string, flag int) (File, error)
}

// Kind selects a Filesystem implementation at mount time.
type Kind string

const (
	KindHost   Kind = "host"   // a directory on the host filesystem
	KindMemory Kind = "memory" // a volatile in-process filesystem
)

// ErrStorageExhausted reports that the filesystem could not satisfy a write
// at the requested position and size.
var ErrStorageExhausted = errors.New("no space left on storage")

// IsStorageExhausted reports whether err is a storage budget error or an
// ENOSPC from the host kernel.
func IsStorageExhausted(err error) bool {
	return errors.Is(err, ErrStorageExhausted) || errors.Is(err, syscall.ENOSPC)
}

// New builds the Filesystem for the given kind. For KindHost the device is a
// directory; for KindMemory it is only a label. A capacity of zero leaves a
// host filesystem unbounded and is rejected for memory filesystems.
func New(kind Kind, device string, capacity int64) (Filesystem, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("invalid capacity %d", capacity)
	}

	switch kind {
	case KindHost:
		return NewHostFS(device, capacity), nil
	case KindMemory:
		if capacity == 0 {
			return nil, errors.New("memory filesystem requires a capacity")
		}
		return NewMemoryFS(capacity), nil
	default:
		return nil, fmt.Errorf("unknown filesystem kind %q", kind)
	}
}
