// Package mount attaches a storage filesystem to a mount point. A mounted
// Handle is the only way to reach files on the device.
package mount

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/0xRadioAc7iv/procstore/internal/lock"
	"github.com/0xRadioAc7iv/procstore/internal/storage"
	"github.com/0xRadioAc7iv/procstore/internal/utils"
)

// Config describes one filesystem to attach. It is fixed for the lifetime of
// the mount.
type Config struct {
	Kind          storage.Kind
	Device        string // host directory, or a label for memory filesystems
	MountPoint    string // absolute, e.g. "/lfs"
	CapacityBytes int64
}

var (
	ErrBusy              = errors.New("mount point busy")
	ErrNotMounted        = errors.New("path is not on a mounted filesystem")
	ErrInvalidMountPoint = errors.New("mount point must be an absolute path below /")
	ErrMissingDeviceName = errors.New("storage device not specified")
)

// MountError wraps any failure to attach a filesystem. It is not retried.
type MountError struct {
	Device     string
	MountPoint string
	Err        error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("mount %s at %s: %v", e.Device, e.MountPoint, e.Err)
}

func (e *MountError) Unwrap() error {
	return e.Err
}

// Handle is an attached filesystem. It implements storage.Filesystem for
// paths under its mount point.
type Handle struct {
	cfg      Config
	fs       storage.Filesystem
	lockFile *os.File

	mu      sync.RWMutex
	mounted bool
}

// mount table, keyed by mount point
var (
	tableMu sync.Mutex
	table   = map[string]*Handle{}
)

// Mount attaches the filesystem described by cfg. Any failure is returned as
// a *MountError.
func Mount(cfg Config) (*Handle, error) {
	h, err := mount(cfg)
	if err != nil {
		return nil, &MountError{Device: cfg.Device, MountPoint: cfg.MountPoint, Err: err}
	}
	return h, nil
}

func mount(cfg Config) (*Handle, error) {
	if cfg.Device == "" {
		return nil, ErrMissingDeviceName
	}

	mp := path.Clean(cfg.MountPoint)
	if !path.IsAbs(cfg.MountPoint) || mp == "/" {
		return nil, ErrInvalidMountPoint
	}
	cfg.MountPoint = mp

	tableMu.Lock()
	defer tableMu.Unlock()

	if _, busy := table[mp]; busy {
		return nil, ErrBusy
	}

	h := &Handle{cfg: cfg}

	if cfg.Kind == storage.KindHost {
		if err := utils.EnsureDirectory(cfg.Device); err != nil {
			return nil, err
		}
		lf, err := lock.Acquire(cfg.Device)
		if err != nil {
			return nil, err
		}
		h.lockFile = lf
	}

	fs, err := storage.New(cfg.Kind, cfg.Device, cfg.CapacityBytes)
	if err != nil {
		if h.lockFile != nil {
			lock.Release(h.lockFile)
		}
		return nil, err
	}

	h.fs = fs
	h.mounted = true
	table[mp] = h

	return h, nil
}

// OpenFile opens a mount-point-absolute path, e.g. "/lfs/procData".
func (h *Handle) OpenFile(name string, flag int) (storage.File, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.mounted {
		return nil, fmt.Errorf("%s: %w", name, ErrNotMounted)
	}

	rel, ok := h.resolve(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotMounted)
	}

	return h.fs.OpenFile(rel, flag)
}

func (h *Handle) resolve(name string) (string, bool) {
	name = path.Clean(name)
	prefix := h.cfg.MountPoint + "/"
	if !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(name, h.cfg.MountPoint), true
}

func (h *Handle) MountPoint() string {
	return h.cfg.MountPoint
}

func (h *Handle) Device() string {
	return h.cfg.Device
}

// Filesystem returns the backing filesystem, bypassing mount point
// resolution.
func (h *Handle) Filesystem() storage.Filesystem {
	return h.fs
}

func (h *Handle) Mounted() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.mounted
}

// Unmount detaches the filesystem and releases the device. Calling it more
// than once is a no-op.
func (h *Handle) Unmount() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.mounted {
		return nil
	}
	h.mounted = false

	tableMu.Lock()
	delete(table, h.cfg.MountPoint)
	tableMu.Unlock()

	if h.lockFile != nil {
		return lock.Release(h.lockFile)
	}
	return nil
}
