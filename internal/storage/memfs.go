package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sync"
)

// MemoryFS is a volatile filesystem whose files share a fixed byte budget.
// Overwriting existing bytes never consumes budget; only growth does.
type MemoryFS struct {
	mu       sync.Mutex
	files    map[string][]byte
	capacity int64
	used     int64
}

func NewMemoryFS(capacity int64) *MemoryFS {
	return &MemoryFS{
		files:    make(map[string][]byte),
		capacity: capacity,
	}
}

func (m *MemoryFS) OpenFile(name string, flag int) (File, error) {
	name = path.Clean("/" + name)

	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[name]
	if !ok {
		if flag&os.O_CREATE == 0 {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		m.files[name] = nil
	} else if flag&os.O_TRUNC != 0 {
		m.used -= int64(len(data))
		m.files[name] = nil
	}

	return &memFile{fs: m, name: name, writable: flag&(os.O_WRONLY|os.O_RDWR) != 0}, nil
}

// Bytes returns a copy of the named file's contents.
func (m *MemoryFS) Bytes(name string) ([]byte, error) {
	name = path.Clean("/" + name)

	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}

	return append([]byte(nil), data...), nil
}

// Used returns the number of bytes held by all files.
func (m *MemoryFS) Used() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used
}

func (m *MemoryFS) Capacity() int64 {
	return m.capacity
}

type memFile struct {
	fs       *MemoryFS
	name     string
	pos      int64
	writable bool
	closed   bool
}

func (f *memFile) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}

	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = f.pos
	case io.SeekEnd:
		f.fs.mu.Lock()
		base = int64(len(f.fs.files[f.name]))
		f.fs.mu.Unlock()
	default:
		return 0, fmt.Errorf("seek %s: invalid whence %d", f.name, whence)
	}

	if base+offset < 0 {
		return 0, fmt.Errorf("seek %s: negative position", f.name)
	}

	f.pos = base + offset
	return f.pos, nil
}

func (f *memFile) Write(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if !f.writable {
		return 0, &fs.PathError{Op: "write", Path: f.name, Err: errors.ErrUnsupported}
	}

	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	data := f.fs.files[f.name]
	end := f.pos + int64(len(p))

	var growth int64
	if end > int64(len(data)) {
		growth = end - int64(len(data))
	}
	if f.fs.used+growth > f.fs.capacity {
		return 0, ErrStorageExhausted
	}

	if growth > 0 {
		data = append(data, make([]byte, growth)...)
		f.fs.used += growth
	}

	n := copy(data[f.pos:end], p)
	f.fs.files[f.name] = data
	f.pos += int64(n)

	return n, nil
}

func (f *memFile) Close() error {
	if f.closed {
		return fs.ErrClosed
	}
	f.closed = true
	return nil
}
