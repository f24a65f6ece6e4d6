package storage

import (
	"os"
	"path/filepath"
)

// HostFS serves files from a directory on the host. When Capacity is
// positive every file is limited to Capacity bytes, and writes past that
// point fail with ErrStorageExhausted without touching the file.
type HostFS struct {
	Root     string
	Capacity int64
}

func NewHostFS(root string, capacity int64) *HostFS {
	return &HostFS{Root: root, Capacity: capacity}
}

func (h *HostFS) OpenFile(name string, flag int) (File, error) {
	f, err := os.OpenFile(filepath.Join(h.Root, filepath.FromSlash(name)), flag, 0644)
	if err != nil {
		return nil, err
	}

	if h.Capacity <= 0 {
		return f, nil
	}

	return &budgetFile{File: f, capacity: h.Capacity}, nil
}

// budgetFile tracks the position of an *os.File so that it can refuse
// writes that would cross the capacity.
type budgetFile struct {
	*os.File
	capacity int64
	pos      int64
}

func (b *budgetFile) Seek(offset int64, whence int) (int64, error) {
	pos, err := b.File.Seek(offset, whence)
	if err != nil {
		return pos, err
	}
	b.pos = pos
	return pos, nil
}

func (b *budgetFile) Write(p []byte) (int, error) {
	if b.pos+int64(len(p)) > b.capacity {
		return 0, ErrStorageExhausted
	}

	n, err := b.File.Write(p)
	b.pos += int64(n)
	return n, err
}

var _ File = (*budgetFile)(nil)
