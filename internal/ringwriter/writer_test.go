package ringwriter

import (
	"errors"
	"io/fs"
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xRadioAc7iv/procstore/internal/record"
	"github.com/0xRadioAc7iv/procstore/internal/storage"
)

const testPath = "/procData"

// faultFS wraps a filesystem and injects failures into the handles it
// returns. It also records the offset of every write attempt.
type faultFS struct {
	storage.Filesystem

	openErr    error
	seekErr    error
	writeErr   func(offset int64) error
	closeErr   error
	shortWrite int

	mu     sync.Mutex
	writes []int64
}

func (f *faultFS) OpenFile(name string, flag int) (storage.File, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	file, err := f.Filesystem.OpenFile(name, flag)
	if err != nil {
		return nil, err
	}
	return &faultFile{File: file, fs: f}, nil
}

func (f *faultFS) attempts() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.writes...)
}

type faultFile struct {
	storage.File
	fs  *faultFS
	pos int64
}

func (f *faultFile) Seek(offset int64, whence int) (int64, error) {
	if f.fs.seekErr != nil {
		return 0, f.fs.seekErr
	}
	pos, err := f.File.Seek(offset, whence)
	f.pos = pos
	return pos, err
}

func (f *faultFile) Write(p []byte) (int, error) {
	f.fs.mu.Lock()
	f.fs.writes = append(f.fs.writes, f.pos)
	f.fs.mu.Unlock()

	if f.fs.writeErr != nil {
		if err := f.fs.writeErr(f.pos); err != nil {
			return 0, err
		}
	}
	if f.fs.shortWrite > 0 {
		return f.File.Write(p[:f.fs.shortWrite])
	}
	return f.File.Write(p)
}

func (f *faultFile) Close() error {
	err := f.File.Close()
	if f.fs.closeErr != nil {
		return f.fs.closeErr
	}
	return err
}

type recordingObserver struct {
	results []string
	offsets []int64
}

func (o *recordingObserver) ObservePersist(result string, _ int, offset int64) {
	o.results = append(o.results, result)
	o.offsets = append(o.offsets, offset)
}

func sample(seq uint32) record.Record {
	return record.Record{A: 1, B: 2, C: 3, D: 4, E: 5, F: 6, G: 7, H: 8, I: 9, J: 10, K: 11, L: seq}
}

func encoded(t *testing.T, r record.Record) []byte {
	t.Helper()
	b, err := record.EncodeRecordToBytes(&r)
	require.NoError(t, err)
	return b
}

func TestPersistAdvancesBySumOfWrites(t *testing.T) {
	mem := storage.NewMemoryFS(10 * record.Size)
	w := New(mem, testPath)

	var total int64
	for i := 0; i < 10; i++ {
		n, err := w.Persist(sample(uint32(i)))
		require.NoError(t, err)
		assert.Equal(t, record.Size, n)
		total += int64(n)
		assert.Equal(t, total, w.Offset())
	}

	data, err := mem.Bytes(testPath)
	require.NoError(t, err)
	require.Len(t, data, 10*record.Size)
	assert.Equal(t, encoded(t, sample(9)), data[9*record.Size:])

	stats := w.Stats()
	assert.EqualValues(t, 10, stats.Persisted)
	assert.EqualValues(t, 10*record.Size, stats.BytesWritten)
	assert.Zero(t, stats.Wraps)
}

func TestPersistWrapsWhenStorageExhausted(t *testing.T) {
	// capacity 1000 bytes, 40 byte records
	mem := storage.NewMemoryFS(1000)
	faults := &faultFS{Filesystem: mem}
	obs := &recordingObserver{}
	w := New(faults, testPath, WithObserver(obs))

	for i := 0; i < 25; i++ {
		_, err := w.Persist(sample(uint32(i)))
		require.NoError(t, err)
	}
	require.EqualValues(t, 1000, w.Offset())

	n, err := w.Persist(sample(25))
	require.NoError(t, err)
	assert.Equal(t, record.Size, n)
	assert.EqualValues(t, 40, w.Offset(), "offset is the retry's byte count")

	attempts := faults.attempts()
	require.Len(t, attempts, 27)
	assert.EqualValues(t, 1000, attempts[25], "first attempt at the exhausted offset")
	assert.EqualValues(t, 0, attempts[26], "retry at offset 0")

	data, err := mem.Bytes(testPath)
	require.NoError(t, err)
	assert.Len(t, data, 1000, "file is never grown past the budget")
	assert.Equal(t, encoded(t, sample(25)), data[:record.Size])
	assert.Equal(t, encoded(t, sample(1)), data[record.Size:2*record.Size])

	assert.Equal(t, ResultWrapped, obs.results[25])
	assert.EqualValues(t, 1, w.Stats().Wraps)

	// Writing continues after the wrapped record.
	_, err = w.Persist(sample(26))
	require.NoError(t, err)
	assert.EqualValues(t, 80, w.Offset())
}

func TestPersistRecordLargerThanCapacity(t *testing.T) {
	mem := storage.NewMemoryFS(record.Size / 2)
	faults := &faultFS{Filesystem: mem}
	obs := &recordingObserver{}
	w := New(faults, testPath, WithObserver(obs))

	for i := 0; i < 3; i++ {
		n, err := w.Persist(sample(uint32(i)))
		require.Error(t, err)
		assert.Zero(t, n)
		assert.ErrorIs(t, err, storage.ErrStorageExhausted)
		assert.EqualValues(t, 0, w.Offset())
	}

	assert.Equal(t, []int64{0, 0, 0, 0, 0, 0}, faults.attempts(), "each persist tries exactly twice")
	assert.Equal(t, []string{ResultExhausted, ResultExhausted, ResultExhausted}, obs.results)

	stats := w.Stats()
	assert.EqualValues(t, 3, stats.Failures)
	assert.Zero(t, stats.Persisted)
}

func TestPersistRetryFailureLeavesOffsetAtZero(t *testing.T) {
	mem := storage.NewMemoryFS(1 << 20)
	full := false
	faults := &faultFS{
		Filesystem: mem,
		writeErr: func(int64) error {
			if full {
				return &fs.PathError{Op: "write", Path: testPath, Err: syscall.ENOSPC}
			}
			return nil
		},
	}
	w := New(faults, testPath)

	for i := 0; i < 3; i++ {
		_, err := w.Persist(sample(uint32(i)))
		require.NoError(t, err)
	}
	require.EqualValues(t, 120, w.Offset())

	full = true
	_, err := w.Persist(sample(3))
	require.Error(t, err)
	assert.True(t, storage.IsStorageExhausted(err))
	assert.EqualValues(t, 0, w.Offset())

	attempts := faults.attempts()
	assert.Equal(t, []int64{120, 0}, attempts[len(attempts)-2:])

	full = false
	_, err = w.Persist(sample(4))
	require.NoError(t, err)
	assert.EqualValues(t, record.Size, w.Offset())
}

func TestPersistOtherErrorsLeaveOffsetUnchanged(t *testing.T) {
	eio := &fs.PathError{Op: "io", Path: testPath, Err: syscall.EIO}

	tests := []struct {
		name   string
		faults func(f *faultFS)
		op     string
	}{
		{"open", func(f *faultFS) { f.openErr = eio }, "open"},
		{"seek", func(f *faultFS) { f.seekErr = eio }, "seek"},
		{"write", func(f *faultFS) { f.writeErr = func(int64) error { return eio } }, "write"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faults := &faultFS{Filesystem: storage.NewMemoryFS(1 << 20)}
			obs := &recordingObserver{}
			w := New(faults, testPath, WithObserver(obs))

			_, err := w.Persist(sample(0))
			require.NoError(t, err)
			_, err = w.Persist(sample(1))
			require.NoError(t, err)
			before := w.Offset()

			tt.faults(faults)
			n, err := w.Persist(sample(2))
			require.Error(t, err)
			assert.Zero(t, n)
			assert.ErrorIs(t, err, syscall.EIO)
			assert.False(t, storage.IsStorageExhausted(err))

			var writeErr *WriteError
			require.True(t, errors.As(err, &writeErr))
			assert.Equal(t, tt.op, writeErr.Op)
			assert.Equal(t, before, writeErr.Offset)

			assert.Equal(t, before, w.Offset())
			assert.Equal(t, ResultError, obs.results[len(obs.results)-1])
			assert.Zero(t, w.Stats().Wraps, "no retry on non-exhaustion errors")
		})
	}
}

func TestPersistCloseErrorAfterSuccessfulWrite(t *testing.T) {
	faults := &faultFS{Filesystem: storage.NewMemoryFS(1 << 20)}
	w := New(faults, testPath)

	_, err := w.Persist(sample(0))
	require.NoError(t, err)

	faults.closeErr = &fs.PathError{Op: "close", Path: testPath, Err: syscall.ENOSPC}
	n, err := w.Persist(sample(1))
	require.Error(t, err)
	assert.Equal(t, record.Size, n)

	var closeErr *CloseError
	require.True(t, errors.As(err, &closeErr))
	assert.EqualValues(t, 2*record.Size, w.Offset(), "offset stays advanced")
	assert.Len(t, faults.attempts(), 2, "close failures are not retried")
	assert.EqualValues(t, 1, w.Stats().CloseErrors)
}

func TestPersistCloseErrorDoesNotOverrideWriteError(t *testing.T) {
	eio := errors.New("device fault")
	faults := &faultFS{
		Filesystem: storage.NewMemoryFS(1 << 20),
		writeErr:   func(int64) error { return eio },
		closeErr:   errors.New("close fault"),
	}
	w := New(faults, testPath)

	_, err := w.Persist(sample(0))
	require.Error(t, err)
	assert.ErrorIs(t, err, eio)
	assert.False(t, isCloseError(err))
	assert.EqualValues(t, 0, w.Offset())
}

func TestPersistShortWriteAdvancesByReportedCount(t *testing.T) {
	faults := &faultFS{Filesystem: storage.NewMemoryFS(1 << 20), shortWrite: 10}
	w := New(faults, testPath)

	n, err := w.Persist(sample(0))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.EqualValues(t, 10, w.Offset())
}

func TestPersistIsSerialized(t *testing.T) {
	mem := storage.NewMemoryFS(1 << 20)
	w := New(mem, testPath)

	const writers, perWriter = 8, 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_, err := w.Persist(sample(uint32(j)))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, writers*perWriter*record.Size, w.Offset())
	assert.EqualValues(t, writers*perWriter*record.Size, mem.Used())
}

func TestPersistOnHostFilesystem(t *testing.T) {
	host := storage.NewHostFS(t.TempDir(), 3*record.Size)
	w := New(host, testPath)

	for i := 0; i < 3; i++ {
		_, err := w.Persist(sample(uint32(i)))
		require.NoError(t, err)
	}

	_, err := w.Persist(sample(3))
	require.NoError(t, err)
	assert.EqualValues(t, record.Size, w.Offset())
}
