// Package ringwriter persists fixed-size records into a single backing file
// used as a circular region. When the filesystem runs out of space the write
// position goes back to the start of the file and the write is retried once.
package ringwriter

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/0xRadioAc7iv/procstore/internal/record"
	"github.com/0xRadioAc7iv/procstore/internal/storage"
)

// Persist outcomes reported to an Observer.
const (
	ResultOK        = "ok"        // written at the current offset
	ResultWrapped   = "wrapped"   // storage exhausted, rewritten at offset 0
	ResultExhausted = "exhausted" // storage exhausted and the retry failed too
	ResultError     = "error"     // any other failure, offset unchanged
)

// Observer receives the outcome of every Persist call.
type Observer interface {
	ObservePersist(result string, bytesWritten int, offset int64)
}

type Stats struct {
	Persisted    uint64
	Wraps        uint64
	Failures     uint64
	CloseErrors  uint64
	BytesWritten uint64
}

// Writer owns the Write Offset of one backing file. Persist is the only
// operation that moves it.
type Writer struct {
	fs       storage.Filesystem
	path     string
	logger   *slog.Logger
	observer Observer

	mu     sync.Mutex // for offset + stats
	offset int64
	stats  Stats
}

type Option func(*Writer)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}

func WithObserver(o Observer) Option {
	return func(w *Writer) {
		w.observer = o
	}
}

// New returns a Writer for path on fs, starting at offset 0.
func New(fs storage.Filesystem, path string, opts ...Option) *Writer {
	w := &Writer{
		fs:     fs,
		path:   path,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Persist writes rec at the current Write Offset and returns the number of
// bytes written.
//
// On success the offset advances by that count. If the filesystem reports
// storage exhaustion the offset is reset to 0 and the write is attempted
// exactly once more; should that fail too the offset stays at 0. Any other
// failure leaves the offset where it was.
//
// A *CloseError is returned alongside a positive count when the record was
// written but the file could not be closed; the offset has been advanced.
func (w *Writer) Persist(rec record.Record) (int, error) {
	data, err := record.EncodeRecordToBytes(&rec)
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	result := ResultOK

	n, err := w.writeAt(data, w.offset)
	if exhausted(err) {
		w.logger.Error("data write error, no more space left", "offset", w.offset, "error", err)

		// Start overwriting from the beginning of the file
		w.offset = 0
		w.stats.Wraps++
		result = ResultWrapped

		n, err = w.writeAt(data, 0)
		if err != nil && !isCloseError(err) {
			w.logger.Error("data write #2 error", "error", err)
			w.fail(ResultExhausted)
			return 0, err
		}
		w.logger.Debug("data write #2 success", "bytes", n)
	} else if err != nil && !isCloseError(err) {
		w.logger.Error("data write error", "offset", w.offset, "error", err)
		w.fail(ResultError)
		return 0, err
	}

	if err != nil {
		w.logger.Error("file close error", "path", w.path, "error", err)
		w.stats.CloseErrors++
	}

	w.logger.Debug("write new data", "offset", w.offset, "bytes", n)

	w.offset += int64(n)
	w.stats.Persisted++
	w.stats.BytesWritten += uint64(n)

	if w.observer != nil {
		w.observer.ObservePersist(result, n, w.offset)
	}

	return n, err
}

func (w *Writer) fail(result string) {
	w.stats.Failures++
	if w.observer != nil {
		w.observer.ObservePersist(result, 0, w.offset)
	}
}

// writeAt performs one open, seek, write, close cycle. A close failure only
// surfaces when everything before it succeeded.
func (w *Writer) writeAt(data []byte, offset int64) (int, error) {
	f, err := w.fs.OpenFile(w.path, os.O_CREATE|os.O_RDWR)
	if err != nil {
		return 0, w.writeError("open", offset, err)
	}

	var n int
	if _, err = f.Seek(offset, io.SeekStart); err != nil {
		err = w.writeError("seek", offset, err)
	} else if n, err = f.Write(data); err != nil {
		err = w.writeError("write", offset, err)
	}

	if cerr := f.Close(); cerr != nil {
		if err != nil {
			w.logger.Error("file close error", "path", w.path, "error", cerr)
			return 0, err
		}
		return n, &CloseError{Path: w.path, Err: cerr}
	}

	if err != nil {
		return 0, err
	}
	return n, nil
}

func (w *Writer) writeError(op string, offset int64, err error) error {
	return &WriteError{Op: op, Path: w.path, Offset: offset, Err: err}
}

func isCloseError(err error) bool {
	var ce *CloseError
	return errors.As(err, &ce)
}

// exhausted reports storage exhaustion from open, seek or write. Close
// failures never trigger the retry.
func exhausted(err error) bool {
	return err != nil && !isCloseError(err) && storage.IsStorageExhausted(err)
}

// Offset returns the position at which the next record will be written.
func (w *Writer) Offset() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.offset
}

func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Writer) Path() string {
	return w.path
}
